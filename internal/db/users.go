// internal/db/users.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clinica-admin.com.br/internal/models"
)

const fullUserQuery = `SELECT u.id, u.email, u.name, u.avatar_url, u.password_hash, u.created_at, u.updated_at,
	COALESCE(GROUP_CONCAT(r.name ORDER BY r.id SEPARATOR ','), '')
	FROM users u
	LEFT JOIN user_roles ur ON ur.user_id = u.id
	LEFT JOIN roles r ON r.id = ur.role_id`

func scanFullUser(row scanner) (*models.User, error) {
	var (
		user      models.User
		avatarURL sql.NullString
		roleList  string
	)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &avatarURL, &user.PasswordHash,
		&user.CreatedAt, &user.UpdatedAt, &roleList)
	if err != nil {
		return nil, err
	}
	if avatarURL.Valid && avatarURL.String != "" {
		user.AvatarURL = &avatarURL.String
	}
	user.Roles = parseRoleList(user.ID, roleList)
	return &user, nil
}

func (s *Store) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	row := s.DB.QueryRowContext(ctx, fullUserQuery+" WHERE "+where+" GROUP BY u.id", arg)
	user, err := scanFullUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("erro ao carregar usuário: %w", err)
	}
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, "u.id = ?", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "u.email = ?", strings.ToLower(strings.TrimSpace(email)))
}

// CreateUser insere o usuário e suas funções numa única transação.
func (s *Store) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("não foi possível iniciar a transação: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	var avatar sql.NullString
	if user.AvatarURL != nil {
		avatar = sql.NullString{String: *user.AvatarURL, Valid: true}
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (email, name, avatar_url, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		strings.ToLower(user.Email), user.Name, avatar, user.PasswordHash, now, now)
	if err != nil {
		if isDuplicateKey(err, "email") {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("não foi possível criar o usuário: %w", err)
	}
	userID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("não foi possível obter o ID do usuário: %w", err)
	}
	if err = insertUserRoles(ctx, tx, userID, user.Roles); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("não foi possível confirmar a transação: %w", err)
	}
	slog.Info("Usuário criado", "userID", userID, "email", user.Email, "roles", user.Roles)
	return userID, nil
}

// SetUserRoles substitui o conjunto de funções do usuário.
func (s *Store) SetUserRoles(ctx context.Context, userID int64, roles []models.Role) error {
	if err := s.ready(); err != nil {
		return err
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("não foi possível iniciar a transação: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("não foi possível limpar as funções do usuário %d: %w", userID, err)
	}
	if err = insertUserRoles(ctx, tx, userID, roles); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE users SET updated_at = ? WHERE id = ?`, time.Now(), userID); err != nil {
		return fmt.Errorf("não foi possível atualizar o usuário %d: %w", userID, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("não foi possível confirmar a transação: %w", err)
	}
	slog.Info("Funções do usuário atualizadas", "userID", userID, "roles", roles)
	return nil
}

func insertUserRoles(ctx context.Context, tx *sql.Tx, userID int64, roles []models.Role) error {
	for _, role := range models.NewRoleSet(roles...).Sorted() {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role_id) SELECT ?, id FROM roles WHERE name = ?`, userID, string(role))
		if err != nil {
			return fmt.Errorf("não foi possível atribuir a função '%s': %w", role, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("função '%s' não cadastrada: %w", role, ErrNotFound)
		}
	}
	return nil
}

func (s *Store) UpdateUserProfile(ctx context.Context, userID int64, name string, avatarURL *string) error {
	if err := s.ready(); err != nil {
		return err
	}
	var avatar sql.NullString
	if avatarURL != nil {
		avatar = sql.NullString{String: *avatarURL, Valid: true}
	}
	_, err := s.DB.ExecContext(ctx, `UPDATE users SET name = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		name, avatar, time.Now(), userID)
	if err != nil {
		slog.Error("Erro ao atualizar perfil", "userID", userID, "error", err)
		return fmt.Errorf("não foi possível atualizar o perfil: %w", err)
	}
	return nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, userID int64, newPasswordHash string) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.DB.ExecContext(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newPasswordHash, time.Now(), userID)
	if err != nil {
		slog.Error("Erro ao atualizar senha", "userID", userID, "error", err)
		return fmt.Errorf("não foi possível atualizar a senha: %w", err)
	}
	return nil
}

// ListUsers devolve uma página de usuários e o total.
func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	if err := s.ready(); err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("erro ao contar usuários: %w", err)
	}
	rows, err := s.DB.QueryContext(ctx, fullUserQuery+" GROUP BY u.id ORDER BY u.name ASC, u.id ASC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("erro ao listar usuários: %w", err)
	}
	defer rows.Close()
	users, err := collectUsers(rows)
	return users, total, err
}

// ListUsersByRole devolve os usuários que possuem a função.
func (s *Store) ListUsersByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, fullUserQuery+
		` WHERE u.id IN (SELECT ur2.user_id FROM user_roles ur2 JOIN roles r2 ON r2.id = ur2.role_id WHERE r2.name = ?)
		GROUP BY u.id ORDER BY u.name ASC`, string(role))
	if err != nil {
		return nil, fmt.Errorf("erro ao listar usuários da função '%s': %w", role, err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows *sql.Rows) ([]*models.User, error) {
	var users []*models.User
	for rows.Next() {
		user, err := scanFullUser(rows)
		if err != nil {
			slog.Error("Erro ao ler usuário da listagem", "error", err)
			continue
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar usuários: %w", err)
	}
	return users, nil
}

// EnsureAdministrator cria o usuário com a função Administrador ou promove um
// usuário existente. Devolve true quando o usuário foi criado.
func (s *Store) EnsureAdministrator(ctx context.Context, email, passwordHash string) (bool, error) {
	existing, err := s.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound) && passwordHash == "":
		slog.Warn("Usuário inicial não existe e não há senha para criá-lo", "email", email)
		return false, nil
	case errors.Is(err, ErrNotFound):
		_, err = s.CreateUser(ctx, &models.User{
			Email:        email,
			Name:         "Administrador",
			PasswordHash: passwordHash,
			Roles:        []models.Role{models.RoleAdministrador},
		})
		return err == nil, err
	case err != nil:
		return false, err
	}

	if existing.RoleSet().Has(models.RoleAdministrador) {
		slog.Info("Usuário inicial já é administrador", "email", email)
		return false, nil
	}
	roles := append(existing.RoleSet().Sorted(), models.RoleAdministrador)
	return false, s.SetUserRoles(ctx, existing.ID, roles)
}
