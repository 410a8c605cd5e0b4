// internal/db/roles_db.go
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

// SeedRoles garante que todas as funções conhecidas existam na tabela roles.
func (s *Store) SeedRoles() error {
	ctx := context.Background()
	for _, r := range models.AllRoles {
		if _, err := s.CreateRoleIfNotExists(ctx, r, r.Description()); err != nil {
			return fmt.Errorf("não foi possível criar a função padrão '%s': %w", r, err)
		}
	}
	return nil
}

// CreateRoleIfNotExists cria a função se ela ainda não existir e devolve o ID.
func (s *Store) CreateRoleIfNotExists(ctx context.Context, role models.Role, description string) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	existing, err := s.GetRoleByName(ctx, role)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return 0, fmt.Errorf("erro ao verificar a função '%s': %w", role, err)
	}
	if existing != nil {
		slog.Debug("Função já existe, criação ignorada", "role_name", role, "role_id", existing.ID)
		return existing.ID, nil
	}

	now := time.Now()
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO roles (name, description, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		string(role), description, now, now)
	if err != nil {
		slog.Error("Erro ao criar função", "role_name", role, "error", err)
		return 0, fmt.Errorf("não foi possível criar a função '%s': %w", role, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("não foi possível obter o ID da função '%s': %w", role, err)
	}
	slog.Info("Função criada", "role_id", id, "role_name", role)
	return id, nil
}

func (s *Store) GetRoleByName(ctx context.Context, role models.Role) (*models.RoleRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles WHERE name = ?`, string(role))
	rec, err := scanRole(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("erro ao buscar a função '%s': %w", role, err)
	}
	return rec, nil
}

// GetAllRoles devolve as funções cadastradas; linhas com nomes desconhecidos são ignoradas.
func (s *Store) GetAllRoles(ctx context.Context) ([]models.RoleRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, description, created_at, updated_at FROM roles ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar funções: %w", err)
	}
	defer rows.Close()

	var roles []models.RoleRecord
	for rows.Next() {
		rec, err := scanRole(rows)
		if err != nil {
			slog.Warn("Função ignorada ao listar", "error", err)
			continue
		}
		roles = append(roles, *rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar funções: %w", err)
	}
	return roles, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRole(row scanner) (*models.RoleRecord, error) {
	var (
		rec         models.RoleRecord
		name        string
		description sql.NullString
	)
	if err := row.Scan(&rec.ID, &name, &description, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	role, err := models.ParseRole(name)
	if err != nil {
		return nil, err
	}
	rec.Name = role
	rec.Description = description.String
	return &rec, nil
}

// parseRoleList converte o GROUP_CONCAT de nomes em funções válidas.
func parseRoleList(userID int64, list string) []models.Role {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	var roles []models.Role
	for _, name := range strings.Split(list, ",") {
		role, err := models.ParseRole(name)
		if err != nil {
			slog.Warn("Função desconhecida ignorada ao carregar usuário", "userID", userID, "role", name)
			continue
		}
		roles = append(roles, role)
	}
	return roles
}
