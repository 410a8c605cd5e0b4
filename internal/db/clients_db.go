// internal/db/clients_db.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clinica-admin.com.br/internal/auth"
	"clinica-admin.com.br/internal/models"
)

const clientColumns = `id, name, cpf, email, phone, birth_date, address, notes, created_at, updated_at`

// ClientFilter descreve a busca paginada da listagem de clientes.
type ClientFilter struct {
	Search string
	Limit  int
	Offset int
}

func scanClient(row scanner) (*models.Client, error) {
	var (
		c         models.Client
		birthDate sql.NullTime
		notes     sql.NullString
	)
	err := row.Scan(&c.ID, &c.Name, &c.CPF, &c.Email, &c.Phone, &birthDate, &c.Address, &notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if birthDate.Valid {
		c.BirthDate = birthDate.Time.Format("2006-01-02")
	}
	c.Notes = notes.String
	return &c, nil
}

// clientSearchClause monta o WHERE da busca por nome, CPF ou email.
func clientSearchClause(search string) (string, []interface{}) {
	search = strings.TrimSpace(search)
	if search == "" {
		return "", nil
	}
	like := "%" + search + "%"
	args := []interface{}{like, like}
	clause := " WHERE (name LIKE ? OR email LIKE ?"
	if digits := auth.OnlyDigits(search); digits != "" {
		clause += " OR cpf LIKE ?"
		args = append(args, "%"+digits+"%")
	}
	return clause + ")", args
}

// ListClients devolve uma página de clientes ordenada por nome e o total encontrado.
func (s *Store) ListClients(ctx context.Context, f ClientFilter) ([]*models.Client, int, error) {
	if err := s.ready(); err != nil {
		return nil, 0, err
	}
	where, args := clientSearchClause(f.Search)

	var total int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM clients"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("erro ao contar clientes: %w", err)
	}

	pageArgs := append(append([]interface{}{}, args...), f.Limit, f.Offset)
	rows, err := s.DB.QueryContext(ctx,
		"SELECT "+clientColumns+" FROM clients"+where+" ORDER BY name ASC, id ASC LIMIT ? OFFSET ?", pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("erro ao listar clientes: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			slog.Error("Erro ao ler cliente da listagem", "error", err)
			continue
		}
		clients = append(clients, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("erro ao iterar clientes: %w", err)
	}
	return clients, total, nil
}

func (s *Store) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	row := s.DB.QueryRowContext(ctx, "SELECT "+clientColumns+" FROM clients WHERE id = ?", id)
	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("erro ao buscar cliente %d: %w", id, err)
	}
	return c, nil
}

func nullableDate(value string) sql.NullTime {
	if value == "" {
		return sql.NullTime{}
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func (s *Store) CreateClient(ctx context.Context, c *models.Client) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	now := time.Now()
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO clients (name, cpf, email, phone, birth_date, address, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.CPF, c.Email, c.Phone, nullableDate(c.BirthDate), c.Address, c.Notes, now, now)
	if err != nil {
		if isDuplicateKey(err, "cpf") {
			return 0, ErrDuplicateCPF
		}
		return 0, fmt.Errorf("não foi possível cadastrar o cliente: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("não foi possível obter o ID do cliente: %w", err)
	}
	slog.Info("Cliente cadastrado", "clientID", id)
	return id, nil
}

func (s *Store) UpdateClient(ctx context.Context, c *models.Client) error {
	if err := s.ready(); err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx,
		`UPDATE clients SET name = ?, cpf = ?, email = ?, phone = ?, birth_date = ?, address = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.CPF, c.Email, c.Phone, nullableDate(c.BirthDate), c.Address, c.Notes, time.Now(), c.ID)
	if err != nil {
		if isDuplicateKey(err, "cpf") {
			return ErrDuplicateCPF
		}
		return fmt.Errorf("não foi possível atualizar o cliente %d: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL devolve 0 quando nada mudou; confirma a existência antes de reportar.
		if _, err := s.GetClient(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

// ListClientOptions devolve id e nome de todos os clientes para seletores.
func (s *Store) ListClientOptions(ctx context.Context) ([]models.Client, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT id, name FROM clients ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar clientes: %w", err)
	}
	defer rows.Close()
	var out []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("erro ao ler cliente: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
