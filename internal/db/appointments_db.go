// internal/db/appointments_db.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"clinica-admin.com.br/internal/models"
)

const appointmentQuery = `SELECT a.id, a.client_id, COALESCE(c.name, ''), a.title, a.starts_at, a.ends_at,
	a.price_cents, COALESCE(a.notes, ''), a.created_by, a.created_at
	FROM appointments a
	LEFT JOIN clients c ON c.id = a.client_id`

func scanAppointment(row scanner) (*models.Appointment, error) {
	var (
		a        models.Appointment
		clientID sql.NullInt64
	)
	err := row.Scan(&a.ID, &clientID, &a.ClientName, &a.Title, &a.StartsAt, &a.EndsAt,
		&a.PriceCents, &a.Notes, &a.CreatedBy, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if clientID.Valid {
		id := clientID.Int64
		a.ClientID = &id
	}
	return &a, nil
}

// ListAppointmentsBetween devolve os agendamentos com início em [from, to).
func (s *Store) ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]*models.Appointment, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx,
		appointmentQuery+` WHERE a.starts_at >= ? AND a.starts_at < ? ORDER BY a.starts_at ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar agendamentos: %w", err)
	}
	defer rows.Close()

	var list []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			slog.Error("Erro ao ler agendamento", "error", err)
			continue
		}
		list = append(list, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar agendamentos: %w", err)
	}
	return list, nil
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	a, err := scanAppointment(s.DB.QueryRowContext(ctx, appointmentQuery+` WHERE a.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("erro ao buscar agendamento %s: %w", id, err)
	}
	return a, nil
}

// CreateAppointment grava o agendamento com um novo UUID e devolve o ID gerado.
func (s *Store) CreateAppointment(ctx context.Context, a *models.Appointment) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	var clientID sql.NullInt64
	if a.ClientID != nil {
		clientID = sql.NullInt64{Int64: *a.ClientID, Valid: true}
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO appointments (id, client_id, title, starts_at, ends_at, price_cents, notes, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, clientID, a.Title, a.StartsAt, a.EndsAt, a.PriceCents, a.Notes, a.CreatedBy, a.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("não foi possível criar o agendamento: %w", err)
	}
	slog.Info("Agendamento criado", "appointmentID", a.ID, "createdBy", a.CreatedBy)
	return a.ID, nil
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("não foi possível excluir o agendamento %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	slog.Info("Agendamento excluído", "appointmentID", id)
	return nil
}
