// internal/db/reports_db.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"clinica-admin.com.br/internal/models"
)

// DashboardStats reúne os números exibidos no painel da equipe.
type DashboardStats struct {
	TotalClients          int
	NewClientsLast30Days  int
	AppointmentsToday     int
	AppointmentsNext7Days int
	TotalUsers            int
}

// MonthlyAmount é um total mensal (contagem ou centavos) rotulado por "AAAA-MM".
type MonthlyAmount struct {
	Month string
	Value int64
}

type FinanceSummary struct {
	RevenueThisMonthCents int64
	RevenueLastMonthCents int64
	RevenueThisYearCents  int64
	PaidAppointments      int
	AverageTicketCents    int64
	Monthly               []MonthlyAmount
}

type ActivityReport struct {
	UsersByRole         map[models.Role]int
	UsersWithoutRole    int
	AppointmentsByMonth []MonthlyAmount
	ClientsByMonth      []MonthlyAmount
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// GetDashboardStats devolve as estatísticas do painel. Falhas em consultas
// isoladas são registradas e o respectivo número fica zerado.
func (s *Store) GetDashboardStats(ctx context.Context, now time.Time) (*DashboardStats, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	stats := &DashboardStats{}
	today := startOfDay(now)

	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM clients").Scan(&stats.TotalClients); err != nil {
		slog.Error("Erro ao contar clientes para o painel", "error", err)
	}
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM clients WHERE created_at >= ?",
		today.AddDate(0, 0, -30)).Scan(&stats.NewClientsLast30Days); err != nil {
		slog.Error("Erro ao contar clientes novos", "error", err)
	}
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM appointments WHERE starts_at >= ? AND starts_at < ?",
		today, today.AddDate(0, 0, 1)).Scan(&stats.AppointmentsToday); err != nil {
		slog.Error("Erro ao contar agendamentos de hoje", "error", err)
	}
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM appointments WHERE starts_at >= ? AND starts_at < ?",
		today, today.AddDate(0, 0, 7)).Scan(&stats.AppointmentsNext7Days); err != nil {
		slog.Error("Erro ao contar agendamentos da semana", "error", err)
	}
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&stats.TotalUsers); err != nil {
		slog.Error("Erro ao contar usuários", "error", err)
	}
	return stats, nil
}

func (s *Store) sumRevenue(ctx context.Context, from, to time.Time) int64 {
	var total sql.NullInt64
	err := s.DB.QueryRowContext(ctx,
		"SELECT SUM(price_cents) FROM appointments WHERE starts_at >= ? AND starts_at < ?", from, to).Scan(&total)
	if err != nil {
		slog.Error("Erro ao somar faturamento", "from", from, "to", to, "error", err)
		return 0
	}
	return total.Int64
}

// GetFinanceSummary calcula o faturamento a partir dos valores dos agendamentos.
func (s *Store) GetFinanceSummary(ctx context.Context, now time.Time, months int) (*FinanceSummary, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	month := startOfMonth(now)
	year := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())

	summary := &FinanceSummary{
		RevenueThisMonthCents: s.sumRevenue(ctx, month, month.AddDate(0, 1, 0)),
		RevenueLastMonthCents: s.sumRevenue(ctx, month.AddDate(0, -1, 0), month),
		RevenueThisYearCents:  s.sumRevenue(ctx, year, year.AddDate(1, 0, 0)),
	}
	if err := s.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM appointments WHERE price_cents > 0 AND starts_at >= ? AND starts_at < ?",
		year, year.AddDate(1, 0, 0)).Scan(&summary.PaidAppointments); err != nil {
		slog.Error("Erro ao contar atendimentos pagos", "error", err)
	}
	if summary.PaidAppointments > 0 {
		summary.AverageTicketCents = summary.RevenueThisYearCents / int64(summary.PaidAppointments)
	}

	monthly, err := s.monthlySeries(ctx,
		`SELECT DATE_FORMAT(starts_at, '%Y-%m'), COALESCE(SUM(price_cents), 0) FROM appointments
		WHERE starts_at >= ? AND starts_at < ? GROUP BY 1`, now, months)
	if err != nil {
		slog.Error("Erro ao montar série de faturamento", "error", err)
	}
	summary.Monthly = monthly
	return summary, nil
}

// GetActivityReport agrega usuários por função e a atividade mensal.
func (s *Store) GetActivityReport(ctx context.Context, now time.Time, months int) (*ActivityReport, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	report := &ActivityReport{UsersByRole: make(map[models.Role]int, len(models.AllRoles))}
	for _, r := range models.AllRoles {
		report.UsersByRole[r] = 0
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT r.name, COUNT(ur.user_id) FROM roles r LEFT JOIN user_roles ur ON ur.role_id = r.id GROUP BY r.id, r.name`)
	if err != nil {
		return nil, fmt.Errorf("erro ao contar usuários por função: %w", err)
	}
	for rows.Next() {
		var (
			name  string
			count int
		)
		if err := rows.Scan(&name, &count); err != nil {
			slog.Error("Erro ao ler contagem por função", "error", err)
			continue
		}
		role, perr := models.ParseRole(name)
		if perr != nil {
			slog.Warn("Função desconhecida no relatório", "role", name)
			continue
		}
		report.UsersByRole[role] = count
	}
	rows.Close()

	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users u WHERE NOT EXISTS (SELECT 1 FROM user_roles ur WHERE ur.user_id = u.id)`).
		Scan(&report.UsersWithoutRole); err != nil {
		slog.Error("Erro ao contar usuários sem função", "error", err)
	}

	if report.AppointmentsByMonth, err = s.monthlySeries(ctx,
		`SELECT DATE_FORMAT(starts_at, '%Y-%m'), COUNT(*) FROM appointments
		WHERE starts_at >= ? AND starts_at < ? GROUP BY 1`, now, months); err != nil {
		slog.Error("Erro ao montar série de agendamentos", "error", err)
	}
	if report.ClientsByMonth, err = s.monthlySeries(ctx,
		`SELECT DATE_FORMAT(created_at, '%Y-%m'), COUNT(*) FROM clients
		WHERE created_at >= ? AND created_at < ? GROUP BY 1`, now, months); err != nil {
		slog.Error("Erro ao montar série de clientes", "error", err)
	}
	return report, nil
}

// monthlySeries executa uma consulta agrupada por mês e preenche com zero os meses ausentes.
func (s *Store) monthlySeries(ctx context.Context, query string, now time.Time, months int) ([]MonthlyAmount, error) {
	if months <= 0 {
		months = 6
	}
	labels := monthLabels(now, months)
	from := startOfMonth(now).AddDate(0, -(months - 1), 0)
	to := startOfMonth(now).AddDate(0, 1, 0)

	values := make(map[string]int64, months)
	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return fillSeries(labels, values), err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			label string
			value int64
		)
		if err := rows.Scan(&label, &value); err != nil {
			return fillSeries(labels, values), err
		}
		values[label] = value
	}
	return fillSeries(labels, values), rows.Err()
}

// monthLabels devolve os rótulos "AAAA-MM" dos últimos n meses, do mais antigo ao atual.
func monthLabels(now time.Time, n int) []string {
	first := startOfMonth(now).AddDate(0, -(n - 1), 0)
	labels := make([]string, 0, n)
	for i := 0; i < n; i++ {
		labels = append(labels, first.AddDate(0, i, 0).Format("2006-01"))
	}
	return labels
}

func fillSeries(labels []string, values map[string]int64) []MonthlyAmount {
	out := make([]MonthlyAmount, 0, len(labels))
	for _, l := range labels {
		out = append(out, MonthlyAmount{Month: l, Value: values[l]})
	}
	return out
}
