// Package testutil traz um Store em memória para testes de handlers e do roteador.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clinica-admin.com.br/internal/auth"
	"clinica-admin.com.br/internal/db"
	"clinica-admin.com.br/internal/models"
)

// MemoryStore implementa as consultas do painel sobre mapas. Err, quando
// definido, é devolvido por todas as operações.
type MemoryStore struct {
	mu           sync.Mutex
	Err          error
	nextUserID   int64
	nextClientID int64
	Users        map[int64]*models.User
	Clients      map[int64]*models.Client
	Appointments map[string]*models.Appointment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Users:        map[int64]*models.User{},
		Clients:      map[int64]*models.Client{},
		Appointments: map[string]*models.Appointment{},
	}
}

// AddUser cadastra um usuário com a senha informada e devolve o ID.
func (m *MemoryStore) AddUser(email, password string, roles ...models.Role) int64 {
	hash, err := auth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextUserID++
	m.Users[m.nextUserID] = &models.User{
		ID: m.nextUserID, Email: email, Name: strings.Split(email, "@")[0],
		PasswordHash: hash, Roles: roles, CreatedAt: time.Now(),
	}
	return m.nextUserID
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Roles = append([]models.Role(nil), u.Roles...)
	return &c
}

func (m *MemoryStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return copyUser(u), nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.Users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *MemoryStore) UpdateUserProfile(_ context.Context, id int64, name string, avatarURL *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	u, ok := m.Users[id]
	if !ok {
		return db.ErrNotFound
	}
	u.Name, u.AvatarURL = name, avatarURL
	return nil
}

func (m *MemoryStore) UpdateUserPassword(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	u, ok := m.Users[id]
	if !ok {
		return db.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *MemoryStore) sortedUsers(filter func(*models.User) bool) []*models.User {
	var out []*models.User
	for _, u := range m.Users {
		if filter == nil || filter(u) {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryStore) ListUsers(_ context.Context, limit, offset int) ([]*models.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}
	all := m.sortedUsers(nil)
	return page(all, limit, offset), len(all), nil
}

func (m *MemoryStore) ListUsersByRole(_ context.Context, role models.Role) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.sortedUsers(func(u *models.User) bool { return u.RoleSet().Has(role) }), nil
}

func (m *MemoryStore) SetUserRoles(_ context.Context, id int64, roles []models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	u, ok := m.Users[id]
	if !ok {
		return db.ErrNotFound
	}
	u.Roles = models.NewRoleSet(roles...).Sorted()
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (m *MemoryStore) ListClients(_ context.Context, f db.ClientFilter) ([]*models.Client, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}
	var out []*models.Client
	q := strings.ToLower(strings.TrimSpace(f.Search))
	digits := auth.OnlyDigits(q)
	for _, c := range m.Clients {
		byCPF := digits != "" && strings.Contains(c.CPF, digits)
		if q == "" || byCPF || strings.Contains(strings.ToLower(c.Name), q) {
			cc := *c
			out = append(out, &cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (m *MemoryStore) GetClient(_ context.Context, id int64) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.Clients[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

func (m *MemoryStore) cpfTaken(cpf string, except int64) bool {
	for id, c := range m.Clients {
		if c.CPF == cpf && id != except {
			return true
		}
	}
	return false
}

func (m *MemoryStore) CreateClient(_ context.Context, c *models.Client) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if m.cpfTaken(c.CPF, 0) {
		return 0, db.ErrDuplicateCPF
	}
	m.nextClientID++
	cc := *c
	cc.ID = m.nextClientID
	m.Clients[cc.ID] = &cc
	return cc.ID, nil
}

func (m *MemoryStore) UpdateClient(_ context.Context, c *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Clients[c.ID]; !ok {
		return db.ErrNotFound
	}
	if m.cpfTaken(c.CPF, c.ID) {
		return db.ErrDuplicateCPF
	}
	cc := *c
	m.Clients[c.ID] = &cc
	return nil
}

func (m *MemoryStore) ListClientOptions(_ context.Context) ([]models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.Client
	for _, c := range m.Clients {
		out = append(out, models.Client{ID: c.ID, Name: c.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) ListAppointmentsBetween(_ context.Context, from, to time.Time) ([]*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*models.Appointment
	for _, a := range m.Appointments {
		if !a.StartsAt.Before(from) && a.StartsAt.Before(to) {
			aa := *a
			out = append(out, &aa)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (m *MemoryStore) CreateAppointment(_ context.Context, a *models.Appointment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	if a.ClientID != nil {
		if c, ok := m.Clients[*a.ClientID]; ok {
			a.ClientName = c.Name
		}
	}
	aa := *a
	m.Appointments[a.ID] = &aa
	return a.ID, nil
}

func (m *MemoryStore) DeleteAppointment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Appointments[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.Appointments, id)
	return nil
}

func (m *MemoryStore) GetDashboardStats(_ context.Context, _ time.Time) (*db.DashboardStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return &db.DashboardStats{TotalClients: len(m.Clients), TotalUsers: len(m.Users)}, nil
}

func (m *MemoryStore) GetFinanceSummary(_ context.Context, _ time.Time, _ int) (*db.FinanceSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var total int64
	for _, a := range m.Appointments {
		total += a.PriceCents
	}
	return &db.FinanceSummary{RevenueThisMonthCents: total, RevenueThisYearCents: total}, nil
}

func (m *MemoryStore) GetActivityReport(_ context.Context, _ time.Time, _ int) (*db.ActivityReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	report := &db.ActivityReport{UsersByRole: map[models.Role]int{}}
	for _, u := range m.Users {
		if len(u.Roles) == 0 {
			report.UsersWithoutRole++
		}
		for _, r := range u.Roles {
			report.UsersByRole[r]++
		}
	}
	return report, nil
}
