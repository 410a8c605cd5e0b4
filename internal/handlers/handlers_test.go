package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinica-admin.com.br/internal/access"
	"clinica-admin.com.br/internal/config"
	"clinica-admin.com.br/internal/middleware"
	"clinica-admin.com.br/internal/models"
	"clinica-admin.com.br/internal/testutil"
)

var fixedNow = time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*AppHandlers, *testutil.MemoryStore) {
	t.Helper()
	cfg := &config.Config{
		SiteName:      "Clínica Teste",
		ClinicName:    "Clínica Teste",
		BaseURL:       "http://localhost:8080",
		TemplatesPath: "../../templates",
	}
	store := testutil.NewMemoryStore()
	app, err := NewAppHandlers(cfg, scs.New(), store, nil)
	require.NoError(t, err)
	app.Now = func() time.Time { return fixedNow }
	return app, store
}

// newRequest monta um pedido com a sessão scs carregada e, se houver
// usuário, com o access.Session já no contexto.
func newRequest(t *testing.T, app *AppHandlers, method, target string, form url.Values, user *models.User) *http.Request {
	t.Helper()
	var r *http.Request
	if form != nil {
		r = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	ctx, err := app.SessionManager.Load(r.Context(), "")
	require.NoError(t, err)
	if user != nil {
		app.SessionManager.Put(ctx, middleware.SessionUserIDKey, user.ID)
		ctx = middleware.WithSession(ctx, access.Session{User: user})
	}
	return r.WithContext(ctx)
}

func TestBuildCalendarGrid(t *testing.T) {
	appt := &models.Appointment{ID: "a1", Title: "Consulta", StartsAt: time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)}
	cal := BuildCalendar(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), []*models.Appointment{appt}, fixedNow)

	require.Len(t, cal.Days, 42)
	assert.Equal(t, time.Sunday, cal.Days[0].Date.Weekday())
	assert.Equal(t, 23, cal.Days[0].Date.Day(), "a grade começa no domingo anterior ao dia 1")
	assert.Equal(t, time.Saturday, cal.Days[len(cal.Days)-1].Date.Weekday())
	assert.Len(t, cal.Weeks(), 6)
	assert.Equal(t, "março de 2025", cal.Label)
	assert.Equal(t, "2025-02", cal.PrevParam)
	assert.Equal(t, "2025-04", cal.NextParam)

	for _, d := range cal.Days {
		if d.InMonth && d.Date.Day() == 14 {
			assert.True(t, d.IsToday)
			require.Len(t, d.Appointments, 1)
			assert.Equal(t, "a1", d.Appointments[0].ID)
			continue
		}
		assert.Empty(t, d.Appointments)
		assert.False(t, d.IsToday)
	}
}

func TestGridRangeMonthStartingOnSunday(t *testing.T) {
	start, end := GridRange(time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.July, 6, 0, 0, 0, 0, time.UTC), end)
}

func TestParseMonthParam(t *testing.T) {
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), parseMonthParam("2025-07", fixedNow))
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), parseMonthParam("", fixedNow))
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), parseMonthParam("julho", fixedNow))
}

func TestIsLocalPath(t *testing.T) {
	assert.True(t, isLocalPath("/clientes?q=ana"))
	assert.False(t, isLocalPath(""))
	assert.False(t, isLocalPath("//evil.example"))
	assert.False(t, isLocalPath("https://evil.example"))
	assert.False(t, isLocalPath("/\\evil.example"))
}

func TestPagination(t *testing.T) {
	p := NewPagination(2, 20, 45, "ana")
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasPrev())
	assert.True(t, p.HasNext())

	empty := NewPagination(1, 20, 0, "")
	assert.Equal(t, 1, empty.TotalPages)
	assert.False(t, empty.HasNext())
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	app, store := newTestApp(t)
	store.AddUser("ana@clinica.com.br", "Senha@2025", models.RoleAdministrador)

	form := url.Values{"email": {"ana@clinica.com.br"}, "password": {"errada"}}
	r := newRequest(t, app, http.MethodPost, "/login", form, nil)
	w := httptest.NewRecorder()
	app.LoginHandler(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Email ou senha incorretos.")
	assert.Zero(t, app.SessionManager.GetInt64(r.Context(), middleware.SessionUserIDKey))
}

func TestLoginValidation(t *testing.T) {
	app, _ := newTestApp(t)
	r := newRequest(t, app, http.MethodPost, "/login", url.Values{"email": {"não é email"}}, nil)
	w := httptest.NewRecorder()
	app.LoginHandler(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginSuccessStartsFreshNavigation(t *testing.T) {
	app, store := newTestApp(t)
	id := store.AddUser("ana@clinica.com.br", "Senha@2025", models.RoleUsuario)

	form := url.Values{"email": {"ANA@clinica.com.br"}, "password": {"Senha@2025"}}
	r := newRequest(t, app, http.MethodPost, "/login", form, nil)
	app.SessionManager.Put(r.Context(), middleware.SessionNavLastKey, "/financeiro")
	app.SessionManager.Put(r.Context(), middleware.SessionAccessDeniedKey, "/financeiro")
	w := httptest.NewRecorder()
	app.LoginHandler(w, r)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))
	assert.Equal(t, id, app.SessionManager.GetInt64(r.Context(), middleware.SessionUserIDKey))
	assert.False(t, app.SessionManager.Exists(r.Context(), middleware.SessionNavLastKey))
	assert.False(t, app.SessionManager.Exists(r.Context(), middleware.SessionAccessDeniedKey))
}

func TestRenderAccessDenied(t *testing.T) {
	app, _ := newTestApp(t)
	user := &models.User{ID: 3, Name: "Carla", Roles: []models.Role{models.RoleCliente}}
	r := newRequest(t, app, http.MethodGet, "/financeiro", nil, user)
	decision := app.Policy.Decide(access.Session{User: user}, "/financeiro")

	w := httptest.NewRecorder()
	app.RenderAccessDenied(w, r, decision)

	assert.Equal(t, http.StatusForbidden, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Acesso negado")
	assert.Contains(t, body, "Financeiro")
	assert.Contains(t, body, "Administrador")
	assert.Contains(t, body, "Cliente")
	assert.Contains(t, body, "/acesso-negado/voltar")
	assert.Contains(t, body, "/acesso-negado/inicio")
}

func TestRenderAccessDeniedWithoutRoles(t *testing.T) {
	app, _ := newTestApp(t)
	user := &models.User{ID: 4, Name: "Sem Função"}
	r := newRequest(t, app, http.MethodGet, "/dashboard", nil, user)

	w := httptest.NewRecorder()
	app.RenderAccessDenied(w, r, app.Policy.Decide(access.Session{User: user}, "/dashboard"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Nenhuma função atribuída")
}

func TestAccessDeniedExits(t *testing.T) {
	user := &models.User{ID: 3, Roles: []models.Role{models.RoleCliente}}

	tests := []struct {
		name     string
		navLast  string
		handler  func(*AppHandlers) http.HandlerFunc
		expected string
	}{
		{"voltar usa a última página", "/agenda?mes=2025-02", func(a *AppHandlers) http.HandlerFunc { return a.AccessDeniedBackHandler }, "/agenda?mes=2025-02"},
		{"voltar sem histórico", "", func(a *AppHandlers) http.HandlerFunc { return a.AccessDeniedBackHandler }, "/home"},
		{"voltar ignora destino externo", "//evil.example", func(a *AppHandlers) http.HandlerFunc { return a.AccessDeniedBackHandler }, "/home"},
		{"início", "/agenda", func(a *AppHandlers) http.HandlerFunc { return a.AccessDeniedHomeHandler }, "/home"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t)
			r := newRequest(t, app, http.MethodGet, "/acesso-negado/voltar", nil, user)
			if tt.navLast != "" {
				app.SessionManager.Put(r.Context(), middleware.SessionNavLastKey, tt.navLast)
			}
			app.SessionManager.Put(r.Context(), middleware.SessionAccessDeniedKey, "/financeiro")

			w := httptest.NewRecorder()
			tt.handler(app)(w, r)

			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, tt.expected, w.Header().Get("Location"))
			assert.False(t, app.SessionManager.Exists(r.Context(), middleware.SessionAccessDeniedKey))
			assert.Equal(t, "Você não tem permissão para acessar Financeiro.",
				app.SessionManager.GetString(r.Context(), middleware.SessionFlashErrorKey))
		})
	}
}

func TestAccessDeniedExitWithoutDenialHasNoNotice(t *testing.T) {
	app, _ := newTestApp(t)
	user := &models.User{ID: 3, Roles: []models.Role{models.RoleCliente}}
	r := newRequest(t, app, http.MethodGet, "/acesso-negado/inicio", nil, user)

	w := httptest.NewRecorder()
	app.AccessDeniedHomeHandler(w, r)

	assert.Equal(t, "/home", w.Header().Get("Location"))
	assert.False(t, app.SessionManager.Exists(r.Context(), middleware.SessionFlashErrorKey))
}

func TestRootHandler(t *testing.T) {
	app, _ := newTestApp(t)

	w := httptest.NewRecorder()
	app.RootHandler(w, newRequest(t, app, http.MethodGet, "/", nil, nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	app.RootHandler(w, newRequest(t, app, http.MethodGet, "/nao-existe", nil, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHomeShowsMenuForRole(t *testing.T) {
	app, _ := newTestApp(t)
	user := &models.User{ID: 3, Name: "Carla", Roles: []models.Role{models.RoleCliente}}

	w := httptest.NewRecorder()
	app.HomePageHandler(w, newRequest(t, app, http.MethodGet, "/home", nil, user))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `href="/agenda"`)
	assert.NotContains(t, body, `href="/financeiro"`)
	assert.NotContains(t, body, `href="/clientes"`)
}

func TestPermissionCategories(t *testing.T) {
	categories := PermissionCategories(access.DefaultPolicy)
	require.Len(t, categories, len(models.AllRoles))

	byRole := map[models.Role]PermissionCategory{}
	for _, c := range categories {
		byRole[c.Role] = c
		assert.NotEmpty(t, c.Description)
	}

	cliente := byRole[models.RoleCliente]
	require.Len(t, cliente.Routes, 2)
	assert.Equal(t, RouteAccess{Pattern: "/home", Name: "Início"}, cliente.Routes[0])
	assert.Equal(t, RouteAccess{Pattern: "/agenda", Name: "Agenda"}, cliente.Routes[1])

	assert.Len(t, byRole[models.RoleAdministrador].Routes, len(access.DefaultTable))
}

func TestCreateClient(t *testing.T) {
	app, store := newTestApp(t)
	user := &models.User{ID: 1, Roles: []models.Role{models.RoleUsuario}}
	form := url.Values{
		"name":  {"maria da silva"},
		"cpf":   {"529.982.247-25"},
		"phone": {"(11) 98765-4321"},
	}

	w := httptest.NewRecorder()
	app.CreateClientHandler(w, newRequest(t, app, http.MethodPost, "/clientes/novo", form, user))
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/clientes", w.Header().Get("Location"))
	require.Len(t, store.Clients, 1)
	for _, c := range store.Clients {
		assert.Equal(t, "52998224725", c.CPF)
		assert.Equal(t, "11987654321", c.Phone)
	}

	w = httptest.NewRecorder()
	app.CreateClientHandler(w, newRequest(t, app, http.MethodPost, "/clientes/novo", form, user))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Já existe um cliente com este CPF.")
}

func TestCreateClientInvalid(t *testing.T) {
	app, store := newTestApp(t)
	user := &models.User{ID: 1, Roles: []models.Role{models.RoleUsuario}}
	form := url.Values{"name": {"Maria"}, "cpf": {"111.111.111-11"}, "phone": {"123"}}

	w := httptest.NewRecorder()
	app.CreateClientHandler(w, newRequest(t, app, http.MethodPost, "/clientes/novo", form, user))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, store.Clients)
}

func TestCreateAppointment(t *testing.T) {
	app, store := newTestApp(t)
	user := &models.User{ID: 1, Roles: []models.Role{models.RoleUsuario}}
	form := url.Values{
		"title":      {"Avaliação"},
		"date":       {"2025-04-02"},
		"start_time": {"09:00"},
		"end_time":   {"09:45"},
		"price":      {"1.250,50"},
	}

	w := httptest.NewRecorder()
	app.CreateAppointmentHandler(w, newRequest(t, app, http.MethodPost, "/agenda", form, user))

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/agenda?mes=2025-04", w.Header().Get("Location"))
	require.Len(t, store.Appointments, 1)
	for _, a := range store.Appointments {
		assert.Equal(t, int64(125050), a.PriceCents)
		assert.Equal(t, int64(1), a.CreatedBy)
		assert.Equal(t, 45*time.Minute, a.EndsAt.Sub(a.StartsAt))
	}
}

func TestCreateAppointmentRejectsEndBeforeStart(t *testing.T) {
	app, store := newTestApp(t)
	user := &models.User{ID: 1, Roles: []models.Role{models.RoleAdministrador}}
	form := url.Values{
		"title":      {"Retorno"},
		"date":       {"2025-03-20"},
		"start_time": {"10:00"},
		"end_time":   {"09:00"},
	}

	w := httptest.NewRecorder()
	app.CreateAppointmentHandler(w, newRequest(t, app, http.MethodPost, "/agenda", form, user))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "O término deve ser depois do início.")
	assert.Empty(t, store.Appointments)
}

func TestAppointmentFromFormPrice(t *testing.T) {
	form := models.AppointmentForm{Title: "x", Date: "2025-03-20", StartTime: "10:00", EndTime: "11:00", Price: "10,"}
	_, problems := appointmentFromForm(form, time.UTC)
	assert.Contains(t, problems, "price")

	form.Price = "R$ 80"
	a, problems := appointmentFromForm(form, time.UTC)
	assert.Empty(t, problems)
	assert.Equal(t, int64(8000), a.PriceCents)
}

func TestDeleteAppointment(t *testing.T) {
	app, store := newTestApp(t)
	user := &models.User{ID: 1, Roles: []models.Role{models.RoleAdministrador}}
	id, err := store.CreateAppointment(t.Context(), &models.Appointment{Title: "x", StartsAt: fixedNow, EndsAt: fixedNow.Add(time.Hour)})
	require.NoError(t, err)

	r := newRequest(t, app, http.MethodPost, "/agenda/"+id+"/excluir", url.Values{"mes": {"2025-03"}}, user)
	r.SetPathValue("id", id)
	w := httptest.NewRecorder()
	app.DeleteAppointmentHandler(w, r)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/agenda?mes=2025-03", w.Header().Get("Location"))
	assert.Empty(t, store.Appointments)
	assert.Equal(t, "Agendamento excluído.", app.SessionManager.GetString(r.Context(), middleware.SessionFlashSuccessKey))
}

func TestChangePasswordChecksCurrent(t *testing.T) {
	app, store := newTestApp(t)
	id := store.AddUser("ana@clinica.com.br", "Senha@2025", models.RoleUsuario)
	user, err := store.GetUserByID(t.Context(), id)
	require.NoError(t, err)

	form := url.Values{
		"current_password":     {"outra"},
		"new_password":         {"Nova@Senha1"},
		"confirm_new_password": {"Nova@Senha1"},
	}
	w := httptest.NewRecorder()
	app.ChangePasswordHandler(w, newRequest(t, app, http.MethodPost, "/perfil/senha", form, user))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	form.Set("current_password", "Senha@2025")
	w = httptest.NewRecorder()
	app.ChangePasswordHandler(w, newRequest(t, app, http.MethodPost, "/perfil/senha", form, user))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	updated, err := store.GetUserByID(t.Context(), id)
	require.NoError(t, err)
	assert.NotEqual(t, user.PasswordHash, updated.PasswordHash)
}

func TestPageParam(t *testing.T) {
	tests := map[string]int{
		"":                     1,
		"abc":                  1,
		"-3":                   1,
		"0":                    1,
		"7":                    7,
		"100001":               MaxPage,
		"9223372036854775807":  MaxPage,
		"99999999999999999999": 1,
	}
	for raw, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/clientes?page="+raw, nil)
		assert.Equal(t, want, PageParam(r), raw)
	}
}

func TestClientsListHugePage(t *testing.T) {
	app, store := newTestApp(t)
	user := &models.User{ID: 1, Roles: []models.Role{models.RoleUsuario}}
	_, err := store.CreateClient(t.Context(), &models.Client{Name: "Maria", CPF: "52998224725", Phone: "11987654321"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	app.ClientsListPageHandler(w, newRequest(t, app, http.MethodGet, "/clientes?page=9223372036854775807", nil, user))
	assert.Equal(t, http.StatusOK, w.Code)
}
