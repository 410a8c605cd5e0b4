package router

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

	"clinica-admin.com.br/internal/config"
	"clinica-admin.com.br/internal/handlers"
	"clinica-admin.com.br/internal/middleware"
	"clinica-admin.com.br/internal/models"
	"clinica-admin.com.br/internal/testutil"
)

const testPassword = "Senha@2025"

func noCSRF(next http.Handler) http.Handler {
	return next
}

func newTestRouter(t *testing.T) (*Router, *testutil.MemoryStore) {
	t.Helper()
	cfg := &config.Config{
		SiteName:      "Clínica Teste",
		ClinicName:    "Clínica Teste",
		TemplatesPath: "../../templates",
		StaticPath:    "../../static",
		Metrics:       config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	sm := scs.New()
	store := testutil.NewMemoryStore()
	app, err := handlers.NewAppHandlers(cfg, sm, store, nil)
	require.NoError(t, err)
	app.Now = func() time.Time { return time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC) }

	rt := New(Deps{
		Config:       cfg,
		Sessions:     sm,
		App:          app,
		Users:        store,
		LoginLimiter: middleware.NewIPRateLimiter(100, 100),
		CSRF:         noCSRF,
	})
	return rt, store
}

// browser guarda o cookie de sessão entre pedidos.
type browser struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, h http.Handler) *browser {
	return &browser{t: t, h: h, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var r *http.Request
	if form != nil {
		r = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	for _, c := range b.cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	b.h.ServeHTTP(w, r)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return w
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, target, nil)
}

func (b *browser) login(email string) {
	b.t.Helper()
	w := b.do(http.MethodPost, "/login", url.Values{"email": {email}, "password": {testPassword}})
	require.Equal(b.t, http.StatusSeeOther, w.Code)
	require.Equal(b.t, "/home", w.Header().Get("Location"))
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	rt, _ := newTestRouter(t)
	b := newBrowser(t, rt)

	for _, target := range []string{"/home", "/financeiro", "/clientes/3/editar", "/perfil", "/acesso-negado/voltar"} {
		w := b.get(target)
		assert.Equal(t, http.StatusSeeOther, w.Code, target)
		assert.Equal(t, "/login", w.Header().Get("Location"), target)
	}

	assert.Equal(t, http.StatusOK, b.get("/login").Code)
}

func TestClienteDeniedInPlace(t *testing.T) {
	rt, store := newTestRouter(t)
	store.AddUser("carla@clinica.com.br", testPassword, models.RoleCliente)
	b := newBrowser(t, rt)
	b.login("carla@clinica.com.br")

	require.Equal(t, http.StatusOK, b.get("/agenda?mes=2025-02").Code)

	w := b.get("/financeiro")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
	body := w.Body.String()
	assert.Contains(t, body, "Acesso negado")
	assert.Contains(t, body, "Financeiro")
	assert.Contains(t, body, "Administrador")

	w = b.get("/acesso-negado/voltar")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/agenda?mes=2025-02", w.Header().Get("Location"))
	assert.Contains(t, b.get("/agenda?mes=2025-02").Body.String(), "Você não tem permissão para acessar Financeiro.")

	assert.Equal(t, http.StatusForbidden, b.get("/clientes/7/editar").Code)
	w = b.get("/acesso-negado/inicio")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))
}

func TestEncodedSlashInParameterStillDenied(t *testing.T) {
	rt, store := newTestRouter(t)
	store.AddUser("carla@clinica.com.br", testPassword, models.RoleCliente)
	b := newBrowser(t, rt)
	b.login("carla@clinica.com.br")
	require.Equal(t, http.StatusOK, b.get("/agenda").Code)

	for _, target := range []string{"/permissions/Administrador%2Fx", "/clientes/7%2Fx/editar", "/usuarios/1%2F2/editar"} {
		w := b.get(target)
		assert.Equal(t, http.StatusForbidden, w.Code, target)
		assert.Contains(t, w.Body.String(), "Acesso negado", target)
	}

	w := b.get("/acesso-negado/voltar")
	assert.Equal(t, "/agenda", w.Header().Get("Location"))
}

func TestDeniedPathDoesNotBecomeBackTarget(t *testing.T) {
	rt, store := newTestRouter(t)
	store.AddUser("carla@clinica.com.br", testPassword, models.RoleCliente)
	b := newBrowser(t, rt)
	b.login("carla@clinica.com.br")

	require.Equal(t, http.StatusOK, b.get("/home").Code)
	require.Equal(t, http.StatusForbidden, b.get("/dashboard").Code)
	require.Equal(t, http.StatusForbidden, b.get("/usuarios").Code)

	w := b.get("/acesso-negado/voltar")
	assert.Equal(t, "/home", w.Header().Get("Location"))
}

func TestAdministratorReachesEverything(t *testing.T) {
	rt, store := newTestRouter(t)
	store.AddUser("ana@clinica.com.br", testPassword, models.RoleAdministrador)
	b := newBrowser(t, rt)
	b.login("ana@clinica.com.br")

	for _, target := range []string{"/home", "/dashboard", "/clientes", "/clientes/novo", "/agenda", "/financeiro", "/relatorios", "/permissions", "/permissions/Cliente", "/usuarios", "/usuarios/1/editar", "/perfil"} {
		assert.Equal(t, http.StatusOK, b.get(target).Code, target)
	}
	assert.Equal(t, http.StatusNotFound, b.get("/permissions/Gerente").Code)
}

func TestMenuFollowsRoles(t *testing.T) {
	rt, store := newTestRouter(t)
	store.AddUser("carla@clinica.com.br", testPassword, models.RoleCliente)
	store.AddUser("bruno@clinica.com.br", testPassword, models.RoleUsuario)

	cliente := newBrowser(t, rt)
	cliente.login("carla@clinica.com.br")
	body := cliente.get("/home").Body.String()
	assert.Contains(t, body, `href="/agenda"`)
	assert.Contains(t, body, `href="/perfil"`)
	assert.NotContains(t, body, `href="/clientes"`)
	assert.NotContains(t, body, `href="/financeiro"`)

	usuario := newBrowser(t, rt)
	usuario.login("bruno@clinica.com.br")
	body = usuario.get("/home").Body.String()
	assert.Contains(t, body, `href="/clientes"`)
	assert.Contains(t, body, `href="/dashboard"`)
	assert.NotContains(t, body, `href="/usuarios"`)
}

func TestScheduleActionsNeedStaff(t *testing.T) {
	rt, store := newTestRouter(t)
	store.AddUser("carla@clinica.com.br", testPassword, models.RoleCliente)
	store.AddUser("bruno@clinica.com.br", testPassword, models.RoleUsuario)
	form := url.Values{"title": {"Consulta"}, "date": {"2025-03-20"}, "start_time": {"14:00"}, "end_time": {"15:00"}}

	cliente := newBrowser(t, rt)
	cliente.login("carla@clinica.com.br")
	assert.Equal(t, http.StatusForbidden, cliente.do(http.MethodPost, "/agenda", form).Code)
	assert.Empty(t, store.Appointments)

	usuario := newBrowser(t, rt)
	usuario.login("bruno@clinica.com.br")
	w := usuario.do(http.MethodPost, "/agenda", form)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/agenda?mes=2025-03", w.Header().Get("Location"))
	assert.Len(t, store.Appointments, 1)
}

func TestLoggedInUserSkipsLoginPage(t *testing.T) {
	rt, store := newTestRouter(t)
	store.AddUser("ana@clinica.com.br", testPassword, models.RoleAdministrador)
	b := newBrowser(t, rt)
	b.login("ana@clinica.com.br")

	w := b.get("/login")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))

	w = b.get("/")
	assert.Equal(t, "/home", w.Header().Get("Location"))
}

func TestLogoutEndsSession(t *testing.T) {
	rt, store := newTestRouter(t)
	store.AddUser("ana@clinica.com.br", testPassword, models.RoleAdministrador)
	b := newBrowser(t, rt)
	b.login("ana@clinica.com.br")

	w := b.do(http.MethodPost, "/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = b.get("/home")
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestSessionLoadingFailure(t *testing.T) {
	rt, store := newTestRouter(t)
	store.AddUser("ana@clinica.com.br", testPassword, models.RoleAdministrador)
	b := newBrowser(t, rt)
	b.login("ana@clinica.com.br")

	store.Err = assert.AnError
	assert.Equal(t, http.StatusServiceUnavailable, b.get("/home").Code)
}

func TestAuditReportsUnmappedRoutes(t *testing.T) {
	rt, _ := newTestRouter(t)
	assert.Equal(t, []string{"/perfil", "/perfil/senha"}, rt.Audit())
	assert.Contains(t, rt.Protected(), "/clientes/{id}/editar")
	assert.Contains(t, rt.Protected(), "/agenda/{id}/excluir")
}

func TestPublicEndpoints(t *testing.T) {
	rt, _ := newTestRouter(t)
	b := newBrowser(t, rt)

	w := b.get("/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	assert.Equal(t, http.StatusOK, b.get("/static/css/app.css").Code)
	assert.Equal(t, http.StatusNotFound, b.get("/nao-existe").Code)

	w = b.get("/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "clinica_http_requests_total")
}

