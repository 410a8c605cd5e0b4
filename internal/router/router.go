// internal/router/router.go
package router

import (
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
	chimw "github.com/go-chi/chi/v5/middleware"

	"clinica-admin.com.br/internal/access"
	"clinica-admin.com.br/internal/config"
	"clinica-admin.com.br/internal/handlers"
	adminhandlers "clinica-admin.com.br/internal/handlers/admin"
	"clinica-admin.com.br/internal/metrics"
	"clinica-admin.com.br/internal/middleware"
)

// Deps são as dependências explícitas do roteador.
type Deps struct {
	Config       *config.Config
	Sessions     *scs.SessionManager
	App          *handlers.AppHandlers
	Users        middleware.UserLoader
	Policy       *access.Policy
	LoginLimiter *middleware.IPRateLimiter
	// CSRF envolve todo o tráfego; nil usa nosurf com a configuração do app.
	CSRF func(http.Handler) http.Handler
}

// Router é o http.Handler do painel e guarda os padrões protegidos para auditoria.
type Router struct {
	handler   http.Handler
	policy    *access.Policy
	protected []string
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.handler.ServeHTTP(w, r)
}

// Protected devolve os caminhos protegidos registrados, sem método, sem repetição.
func (rt *Router) Protected() []string {
	return append([]string(nil), rt.protected...)
}

// Audit registra um aviso para cada rota protegida sem entrada na tabela de
// permissões. Essas rotas ficam liberadas para qualquer usuário autenticado.
func (rt *Router) Audit() []string {
	missing := rt.policy.Table.Unmapped(rt.protected)
	for _, p := range missing {
		slog.Warn("Rota protegida sem entrada na tabela de permissões; liberada para qualquer usuário autenticado", "path", p)
	}
	return missing
}

func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func New(d Deps) *Router {
	policy := d.Policy
	if policy == nil {
		policy = access.DefaultPolicy
	}
	app := d.App
	sm := d.Sessions
	rt := &Router{policy: policy}
	seen := map[string]bool{}

	mux := http.NewServeMux()

	// protect compõe autenticação -> guarda de rota -> extras -> handler.
	protect := func(pattern string, h http.Handler, extra ...func(http.Handler) http.Handler) {
		p := middleware.RoutePattern(pattern)
		if !seen[p] {
			seen[p] = true
			rt.protected = append(rt.protected, p)
		}
		mws := []func(http.Handler) http.Handler{
			middleware.RequireAuthentication,
			middleware.RequireRouteAccess(sm, policy, pattern, app.RenderAccessDenied),
		}
		mux.Handle(pattern, chain(h, append(mws, extra...)...))
	}
	staffOnly := middleware.RequireRole(handlers.ScheduleEditors...)

	// Públicas
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(d.Config.StaticPath))))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if d.Config.Metrics.Enabled {
		mux.Handle("GET "+d.Config.Metrics.Path, metrics.Handler())
	}
	loginPost := http.Handler(http.HandlerFunc(app.LoginHandler))
	if d.LoginLimiter != nil {
		loginPost = d.LoginLimiter.Limit(loginPost)
	}
	mux.Handle("GET /login", middleware.RedirectAuthenticated(http.HandlerFunc(app.LoginPageHandler)))
	mux.Handle("POST /login", middleware.RedirectAuthenticated(loginPost))
	mux.Handle("POST /logout", middleware.RequireAuthentication(http.HandlerFunc(app.LogoutHandler)))
	mux.HandleFunc("/", app.RootHandler)

	// Saídas da tela de acesso negado: só exigem login.
	mux.Handle("GET /acesso-negado/voltar", middleware.RequireAuthentication(http.HandlerFunc(app.AccessDeniedBackHandler)))
	mux.Handle("GET /acesso-negado/inicio", middleware.RequireAuthentication(http.HandlerFunc(app.AccessDeniedHomeHandler)))

	// Protegidas
	protect("GET /home", http.HandlerFunc(app.HomePageHandler))
	protect("GET /dashboard", http.HandlerFunc(app.DashboardPageHandler))

	protect("GET /clientes", http.HandlerFunc(app.ClientsListPageHandler))
	protect("GET /clientes/novo", http.HandlerFunc(app.NewClientPageHandler))
	protect("POST /clientes/novo", http.HandlerFunc(app.CreateClientHandler))
	protect("GET /clientes/{id}/editar", http.HandlerFunc(app.EditClientPageHandler))
	protect("POST /clientes/{id}/editar", http.HandlerFunc(app.UpdateClientHandler))

	protect("GET /agenda", http.HandlerFunc(app.SchedulePageHandler))
	protect("POST /agenda", http.HandlerFunc(app.CreateAppointmentHandler), staffOnly)
	protect("POST /agenda/{id}/excluir", http.HandlerFunc(app.DeleteAppointmentHandler), staffOnly)

	protect("GET /financeiro", adminhandlers.FinancePageHandler(app))
	protect("GET /relatorios", adminhandlers.ReportsPageHandler(app))
	protect("GET /permissions", adminhandlers.PermissionsPageHandler(app))
	protect("GET /permissions/{permissionName}", adminhandlers.PermissionDetailPageHandler(app))
	protect("GET /usuarios", adminhandlers.UsersListPageHandler(app))
	protect("GET /usuarios/{id}/editar", adminhandlers.EditUserPageHandler(app))
	protect("POST /usuarios/{id}/editar", adminhandlers.UpdateUserRolesHandler(app))

	protect("GET /perfil", http.HandlerFunc(app.ProfilePageHandler))
	protect("POST /perfil", http.HandlerFunc(app.UpdateProfileHandler))
	protect("POST /perfil/senha", http.HandlerFunc(app.ChangePasswordHandler))

	csrf := d.CSRF
	if csrf == nil {
		csrf = middleware.CSRF(d.Config.IsProduction())
	}

	// metrics.Middleware envolve o mux diretamente para enxergar r.Pattern.
	rt.handler = chain(mux,
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		sm.LoadAndSave,
		csrf,
		middleware.InjectSession(sm, d.Users),
		metrics.Middleware,
	)
	return rt
}
