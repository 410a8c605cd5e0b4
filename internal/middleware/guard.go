// internal/middleware/guard.go
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"clinica-admin.com.br/internal/access"
	"clinica-admin.com.br/internal/metrics"
	"clinica-admin.com.br/internal/models"
)

// DenialRenderer desenha a tela de acesso negado dentro do layout.
type DenialRenderer func(w http.ResponseWriter, r *http.Request, d access.Decision)

// RequireRouteAccess aplica a política de funções à rota registrada. Deve
// rodar depois de RequireAuthentication. Os requisitos vêm do padrão route,
// nunca do caminho decodificado. Negado: a tela de bloqueio é
// renderizada no lugar da página, com status 403, e o caminho fica guardado
// em SessionAccessDeniedKey até uma das saídas ser usada.
func RequireRouteAccess(sessionManager *scs.SessionManager, policy *access.Policy, route string, deny DenialRenderer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			decision := policy.DecideRoute(SessionFromContext(ctx), RoutePattern(route), r.URL.Path)
			metrics.ObserveAccessDecision(route, decision.Outcome.String())

			switch decision.Outcome {
			case access.OutcomeAuthorized:
				if r.Method == http.MethodGet {
					sessionManager.Put(ctx, SessionNavLastKey, r.URL.RequestURI())
					sessionManager.Remove(ctx, SessionAccessDeniedKey)
				}
				next.ServeHTTP(w, r)
			case access.OutcomeUnauthorized:
				slog.Warn("Acesso negado por função",
					"path", decision.Path, "required", decision.Required, "held", decision.Held)
				sessionManager.Put(ctx, SessionAccessDeniedKey, decision.Path)
				deny(w, r, decision)
			default:
				http.Redirect(w, r, "/login", http.StatusSeeOther)
			}
		})
	}
}

// RoutePattern remove o método de um padrão do ServeMux: "GET /x/{id}" -> "/x/{id}".
func RoutePattern(route string) string {
	if i := strings.IndexByte(route, ' '); i >= 0 {
		return strings.TrimSpace(route[i+1:])
	}
	return route
}

// RequireRole restringe ações (formulários POST) a quem tem uma das funções.
// Diferente do guarda de rotas, responde apenas com 403.
func RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if !sess.Authenticated() {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !access.HasAccess(sess.Roles(), allowed) {
				slog.Warn("Ação negada: função insuficiente",
					"userID", sess.User.ID, "roles", sess.User.Roles, "required", allowed, "path", r.URL.Path)
				http.Error(w, "Você não tem permissão para executar esta ação.", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
