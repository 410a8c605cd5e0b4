// internal/middleware/csrf.go
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/justinas/nosurf"
)

// CSRF protege todos os formulários com nosurf. O token fica disponível para
// os templates via nosurf.Token(r).
func CSRF(isProduction bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		csrfHandler := nosurf.New(next)
		csrfHandler.SetBaseCookie(http.Cookie{
			HttpOnly: true,
			Path:     "/",
			Secure:   isProduction,
			SameSite: http.SameSiteLaxMode,
		})
		csrfHandler.ExemptPath("/healthz")
		csrfHandler.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slog.Warn("Falha na verificação do token CSRF", "path", r.URL.Path, "method", r.Method, "reason", nosurf.Reason(r))
			http.Error(w, "Erro de segurança: token CSRF inválido ou ausente. Recarregue a página e tente novamente.", http.StatusForbidden)
		}))
		return csrfHandler
	}
}
