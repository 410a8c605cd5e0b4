// internal/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"clinica-admin.com.br/internal/access"
	"clinica-admin.com.br/internal/db"
	"clinica-admin.com.br/internal/models"
)

type contextKey string

const sessionContextKey contextKey = "accessSession"

// Chaves usadas na sessão scs.
const (
	SessionUserIDKey       = "userID"
	SessionNavLastKey      = "nav_last"
	SessionAccessDeniedKey = "access_denied"
	SessionFlashSuccessKey = "flash_success"
	SessionFlashErrorKey   = "flash_error"
)

// UserLoader resolve o usuário guardado na sessão.
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// SessionFromContext devolve a sessão montada por InjectSession; sem ela,
// a sessão é anônima.
func SessionFromContext(ctx context.Context) access.Session {
	sess, _ := ctx.Value(sessionContextKey).(access.Session)
	return sess
}

func WithSession(ctx context.Context, sess access.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// InjectSession carrega o usuário da sessão e coloca um access.Session no
// contexto. Usuário removido do banco encerra a sessão; falha de leitura
// deixa a sessão em estado Loading.
func InjectSession(sessionManager *scs.SessionManager, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var sess access.Session

			userID := sessionManager.GetInt64(ctx, SessionUserIDKey)
			if userID != 0 {
				user, err := users.GetUserByID(ctx, userID)
				switch {
				case err == nil:
					sess.User = user
				case errors.Is(err, db.ErrNotFound):
					slog.Warn("Usuário da sessão não existe mais, sessão encerrada", "userID", userID)
					sessionManager.Remove(ctx, SessionUserIDKey)
				default:
					slog.Error("Erro ao carregar o usuário da sessão", "userID", userID, "error", err)
					sess.Loading = true
				}
			}

			next.ServeHTTP(w, r.WithContext(WithSession(ctx, sess)))
		})
	}
}

// RequireAuthentication redireciona para /login quem não está autenticado.
// Roda antes de qualquer verificação de função.
func RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess.Loading {
			http.Error(w, "Não foi possível carregar sua sessão. Tente novamente em instantes.", http.StatusServiceUnavailable)
			return
		}
		if !sess.Authenticated() {
			slog.Debug("Acesso sem autenticação redirecionado para o login", "path", r.URL.Path)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedirectAuthenticated manda para /home quem já está logado (página de login).
func RedirectAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromContext(r.Context()).Authenticated() {
			http.Redirect(w, r, "/home", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
