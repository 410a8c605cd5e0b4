// internal/handlers/access.go
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"clinica-admin.com.br/internal/access"
	"clinica-admin.com.br/internal/middleware"
)

const homePath = "/home"

// RenderAccessDenied desenha a tela de bloqueio no lugar da página pedida.
// Satisfaz middleware.DenialRenderer.
func (h *AppHandlers) RenderAccessDenied(w http.ResponseWriter, r *http.Request, d access.Decision) {
	data := h.NewPageData(r)
	data.PageTitle = "Acesso negado"
	data.Denied = &d
	data.StatusCode = http.StatusForbidden
	h.RenderPage(w, r, "access_denied.html", data)
}

// leaveDenial encerra o estado de bloqueio. A página recusada volta como aviso
// no destino da saída.
func (h *AppHandlers) leaveDenial(r *http.Request, exit, target string) {
	ctx := r.Context()
	denied := h.SessionManager.PopString(ctx, middleware.SessionAccessDeniedKey)
	if denied == "" {
		slog.Debug("Saída da tela de acesso negado sem bloqueio ativo", "exit", exit, "target", target)
		return
	}
	slog.Info("Saída da tela de acesso negado", "exit", exit, "denied_path", denied, "target", target)
	h.flash(r, middleware.SessionFlashErrorKey,
		fmt.Sprintf("Você não tem permissão para acessar %s.", h.Policy.Names.DisplayName(denied)))
}

// AccessDeniedBackHandler volta para a última página visitada com acesso.
func (h *AppHandlers) AccessDeniedBackHandler(w http.ResponseWriter, r *http.Request) {
	target := h.SessionManager.GetString(r.Context(), middleware.SessionNavLastKey)
	if !isLocalPath(target) {
		target = homePath
	}
	h.leaveDenial(r, "voltar", target)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// AccessDeniedHomeHandler leva para a página inicial fixa.
func (h *AppHandlers) AccessDeniedHomeHandler(w http.ResponseWriter, r *http.Request) {
	h.leaveDenial(r, "inicio", homePath)
	http.Redirect(w, r, homePath, http.StatusSeeOther)
}

func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, "\\")
}
