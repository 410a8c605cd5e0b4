// internal/handlers/admin/permissions.go
package adminhandlers

import (
	"errors"
	"log/slog"
	"net/http"

	"clinica-admin.com.br/internal/handlers"
	"clinica-admin.com.br/internal/models"
)

// PermissionsPageHandler lista cada função com as rotas que ela alcança.
func PermissionsPageHandler(app *handlers.AppHandlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := app.NewPageData(r)
		data.PageTitle = "Permissões"
		data.Permissions = handlers.PermissionCategories(app.Policy)
		app.RenderPage(w, r, "permissions.html", data)
	}
}

// PermissionDetailPageHandler detalha uma função e lista seus usuários.
// Nome desconhecido responde 404.
func PermissionDetailPageHandler(app *handlers.AppHandlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := models.ParseRole(r.PathValue("permissionName"))
		if err != nil {
			if errors.Is(err, models.ErrUnknownRole) {
				slog.Debug("Permissão desconhecida solicitada", "name", r.PathValue("permissionName"))
			}
			app.NotFoundHandler(w, r)
			return
		}

		category := handlers.PermissionCategoryFor(app.Policy, role)
		users, err := app.Store.ListUsersByRole(r.Context(), role)
		if err != nil {
			slog.Error("Erro ao listar usuários da função", "role", role, "error", err)
			http.Error(w, "Erro ao carregar a permissão", http.StatusInternalServerError)
			return
		}
		category.Users = users

		data := app.NewPageData(r)
		data.PageTitle = "Permissão: " + role.String()
		data.Permission = &category
		app.RenderPage(w, r, "permission_detail.html", data)
	}
}
