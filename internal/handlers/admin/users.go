// internal/handlers/admin/users.go
package adminhandlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"clinica-admin.com.br/internal/db"
	"clinica-admin.com.br/internal/handlers"
	"clinica-admin.com.br/internal/middleware"
	"clinica-admin.com.br/internal/models"
	"clinica-admin.com.br/internal/validation"
)

const DefaultUsersPerPage = 20

// UsersListPageHandler lista os usuários com paginação.
func UsersListPageHandler(app *handlers.AppHandlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := app.NewPageData(r)
		data.PageTitle = "Usuários"

		page := handlers.PageParam(r)
		limit := DefaultUsersPerPage
		users, total, err := app.Store.ListUsers(r.Context(), limit, (page-1)*limit)
		if err != nil {
			slog.Error("Não foi possível listar usuários", "error", err)
			http.Error(w, "Erro ao carregar usuários", http.StatusInternalServerError)
			return
		}
		data.Users = users
		data.Pagination = handlers.NewPagination(page, limit, total, "")
		app.RenderPage(w, r, "users_list.html", data)
	}
}

func loadEditingUser(app *handlers.AppHandlers, w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || userID <= 0 {
		app.NotFoundHandler(w, r)
		return nil, false
	}
	user, err := app.Store.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			app.NotFoundHandler(w, r)
			return nil, false
		}
		slog.Error("Erro ao carregar usuário para edição", "userID", userID, "error", err)
		http.Error(w, "Erro ao carregar usuário", http.StatusInternalServerError)
		return nil, false
	}
	return user, true
}

func editUserPage(app *handlers.AppHandlers, r *http.Request, user *models.User) *handlers.PageData {
	data := app.NewPageData(r)
	data.PageTitle = fmt.Sprintf("Edição de usuário: %s", user.DisplayName())
	data.EditingUser = user
	data.AllRoles = models.AllRoles
	data.FormAction = fmt.Sprintf("/usuarios/%d/editar", user.ID)
	return data
}

// EditUserPageHandler mostra o formulário de funções do usuário.
func EditUserPageHandler(app *handlers.AppHandlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := loadEditingUser(app, w, r)
		if !ok {
			return
		}
		app.RenderPage(w, r, "user_edit.html", editUserPage(app, r, user))
	}
}

// UpdateUserRolesHandler substitui as funções do usuário. Um administrador
// não pode remover a própria função de Administrador.
func UpdateUserRolesHandler(app *handlers.AppHandlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := loadEditingUser(app, w, r)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Requisição inválida", http.StatusBadRequest)
			return
		}

		form := models.UserRolesForm{Roles: r.PostForm["roles"]}
		errs := validation.ValidateStruct(form)

		var roles []models.Role
		if errs == nil {
			for _, name := range form.Roles {
				role, _ := models.ParseRole(name)
				roles = append(roles, role)
			}
			current := middleware.SessionFromContext(r.Context()).User
			if current != nil && current.ID == user.ID && !models.NewRoleSet(roles...).Has(models.RoleAdministrador) {
				errs = url.Values{"roles": {"Você não pode remover a sua própria função de Administrador."}}
			}
		}
		if errs != nil {
			slog.Warn("Alteração de funções recusada", "targetUserID", user.ID, "errors", errs)
			data := editUserPage(app, r, user)
			data.Errors = errs
			data.StatusCode = http.StatusUnprocessableEntity
			app.RenderPage(w, r, "user_edit.html", data)
			return
		}

		if err := app.Store.SetUserRoles(r.Context(), user.ID, roles); err != nil {
			slog.Error("Erro ao salvar funções do usuário", "targetUserID", user.ID, "error", err)
			app.SessionManager.Put(r.Context(), middleware.SessionFlashErrorKey, "Não foi possível salvar as funções.")
			http.Redirect(w, r, fmt.Sprintf("/usuarios/%d/editar", user.ID), http.StatusSeeOther)
			return
		}
		slog.Info("Funções alteradas pelo administrador",
			"adminUserID", middleware.SessionFromContext(r.Context()).User.ID,
			"targetUserID", user.ID, "roles", roles)
		app.SessionManager.Put(r.Context(), middleware.SessionFlashSuccessKey, "Funções atualizadas.")
		http.Redirect(w, r, "/usuarios", http.StatusSeeOther)
	}
}
