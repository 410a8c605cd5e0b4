// internal/handlers/profile.go
package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"clinica-admin.com.br/internal/auth"
	"clinica-admin.com.br/internal/middleware"
	"clinica-admin.com.br/internal/models"
	"clinica-admin.com.br/internal/validation"
)

const profilePath = "/perfil"

func (h *AppHandlers) profilePage(r *http.Request) *PageData {
	data := h.NewPageData(r)
	data.PageTitle = "Meu perfil"
	if data.User != nil {
		data.FormValues.Set("name", data.User.Name)
		if data.User.AvatarURL != nil {
			data.FormValues.Set("avatar_url", *data.User.AvatarURL)
		}
	}
	return data
}

func (h *AppHandlers) ProfilePageHandler(w http.ResponseWriter, r *http.Request) {
	h.RenderPage(w, r, "profile.html", h.profilePage(r))
}

// UpdateProfileHandler grava nome e avatar. Erros de validação reexibem o
// formulário com 422.
func (h *AppHandlers) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := middleware.SessionFromContext(r.Context()).User
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Requisição inválida", http.StatusBadRequest)
		return
	}
	form := models.ProfileUpdateForm{
		Name:      strings.TrimSpace(r.PostForm.Get("name")),
		AvatarURL: strings.TrimSpace(r.PostForm.Get("avatar_url")),
	}
	if errs := validation.ValidateStruct(form); errs != nil {
		slog.Warn("Erros de validação no perfil", "userID", user.ID, "errors", errs)
		data := h.profilePage(r)
		data.FormValues = r.PostForm
		data.Errors = errs
		data.StatusCode = http.StatusUnprocessableEntity
		h.RenderPage(w, r, "profile.html", data)
		return
	}

	var avatar *string
	if form.AvatarURL != "" {
		avatar = &form.AvatarURL
	}
	if err := h.Store.UpdateUserProfile(r.Context(), user.ID, auth.SanitizeName(form.Name), avatar); err != nil {
		slog.Error("Erro ao atualizar perfil", "userID", user.ID, "error", err)
		h.flash(r, middleware.SessionFlashErrorKey, "Não foi possível atualizar o perfil. Tente novamente.")
	} else {
		slog.Info("Perfil atualizado", "userID", user.ID)
		h.flash(r, middleware.SessionFlashSuccessKey, "Perfil atualizado com sucesso!")
	}
	http.Redirect(w, r, profilePath, http.StatusSeeOther)
}

func (h *AppHandlers) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	user := middleware.SessionFromContext(r.Context()).User
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Requisição inválida", http.StatusBadRequest)
		return
	}
	form := models.PasswordChangeForm{
		CurrentPassword:    r.PostForm.Get("current_password"),
		NewPassword:        r.PostForm.Get("new_password"),
		ConfirmNewPassword: r.PostForm.Get("confirm_new_password"),
	}

	errs := validation.ValidateStruct(form)
	if errs == nil {
		errs = url.Values{}
	}
	if form.CurrentPassword != "" && !auth.CheckPasswordHash(form.CurrentPassword, user.PasswordHash) {
		errs.Set("current_password", "A senha atual está incorreta.")
	}
	if len(errs) > 0 {
		slog.Warn("Troca de senha recusada", "userID", user.ID, "fields", len(errs))
		data := h.profilePage(r)
		data.PasswordErrors = errs
		data.StatusCode = http.StatusUnprocessableEntity
		h.RenderPage(w, r, "profile.html", data)
		return
	}

	hash, err := auth.HashPassword(form.NewPassword)
	if err != nil {
		h.serverError(w, r, "Erro ao gerar hash da nova senha", err)
		return
	}
	if err = h.Store.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		slog.Error("Erro ao atualizar senha", "userID", user.ID, "error", err)
		h.flash(r, middleware.SessionFlashErrorKey, "Não foi possível alterar a senha. Tente novamente.")
	} else {
		slog.Info("Senha alterada", "userID", user.ID)
		h.flash(r, middleware.SessionFlashSuccessKey, "Senha alterada com sucesso!")
	}
	http.Redirect(w, r, profilePath, http.StatusSeeOther)
}
