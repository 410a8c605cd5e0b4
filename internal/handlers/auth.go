// internal/handlers/auth.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"clinica-admin.com.br/internal/auth"
	"clinica-admin.com.br/internal/db"
	"clinica-admin.com.br/internal/metrics"
	"clinica-admin.com.br/internal/middleware"
	"clinica-admin.com.br/internal/models"
	"clinica-admin.com.br/internal/validation"
)

func (h *AppHandlers) LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Entrar"
	h.RenderPage(w, r, "login.html", data)
}

func (h *AppHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.Error("Erro ao ler o formulário de login", "error", err)
		http.Error(w, "Requisição inválida", http.StatusBadRequest)
		return
	}
	form := models.LoginForm{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	renderError := func(status int, field, msg string) {
		data := h.NewPageData(r)
		data.PageTitle = "Entrar"
		data.FormValues.Set("email", form.Email)
		if msg != "" {
			data.Errors.Add(field, msg)
		}
		data.StatusCode = status
		h.RenderPage(w, r, "login.html", data)
	}

	if errs := validation.ValidateStruct(form); errs != nil {
		data := h.NewPageData(r)
		data.PageTitle = "Entrar"
		data.FormValues.Set("email", form.Email)
		data.Errors = errs
		data.StatusCode = http.StatusBadRequest
		h.RenderPage(w, r, "login.html", data)
		return
	}

	user, err := h.Store.GetUserByEmail(r.Context(), form.Email)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		slog.Error("Erro ao buscar usuário no login", "email", form.Email, "error", err)
		metrics.ObserveLogin("error")
		renderError(http.StatusInternalServerError, "general", "Erro no servidor ao entrar. Tente novamente.")
		return
	}
	if user == nil || !auth.CheckPasswordHash(form.Password, user.PasswordHash) {
		slog.Warn("Tentativa de login inválida", "email", form.Email)
		metrics.ObserveLogin("invalid")
		renderError(http.StatusUnauthorized, "general", "Email ou senha incorretos.")
		return
	}

	if err = h.SessionManager.RenewToken(r.Context()); err != nil {
		h.serverError(w, r, "Erro ao renovar o token da sessão", err)
		return
	}
	h.SessionManager.Put(r.Context(), middleware.SessionUserIDKey, user.ID)
	h.SessionManager.Remove(r.Context(), middleware.SessionNavLastKey)
	h.SessionManager.Remove(r.Context(), middleware.SessionAccessDeniedKey)
	metrics.ObserveLogin("success")
	slog.Info("Usuário entrou", "userID", user.ID, "email", user.Email, "roles", user.Roles)

	http.Redirect(w, r, homePath, http.StatusSeeOther)
}

func (h *AppHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	userID := h.SessionManager.GetInt64(r.Context(), middleware.SessionUserIDKey)
	if err := h.SessionManager.Destroy(r.Context()); err != nil {
		h.serverError(w, r, "Erro ao encerrar a sessão", err)
		return
	}
	slog.Info("Usuário saiu", "userID", userID)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
