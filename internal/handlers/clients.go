// internal/handlers/clients.go
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"clinica-admin.com.br/internal/auth"
	"clinica-admin.com.br/internal/db"
	"clinica-admin.com.br/internal/middleware"
	"clinica-admin.com.br/internal/models"
	"clinica-admin.com.br/internal/validation"
)

const clientsPerPage = 20

// MaxPage limita ?page= para que (page-1)*limit não estoure.
const MaxPage = 100000

// PageParam lê ?page=, entre 1 e MaxPage.
func PageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	switch {
	case err != nil || page < 1:
		return 1
	case page > MaxPage:
		return MaxPage
	}
	return page
}

func (h *AppHandlers) ClientsListPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Clientes"

	search := strings.TrimSpace(r.URL.Query().Get("q"))
	page := PageParam(r)
	clients, total, err := h.Store.ListClients(r.Context(), db.ClientFilter{
		Search: search,
		Limit:  clientsPerPage,
		Offset: (page - 1) * clientsPerPage,
	})
	if err != nil {
		h.serverError(w, r, "Erro ao listar clientes", err)
		return
	}
	data.Clients = clients
	data.Pagination = NewPagination(page, clientsPerPage, total, search)
	h.RenderPage(w, r, "clients_list.html", data)
}

func clientFormValues(c *models.Client) url.Values {
	v := url.Values{}
	v.Set("name", c.Name)
	v.Set("cpf", auth.FormatCPF(c.CPF))
	v.Set("email", c.Email)
	v.Set("phone", c.Phone)
	v.Set("birth_date", c.BirthDate)
	v.Set("address", c.Address)
	v.Set("notes", c.Notes)
	return v
}

func clientFormFromRequest(r *http.Request) models.ClientForm {
	return models.ClientForm{
		Name:      strings.TrimSpace(r.PostForm.Get("name")),
		CPF:       strings.TrimSpace(r.PostForm.Get("cpf")),
		Email:     strings.ToLower(strings.TrimSpace(r.PostForm.Get("email"))),
		Phone:     strings.TrimSpace(r.PostForm.Get("phone")),
		BirthDate: strings.TrimSpace(r.PostForm.Get("birth_date")),
		Address:   strings.TrimSpace(r.PostForm.Get("address")),
		Notes:     strings.TrimSpace(r.PostForm.Get("notes")),
	}
}

func clientFromForm(form models.ClientForm) *models.Client {
	return &models.Client{
		Name:      auth.SanitizeName(form.Name),
		CPF:       auth.NormalizeCPF(form.CPF),
		Email:     form.Email,
		Phone:     auth.NormalizePhone(form.Phone),
		BirthDate: form.BirthDate,
		Address:   form.Address,
		Notes:     form.Notes,
	}
}

func (h *AppHandlers) renderClientForm(w http.ResponseWriter, r *http.Request, data *PageData) {
	h.RenderPage(w, r, "client_form.html", data)
}

func (h *AppHandlers) NewClientPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Cadastro de cliente"
	data.FormAction = "/clientes/novo"
	h.renderClientForm(w, r, data)
}

func (h *AppHandlers) CreateClientHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Requisição inválida", http.StatusBadRequest)
		return
	}
	form := clientFormFromRequest(r)
	data := h.NewPageData(r)
	data.PageTitle = "Cadastro de cliente"
	data.FormAction = "/clientes/novo"
	data.FormValues = r.PostForm

	if errs := validation.ValidateStruct(form); errs != nil {
		data.Errors = errs
		data.StatusCode = http.StatusUnprocessableEntity
		h.renderClientForm(w, r, data)
		return
	}

	client := clientFromForm(form)
	id, err := h.Store.CreateClient(r.Context(), client)
	if err != nil {
		if errors.Is(err, db.ErrDuplicateCPF) {
			data.Errors.Add("cpf", "Já existe um cliente com este CPF.")
			data.StatusCode = http.StatusConflict
			h.renderClientForm(w, r, data)
			return
		}
		h.serverError(w, r, "Erro ao cadastrar cliente", err)
		return
	}
	slog.Info("Cliente cadastrado pelo painel", "clientID", id, "by", middleware.SessionFromContext(r.Context()).User.ID)
	h.flash(r, middleware.SessionFlashSuccessKey, fmt.Sprintf("Cliente %s cadastrado.", client.Name))
	http.Redirect(w, r, "/clientes", http.StatusSeeOther)
}

func (h *AppHandlers) loadClient(w http.ResponseWriter, r *http.Request) (*models.Client, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.NotFoundHandler(w, r)
		return nil, false
	}
	client, err := h.Store.GetClient(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.NotFoundHandler(w, r)
			return nil, false
		}
		h.serverError(w, r, "Erro ao carregar cliente", err)
		return nil, false
	}
	return client, true
}

func (h *AppHandlers) EditClientPageHandler(w http.ResponseWriter, r *http.Request) {
	client, ok := h.loadClient(w, r)
	if !ok {
		return
	}
	data := h.NewPageData(r)
	data.PageTitle = "Edição de cliente"
	data.Client = client
	data.FormAction = fmt.Sprintf("/clientes/%d/editar", client.ID)
	data.FormValues = clientFormValues(client)
	h.renderClientForm(w, r, data)
}

func (h *AppHandlers) UpdateClientHandler(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadClient(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Requisição inválida", http.StatusBadRequest)
		return
	}
	form := clientFormFromRequest(r)
	data := h.NewPageData(r)
	data.PageTitle = "Edição de cliente"
	data.Client = existing
	data.FormAction = fmt.Sprintf("/clientes/%d/editar", existing.ID)
	data.FormValues = r.PostForm

	if errs := validation.ValidateStruct(form); errs != nil {
		data.Errors = errs
		data.StatusCode = http.StatusUnprocessableEntity
		h.renderClientForm(w, r, data)
		return
	}

	client := clientFromForm(form)
	client.ID = existing.ID
	if err := h.Store.UpdateClient(r.Context(), client); err != nil {
		switch {
		case errors.Is(err, db.ErrDuplicateCPF):
			data.Errors.Add("cpf", "Já existe um cliente com este CPF.")
			data.StatusCode = http.StatusConflict
			h.renderClientForm(w, r, data)
		case errors.Is(err, db.ErrNotFound):
			h.NotFoundHandler(w, r)
		default:
			h.serverError(w, r, "Erro ao atualizar cliente", err)
		}
		return
	}
	slog.Info("Cliente atualizado", "clientID", client.ID)
	h.flash(r, middleware.SessionFlashSuccessKey, "Dados do cliente atualizados.")
	http.Redirect(w, r, "/clientes", http.StatusSeeOther)
}
