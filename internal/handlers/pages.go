// internal/handlers/pages.go
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/justinas/nosurf"

	"clinica-admin.com.br/internal/access"
	"clinica-admin.com.br/internal/auth"
	"clinica-admin.com.br/internal/config"
	"clinica-admin.com.br/internal/db"
	"clinica-admin.com.br/internal/middleware"
	"clinica-admin.com.br/internal/models"
)

// Store reúne as operações de dados usadas pelas páginas. *db.Store a implementa.
type Store interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, userID int64, name string, avatarURL *string) error
	UpdateUserPassword(ctx context.Context, userID int64, newPasswordHash string) error
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error)
	ListUsersByRole(ctx context.Context, role models.Role) ([]*models.User, error)
	SetUserRoles(ctx context.Context, userID int64, roles []models.Role) error

	ListClients(ctx context.Context, f db.ClientFilter) ([]*models.Client, int, error)
	GetClient(ctx context.Context, id int64) (*models.Client, error)
	CreateClient(ctx context.Context, c *models.Client) (int64, error)
	UpdateClient(ctx context.Context, c *models.Client) error
	ListClientOptions(ctx context.Context) ([]models.Client, error)

	ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]*models.Appointment, error)
	CreateAppointment(ctx context.Context, a *models.Appointment) (string, error)
	DeleteAppointment(ctx context.Context, id string) error

	GetDashboardStats(ctx context.Context, now time.Time) (*db.DashboardStats, error)
	GetFinanceSummary(ctx context.Context, now time.Time, months int) (*db.FinanceSummary, error)
	GetActivityReport(ctx context.Context, now time.Time, months int) (*db.ActivityReport, error)
}

// Pagination descreve a página atual de uma listagem.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	Total       int
	Limit       int
	Query       string
}

func NewPagination(page, limit, total int, query string) Pagination {
	pages := (total + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	return Pagination{CurrentPage: page, TotalPages: pages, Total: total, Limit: limit, Query: query}
}

func (p Pagination) HasPrev() bool { return p.CurrentPage > 1 }
func (p Pagination) HasNext() bool { return p.CurrentPage < p.TotalPages }

type PageData struct {
	SiteName        string
	ClinicName      string
	CurrentYear     int
	BaseURL         string
	CurrentPath     string
	CSRFToken       string
	IsAuthenticated bool
	User            *models.User
	UserName        string
	Menu            []access.MenuEntry
	PageTitle       string
	FlashSuccess    string
	FlashError      string
	Errors          url.Values
	FormValues      url.Values
	StatusCode      int

	Denied *access.Decision

	Stats       *db.DashboardStats
	Finance     *db.FinanceSummary
	Report      *db.ActivityReport
	Clients     []*models.Client
	Client      *models.Client
	Options     []models.Client
	Pagination  Pagination
	Calendar    *Calendar
	Users       []*models.User
	EditingUser *models.User
	AllRoles    []models.Role
	Permissions []PermissionCategory
	Permission  *PermissionCategory
	FormAction  string
	CanEdit     bool

	PasswordErrors url.Values
}

type AppHandlers struct {
	Config         *config.Config
	Store          Store
	Policy         *access.Policy
	SessionManager *scs.SessionManager
	BaseTmpl       *template.Template
	PagesPath      string
	Now            func() time.Time
}

var templateFuncs = template.FuncMap{
	"add":      func(a, b int) int { return a + b },
	"sub":      func(a, b int) int { return a - b },
	"brl":      models.FormatBRL,
	"cpf":      auth.FormatCPF,
	"date":     func(t time.Time) string { return t.Format("02/01/2006") },
	"clock":    func(t time.Time) string { return t.Format("15:04") },
	"joinRole": joinRoles,
	"hasRole": func(u *models.User, role models.Role) bool {
		return u.RoleSet().Has(role)
	},
	"hasPrefix": strings.HasPrefix,
}

func joinRoles(roles []models.Role) string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.String())
	}
	return strings.Join(names, ", ")
}

func parseBaseTemplates(templatesDir string) (*template.Template, error) {
	baseFile := filepath.Join(templatesDir, "base.html")
	if _, err := os.Stat(baseFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("template base '%s' não encontrado", baseFile)
	}
	tmpl, err := template.New("base.html").Funcs(templateFuncs).ParseFiles(baseFile)
	if err != nil {
		return nil, fmt.Errorf("erro ao interpretar o template base '%s': %w", baseFile, err)
	}

	partsDir := filepath.Join(templatesDir, "parts")
	partFiles, err := filepath.Glob(filepath.Join(partsDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("erro ao procurar templates parciais em '%s': %w", partsDir, err)
	}
	if len(partFiles) > 0 {
		if tmpl, err = tmpl.ParseFiles(partFiles...); err != nil {
			return nil, fmt.Errorf("erro ao interpretar templates parciais de '%s': %w", partsDir, err)
		}
	}
	slog.Info("Templates base carregados", "base_template", baseFile, "parts_dir", partsDir)
	return tmpl, nil
}

func NewAppHandlers(cfg *config.Config, sm *scs.SessionManager, store Store, policy *access.Policy) (*AppHandlers, error) {
	baseTmpl, err := parseBaseTemplates(cfg.TemplatesPath)
	if err != nil {
		return nil, err
	}
	if cfg.CurrentYear == 0 {
		cfg.CurrentYear = time.Now().Year()
	}
	if policy == nil {
		policy = access.DefaultPolicy
	}
	return &AppHandlers{
		Config:         cfg,
		Store:          store,
		Policy:         policy,
		SessionManager: sm,
		BaseTmpl:       baseTmpl,
		PagesPath:      filepath.Join(cfg.TemplatesPath, "pages"),
		Now:            time.Now,
	}, nil
}

func (h *AppHandlers) NewPageData(r *http.Request) *PageData {
	ctx := r.Context()
	sess := middleware.SessionFromContext(ctx)

	userName := "Visitante"
	if sess.User != nil {
		userName = sess.User.DisplayName()
	}

	return &PageData{
		SiteName:        h.Config.SiteName,
		ClinicName:      h.Config.ClinicName,
		CurrentYear:     h.Config.CurrentYear,
		BaseURL:         strings.TrimSuffix(h.Config.BaseURL, "/"),
		CurrentPath:     r.URL.Path,
		CSRFToken:       nosurf.Token(r),
		IsAuthenticated: sess.Authenticated(),
		User:            sess.User,
		UserName:        userName,
		Menu:            h.Policy.MenuFor(sess),
		Errors:          url.Values{},
		FormValues:      url.Values{},
		FlashSuccess:    h.SessionManager.PopString(ctx, middleware.SessionFlashSuccessKey),
		FlashError:      h.SessionManager.PopString(ctx, middleware.SessionFlashErrorKey),
		PasswordErrors:  url.Values{},
	}
}

// RenderPage executa base.html com a página pedida. A saída vai para um
// buffer antes de ser enviada, assim um erro de template vira 500 limpo.
func (h *AppHandlers) RenderPage(w http.ResponseWriter, r *http.Request, pageName string, data *PageData) {
	if data == nil {
		data = h.NewPageData(r)
	}
	if data.PageTitle == "" {
		data.PageTitle = h.Config.SiteName
	}

	pagePath := filepath.Join(h.PagesPath, pageName)
	tmpl, err := h.BaseTmpl.Clone()
	if err != nil {
		slog.Error("Não foi possível clonar o template base", "error", err)
		http.Error(w, "Erro interno do servidor", http.StatusInternalServerError)
		return
	}
	if tmpl, err = tmpl.ParseFiles(pagePath); err != nil {
		slog.Error("Não foi possível carregar o template da página", "page", pageName, "path", pagePath, "error", err)
		http.Error(w, "Erro interno do servidor (template da página)", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err = tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		slog.Error("Erro ao executar o template", "page", pageName, "error", err)
		http.Error(w, "Erro interno do servidor", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if data.StatusCode != 0 {
		w.WriteHeader(data.StatusCode)
	}
	if _, err = buf.WriteTo(w); err != nil {
		slog.Debug("Falha ao enviar a resposta", "page", pageName, "error", err)
	}
}

func (h *AppHandlers) flash(r *http.Request, key, msg string) {
	h.SessionManager.Put(r.Context(), key, msg)
}

func (h *AppHandlers) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "path", r.URL.Path, "error", err)
	http.Error(w, "Erro interno do servidor. Tente novamente mais tarde.", http.StatusInternalServerError)
}

// RootHandler trata "/" e todo caminho sem rota registrada.
func (h *AppHandlers) RootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.NotFoundHandler(w, r)
		return
	}
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func (h *AppHandlers) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Página não encontrada"
	data.StatusCode = http.StatusNotFound
	h.RenderPage(w, r, "not_found.html", data)
}

func (h *AppHandlers) HomePageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Início"
	h.RenderPage(w, r, "home.html", data)
}

func (h *AppHandlers) DashboardPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Dashboard"
	stats, err := h.Store.GetDashboardStats(r.Context(), h.Now())
	if err != nil {
		h.serverError(w, r, "Erro ao carregar estatísticas do dashboard", err)
		return
	}
	data.Stats = stats
	h.RenderPage(w, r, "dashboard.html", data)
}
