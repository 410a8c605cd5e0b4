// internal/handlers/schedule.go
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"clinica-admin.com.br/internal/access"
	"clinica-admin.com.br/internal/db"
	"clinica-admin.com.br/internal/middleware"
	"clinica-admin.com.br/internal/models"
	"clinica-admin.com.br/internal/validation"
)

const monthParamLayout = "2006-01"

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// WeekdayLabels são os cabeçalhos da grade, começando no domingo.
var WeekdayLabels = [7]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

// ScheduleEditors podem criar e excluir agendamentos.
var ScheduleEditors = []models.Role{models.RoleAdministrador, models.RoleUsuario}

type CalendarDay struct {
	Date         time.Time
	InMonth      bool
	IsToday      bool
	Appointments []*models.Appointment
}

// Calendar é a grade mensal da agenda: semanas completas de domingo a sábado.
type Calendar struct {
	Month     time.Time
	Label     string
	PrevParam string
	NextParam string
	Days      []CalendarDay
}

func (c *Calendar) Weeks() [][]CalendarDay {
	weeks := make([][]CalendarDay, 0, len(c.Days)/7)
	for i := 0; i+7 <= len(c.Days); i += 7 {
		weeks = append(weeks, c.Days[i:i+7])
	}
	return weeks
}

func (c *Calendar) Weekdays() [7]string { return WeekdayLabels }

func monthLabel(t time.Time) string {
	return fmt.Sprintf("%s de %d", monthNames[t.Month()-1], t.Year())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// GridRange devolve o primeiro domingo visível e o dia seguinte ao último
// sábado da grade do mês.
func GridRange(month time.Time) (time.Time, time.Time) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	start := first.AddDate(0, 0, -int(first.Weekday()))
	last := first.AddDate(0, 1, -1)
	end := last.AddDate(0, 0, 7-int(last.Weekday()))
	return start, end
}

// BuildCalendar monta a grade do mês e coloca cada agendamento no dia de início.
func BuildCalendar(month time.Time, appts []*models.Appointment, today time.Time) *Calendar {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	start, end := GridRange(first)

	byDay := make(map[string][]*models.Appointment)
	for _, a := range appts {
		key := a.StartsAt.In(first.Location()).Format("2006-01-02")
		byDay[key] = append(byDay[key], a)
	}

	cal := &Calendar{
		Month:     first,
		Label:     monthLabel(first),
		PrevParam: first.AddDate(0, -1, 0).Format(monthParamLayout),
		NextParam: first.AddDate(0, 1, 0).Format(monthParamLayout),
	}
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		cal.Days = append(cal.Days, CalendarDay{
			Date:         d,
			InMonth:      d.Month() == first.Month(),
			IsToday:      sameDay(d, today),
			Appointments: byDay[d.Format("2006-01-02")],
		})
	}
	return cal
}

// parseMonthParam interpreta ?mes=AAAA-MM; valor ausente ou inválido cai no mês atual.
func parseMonthParam(value string, now time.Time) time.Time {
	if value != "" {
		if t, err := time.ParseInLocation(monthParamLayout, value, now.Location()); err == nil {
			return t
		}
		slog.Debug("Parâmetro de mês inválido ignorado", "mes", value)
	}
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

func (h *AppHandlers) schedulePage(r *http.Request, month time.Time) (*PageData, error) {
	data := h.NewPageData(r)
	data.PageTitle = "Agenda"
	data.CanEdit = access.HasAccess(data.User.RoleSet(), ScheduleEditors)

	start, end := GridRange(month)
	appts, err := h.Store.ListAppointmentsBetween(r.Context(), start, end)
	if err != nil {
		return nil, err
	}
	data.Calendar = BuildCalendar(month, appts, h.Now())

	if data.CanEdit {
		options, err := h.Store.ListClientOptions(r.Context())
		if err != nil {
			slog.Error("Erro ao carregar clientes para a agenda", "error", err)
		}
		data.Options = options
	}
	return data, nil
}

func (h *AppHandlers) SchedulePageHandler(w http.ResponseWriter, r *http.Request) {
	month := parseMonthParam(r.URL.Query().Get("mes"), h.Now())
	data, err := h.schedulePage(r, month)
	if err != nil {
		h.serverError(w, r, "Erro ao carregar a agenda", err)
		return
	}
	h.RenderPage(w, r, "schedule.html", data)
}

func appointmentFromForm(form models.AppointmentForm, loc *time.Location) (*models.Appointment, map[string]string) {
	problems := map[string]string{}
	startsAt, err := time.ParseInLocation("2006-01-02 15:04", form.Date+" "+form.StartTime, loc)
	if err != nil {
		problems["start_time"] = "Horário de início inválido."
	}
	endsAt, err := time.ParseInLocation("2006-01-02 15:04", form.Date+" "+form.EndTime, loc)
	if err != nil {
		problems["end_time"] = "Horário de término inválido."
	} else if !endsAt.After(startsAt) {
		problems["end_time"] = "O término deve ser depois do início."
	}

	a := &models.Appointment{
		Title:    form.Title,
		StartsAt: startsAt,
		EndsAt:   endsAt,
		Notes:    form.Notes,
	}
	if form.ClientID != "" {
		if id, err := strconv.ParseInt(form.ClientID, 10, 64); err == nil && id > 0 {
			a.ClientID = &id
		}
	}
	if form.Price != "" {
		cents, err := models.ParseBRLAmount(form.Price)
		if err != nil {
			problems["price"] = "Valor inválido."
		}
		a.PriceCents = cents
	}
	return a, problems
}

// CreateAppointmentHandler grava um agendamento; só a equipe chega aqui.
func (h *AppHandlers) CreateAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Requisição inválida", http.StatusBadRequest)
		return
	}
	form := models.AppointmentForm{
		Title:     strings.TrimSpace(r.PostForm.Get("title")),
		ClientID:  strings.TrimSpace(r.PostForm.Get("client_id")),
		Date:      strings.TrimSpace(r.PostForm.Get("date")),
		StartTime: strings.TrimSpace(r.PostForm.Get("start_time")),
		EndTime:   strings.TrimSpace(r.PostForm.Get("end_time")),
		Price:     strings.TrimSpace(r.PostForm.Get("price")),
		Notes:     strings.TrimSpace(r.PostForm.Get("notes")),
	}
	now := h.Now()
	month := parseMonthParam(strings.TrimSpace(r.PostForm.Get("mes")), now)

	errs := validation.ValidateStruct(form)
	var appt *models.Appointment
	if errs == nil {
		var problems map[string]string
		appt, problems = appointmentFromForm(form, now.Location())
		for field, msg := range problems {
			if errs == nil {
				errs = url.Values{}
			}
			errs.Add(field, msg)
		}
	}
	if errs != nil {
		data, err := h.schedulePage(r, month)
		if err != nil {
			h.serverError(w, r, "Erro ao carregar a agenda", err)
			return
		}
		data.Errors = errs
		data.FormValues = r.PostForm
		data.StatusCode = http.StatusUnprocessableEntity
		h.RenderPage(w, r, "schedule.html", data)
		return
	}

	appt.CreatedBy = middleware.SessionFromContext(r.Context()).User.ID
	if _, err := h.Store.CreateAppointment(r.Context(), appt); err != nil {
		h.serverError(w, r, "Erro ao criar agendamento", err)
		return
	}
	h.flash(r, middleware.SessionFlashSuccessKey, "Agendamento criado.")
	http.Redirect(w, r, "/agenda?mes="+appt.StartsAt.Format(monthParamLayout), http.StatusSeeOther)
}

func (h *AppHandlers) DeleteAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := h.Store.DeleteAppointment(r.Context(), id)
	switch {
	case errors.Is(err, db.ErrNotFound):
		h.flash(r, middleware.SessionFlashErrorKey, "Agendamento não encontrado.")
	case err != nil:
		h.serverError(w, r, "Erro ao excluir agendamento", err)
		return
	default:
		slog.Info("Agendamento excluído pelo painel", "appointmentID", id,
			"by", middleware.SessionFromContext(r.Context()).User.ID)
		h.flash(r, middleware.SessionFlashSuccessKey, "Agendamento excluído.")
	}

	target := "/agenda"
	if mes := r.FormValue("mes"); mes != "" {
		if _, perr := time.Parse(monthParamLayout, mes); perr == nil {
			target += "?mes=" + mes
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
