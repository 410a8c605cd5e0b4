// internal/handlers/admin/reports.go
package adminhandlers

import (
	"log/slog"
	"net/http"

	"clinica-admin.com.br/internal/handlers"
	"clinica-admin.com.br/internal/models"
)

const reportMonths = 6

func FinancePageHandler(app *handlers.AppHandlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := app.NewPageData(r)
		data.PageTitle = "Financeiro"

		summary, err := app.Store.GetFinanceSummary(r.Context(), app.Now(), reportMonths)
		if err != nil {
			slog.Error("Não foi possível carregar o resumo financeiro", "error", err)
			http.Error(w, "Erro ao carregar o financeiro", http.StatusInternalServerError)
			return
		}
		data.Finance = summary
		app.RenderPage(w, r, "finance.html", data)
	}
}

func ReportsPageHandler(app *handlers.AppHandlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := app.NewPageData(r)
		data.PageTitle = "Relatórios"

		report, err := app.Store.GetActivityReport(r.Context(), app.Now(), reportMonths)
		if err != nil {
			slog.Error("Não foi possível montar os relatórios", "error", err)
			http.Error(w, "Erro ao carregar os relatórios", http.StatusInternalServerError)
			return
		}
		data.Report = report
		data.AllRoles = models.AllRoles
		app.RenderPage(w, r, "reports.html", data)
	}
}
