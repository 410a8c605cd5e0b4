// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clinica_http_request_duration_seconds",
		Help:    "Duração das requisições HTTP.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinica_http_requests_total",
		Help: "Total de requisições HTTP.",
	}, []string{"route", "method", "status"})

	accessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinica_access_decisions_total",
		Help: "Decisões de acesso por rota e resultado.",
	}, []string{"route", "outcome"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinica_login_attempts_total",
		Help: "Tentativas de login por resultado.",
	}, []string{"result"})
)

// Middleware registra métricas RED. Deve envolver diretamente o ServeMux para
// que r.Pattern esteja preenchido após o roteamento.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(ww.Status())
		httpDuration.WithLabelValues(route, r.Method, status).Observe(time.Since(start).Seconds())
		httpRequests.WithLabelValues(route, r.Method, status).Inc()
	})
}

// ObserveAccessDecision conta uma decisão do guarda de rotas.
func ObserveAccessDecision(route, outcome string) {
	accessDecisions.WithLabelValues(route, outcome).Inc()
}

// ObserveLogin conta uma tentativa de login ("success", "invalid", "error").
func ObserveLogin(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
