package http

import (
	"net/http"

	"queue-backend/internal/handlers"
	"queue-backend/internal/health"
	"queue-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the public queue API. There is no auth layer: the
// capability boundary is that any caller may invoke any operation.
func NewRouter(
	queueHandler *handlers.QueueHandler,
	counterHandler *handlers.CounterHandler,
	statsHandler *handlers.StatsHandler,
	wsHandler *handlers.WSHandler,
	monitoringHandler *handlers.MonitoringHandler,
	healthChecker *health.HealthChecker,
	issueLimiter *middleware.RateLimiter,
) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()

	// Customer-facing issuance gets its own per-IP ceiling
	api.Handle("/tokens",
		issueLimiter.Middleware(http.HandlerFunc(queueHandler.IssueToken)),
	).Methods(http.MethodPost)
	api.HandleFunc("/tokens/{id}", queueHandler.GetToken).Methods(http.MethodGet)
	api.HandleFunc("/tokens/{id}/served", queueHandler.MarkServed).Methods(http.MethodPost)
	api.HandleFunc("/tokens/{id}/return", queueHandler.ReturnToQueue).Methods(http.MethodPost)

	api.HandleFunc("/queue", queueHandler.GetQueue).Methods(http.MethodGet)
	api.HandleFunc("/queue/serve", queueHandler.ServeNext).Methods(http.MethodPost)
	api.HandleFunc("/queue/skip", queueHandler.SkipCurrent).Methods(http.MethodPost)
	api.HandleFunc("/queue/reset", queueHandler.ResetQueue).Methods(http.MethodPost)

	api.HandleFunc("/stats", statsHandler.GetStats).Methods(http.MethodGet)
	api.HandleFunc("/stats/reset", statsHandler.ResetStats).Methods(http.MethodPost)
	api.HandleFunc("/wait-estimate", statsHandler.GetWaitEstimate).Methods(http.MethodGet)

	api.HandleFunc("/counters", counterHandler.ListCounters).Methods(http.MethodGet)
	api.HandleFunc("/counters", counterHandler.CreateCounter).Methods(http.MethodPost)
	api.HandleFunc("/counters/{id}", counterHandler.UpdateCounter).Methods(http.MethodPatch)

	api.HandleFunc("/monitoring/system", monitoringHandler.GetSystemStats).Methods(http.MethodGet)

	r.HandleFunc("/ws", wsHandler.Subscribe)
	r.HandleFunc("/health", healthChecker.Handler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}
