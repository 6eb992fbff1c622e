package handlers

import (
	"net/http"
	"strconv"

	"queue-backend/internal/models"
	"queue-backend/internal/services"
)

type StatsHandler struct {
	Service   *services.QueueService
	Estimator *services.WaitEstimator
}

func NewStatsHandler(service *services.QueueService, estimator *services.WaitEstimator) *StatsHandler {
	return &StatsHandler{Service: service, Estimator: estimator}
}

type statsResponse struct {
	Stats                    *models.DailyStats `json:"stats"`
	AverageWaitMinutes       int                `json:"average_wait_minutes"`
	LiveQueueCount           int                `json:"live_queue_count"`
	LiveEstimatedWaitMinutes int                `json:"live_estimated_wait_minutes"`
}

// GetStats returns today's counters plus the derived and live wait figures
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.TodayStats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Stats:                    stats,
		AverageWaitMinutes:       stats.AverageWaitMinutes(),
		LiveQueueCount:           h.Estimator.LiveCount(),
		LiveEstimatedWaitMinutes: h.Estimator.LiveEstimatedWait(),
	})
}

// ResetStats zeroes today's counters
func (h *StatsHandler) ResetStats(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ResetStats(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Stats reset"})
}

type waitEstimateResponse struct {
	Position             int  `json:"position"`
	Available            bool `json:"available"`
	EstimatedWaitMinutes int  `json:"estimated_wait_minutes,omitempty"`
}

// GetWaitEstimate returns the expected wait for a queue position, or
// available=false when nothing has been served yet today
func (h *StatsHandler) GetWaitEstimate(w http.ResponseWriter, r *http.Request) {
	position, err := strconv.Atoi(r.URL.Query().Get("position"))
	if err != nil || position < 1 {
		http.Error(w, "position must be a positive integer", http.StatusBadRequest)
		return
	}

	minutes, available, err := h.Estimator.EstimateForPosition(r.Context(), position)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, waitEstimateResponse{
		Position:             position,
		Available:            available,
		EstimatedWaitMinutes: minutes,
	})
}
