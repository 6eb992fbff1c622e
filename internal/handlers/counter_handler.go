package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"queue-backend/internal/models"
	"queue-backend/internal/services"

	"github.com/gorilla/mux"
)

type CounterHandler struct {
	Service *services.QueueService
}

func NewCounterHandler(service *services.QueueService) *CounterHandler {
	return &CounterHandler{Service: service}
}

// ListCounters returns all registered counters
func (h *CounterHandler) ListCounters(w http.ResponseWriter, r *http.Request) {
	counters, err := h.Service.ListCounters(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counters)
}

// CreateCounter registers a new service counter
func (h *CounterHandler) CreateCounter(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCounterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "Counter name is required", http.StatusBadRequest)
		return
	}

	counter, err := h.Service.CreateCounter(r.Context(), req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, counter)
}

// UpdateCounter activates or deactivates a counter
func (h *CounterHandler) UpdateCounter(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "Invalid counter id", http.StatusBadRequest)
		return
	}

	var req models.UpdateCounterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.IsActive == nil {
		http.Error(w, "is_active is required", http.StatusBadRequest)
		return
	}

	counter, err := h.Service.SetCounterActive(r.Context(), id, *req.IsActive)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counter)
}
