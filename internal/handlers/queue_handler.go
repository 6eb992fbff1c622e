package handlers

import (
	"encoding/json"
	"net/http"

	"queue-backend/internal/models"
	"queue-backend/internal/services"

	"github.com/gorilla/mux"
)

type QueueHandler struct {
	Service *services.QueueService
}

func NewQueueHandler(service *services.QueueService) *QueueHandler {
	return &QueueHandler{Service: service}
}

// IssueToken hands out the next ticket
func (h *QueueHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.Service.IssueToken(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

// ServeNext claims the head of the queue for the counter named in the body
func (h *QueueHandler) ServeNext(w http.ResponseWriter, r *http.Request) {
	var req models.ServeNextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.Service.ServeNext(r.Context(), req.CounterID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// SkipCurrent skips the head of the queue
func (h *QueueHandler) SkipCurrent(w http.ResponseWriter, r *http.Request) {
	token, err := h.Service.SkipCurrent(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// MarkServed completes the serving token in the path
func (h *QueueHandler) MarkServed(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	token, err := h.Service.MarkServed(r.Context(), vars["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// ReturnToQueue puts the serving token in the path back into the waiting set
func (h *QueueHandler) ReturnToQueue(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	token, err := h.Service.ReturnToQueue(r.Context(), vars["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// GetToken returns one token by id
func (h *QueueHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	token, err := h.Service.GetToken(r.Context(), vars["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// GetQueue returns the full authoritative snapshot
func (h *QueueHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.Service.Snapshot(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// ResetQueue clears the waiting and serving sets. Stats survive.
func (h *QueueHandler) ResetQueue(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ResetQueue(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Queue reset"})
}
