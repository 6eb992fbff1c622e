package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"queue-backend/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeDomainError maps the queue error taxonomy onto HTTP status codes
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var invalid *models.InvalidTransitionError
	switch {
	case errors.Is(err, models.ErrNoCounterSelected):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrTokenNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrEmptyQueue),
		errors.Is(err, models.ErrConcurrencyConflict):
		status = http.StatusConflict
	case errors.As(err, &invalid):
		status = http.StatusConflict
	case errors.Is(err, models.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}
