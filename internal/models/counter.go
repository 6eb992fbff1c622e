package models

import "time"

// Counter is a service point that can serve at most one token at a time
type Counter struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCounterRequest is the request body for registering a counter
type CreateCounterRequest struct {
	Name string `json:"name"`
}

// UpdateCounterRequest is the request body for activating/deactivating a counter
type UpdateCounterRequest struct {
	IsActive *bool `json:"is_active"`
}
