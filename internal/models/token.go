package models

import (
	"fmt"
	"time"
)

// TokenStatus is the lifecycle state of a queue token
type TokenStatus string

const (
	StatusWaiting TokenStatus = "waiting"
	StatusServing TokenStatus = "serving"
	StatusServed  TokenStatus = "served"
	StatusSkipped TokenStatus = "skipped"
)

// legalTransitions is the single source of truth for the token state machine.
// Terminal states (served, skipped) have no outgoing transitions.
var legalTransitions = map[TokenStatus][]TokenStatus{
	StatusWaiting: {StatusServing, StatusSkipped},
	StatusServing: {StatusServed, StatusWaiting, StatusSkipped},
	StatusServed:  {},
	StatusSkipped: {},
}

// CanTransitionTo reports whether moving from s to next is a legal transition
func (s TokenStatus) CanTransitionTo(next TokenStatus) bool {
	for _, t := range legalTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// EnsureTransition validates a status change against the transition table.
// Stores call this before every status write so the table is the single
// enforcement point.
func EnsureTransition(from, to TokenStatus) error {
	if !from.CanTransitionTo(to) {
		return NewInvalidTransition(from, to)
	}
	return nil
}

// IsValid reports whether s is one of the known statuses
func (s TokenStatus) IsValid() bool {
	switch s {
	case StatusWaiting, StatusServing, StatusServed, StatusSkipped:
		return true
	}
	return false
}

// ParseTokenStatus converts a stored string into a TokenStatus
func ParseTokenStatus(s string) (TokenStatus, error) {
	status := TokenStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown token status %q", s)
	}
	return status, nil
}

// Token represents a single customer's ticket.
// Number is unique and strictly increasing in issuance order; it never
// changes after creation. ServedByCounterID is set while the token is
// being served.
type Token struct {
	ID                string      `json:"id"`
	Number            int         `json:"number"`
	Status            TokenStatus `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
	ServedAt          *time.Time  `json:"served_at,omitempty"`
	ServedByCounterID *int        `json:"served_by_counter_id,omitempty"`
}

// WaitSoFar returns how long the token has been in the queue, in minutes
func (t *Token) WaitSoFar(now time.Time) float64 {
	return now.Sub(t.CreatedAt).Minutes()
}

// ServeNextRequest is the request body for claiming the queue head
type ServeNextRequest struct {
	CounterID int `json:"counter_id"`
}
