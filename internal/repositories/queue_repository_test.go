package repositories

import (
	"testing"

	"queue-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestHeadClaimError(t *testing.T) {
	// A zero-row head selection with tokens still waiting means another
	// claim won the race, not that the queue is empty
	assert.ErrorIs(t, headClaimError(1), models.ErrConcurrencyConflict)
	assert.ErrorIs(t, headClaimError(3), models.ErrConcurrencyConflict)
	assert.ErrorIs(t, headClaimError(0), models.ErrEmptyQueue)
}
