package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    TokenStatus
		to      TokenStatus
		allowed bool
	}{
		{"waiting to serving", StatusWaiting, StatusServing, true},
		{"waiting to skipped", StatusWaiting, StatusSkipped, true},
		{"serving to served", StatusServing, StatusServed, true},
		{"serving back to waiting", StatusServing, StatusWaiting, true},
		{"serving to skipped via reset", StatusServing, StatusSkipped, true},
		{"waiting straight to served", StatusWaiting, StatusServed, false},
		{"served is terminal", StatusServed, StatusWaiting, false},
		{"served cannot be re-served", StatusServed, StatusServing, false},
		{"skipped is terminal", StatusSkipped, StatusWaiting, false},
		{"skipped cannot be served", StatusSkipped, StatusServing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestEnsureTransition(t *testing.T) {
	require.NoError(t, EnsureTransition(StatusServing, StatusServed))
	require.NoError(t, EnsureTransition(StatusServing, StatusWaiting))

	err := EnsureTransition(StatusWaiting, StatusServed)
	require.Error(t, err)

	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, StatusWaiting, invalid.From)
	assert.Equal(t, StatusServed, invalid.To)
}

func TestWaitSoFar(t *testing.T) {
	created := time.Now()
	token := &Token{CreatedAt: created}

	assert.InDelta(t, 7.5, token.WaitSoFar(created.Add(7*time.Minute+30*time.Second)), 0.001)
	assert.Zero(t, token.WaitSoFar(created))
}

func TestParseTokenStatus(t *testing.T) {
	for _, valid := range []string{"waiting", "serving", "served", "skipped"} {
		status, err := ParseTokenStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, TokenStatus(valid), status)
	}

	_, err := ParseTokenStatus("cancelled")
	assert.Error(t, err)
}

func TestInvalidTransitionErrorNamesBothStates(t *testing.T) {
	err := NewInvalidTransition(StatusServed, StatusServing)

	assert.Contains(t, err.Error(), "served")
	assert.Contains(t, err.Error(), "serving")
}

func TestAverageWaitMinutes(t *testing.T) {
	stats := &DailyStats{TotalWaitMinutes: 25, TokensProcessed: 4}
	assert.Equal(t, 6, stats.AverageWaitMinutes())

	empty := &DailyStats{}
	assert.Equal(t, 0, empty.AverageWaitMinutes())
}
