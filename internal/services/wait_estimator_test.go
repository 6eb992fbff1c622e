package services

import (
	"context"
	"testing"
	"time"

	"queue-backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateForPositionUnavailableWithoutHistory(t *testing.T) {
	store := repositories.NewMemoryQueueRepository()
	estimator := NewWaitEstimator(store, 2)

	_, available, err := estimator.EstimateForPosition(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, available)
}

func TestEstimateForPositionScalesWithAverage(t *testing.T) {
	store := repositories.NewMemoryQueueRepository()
	ctx := context.Background()

	// Build history: serve one token so tokens_processed > 0
	_, err := store.CreateCounter(ctx, "Counter 1")
	require.NoError(t, err)
	token, err := store.IssueToken(ctx)
	require.NoError(t, err)
	_, err = store.ServeNext(ctx, 1)
	require.NoError(t, err)
	_, err = store.MarkServed(ctx, token.ID)
	require.NoError(t, err)

	estimator := NewWaitEstimator(store, 2)
	minutes, available, err := estimator.EstimateForPosition(ctx, 5)
	require.NoError(t, err)
	assert.True(t, available)
	// The single served token waited near zero minutes, so the scaled
	// estimate stays near zero too
	assert.LessOrEqual(t, minutes, 1)
}

func TestLiveEstimatedWait(t *testing.T) {
	estimator := NewWaitEstimator(repositories.NewMemoryQueueRepository(), 2)

	assert.Zero(t, estimator.LiveCount())
	assert.Zero(t, estimator.LiveEstimatedWait())
	assert.True(t, estimator.LiveUpdatedAt().IsZero())

	estimator.SetLiveCount(7)

	assert.Equal(t, 7, estimator.LiveCount())
	assert.Equal(t, 14, estimator.LiveEstimatedWait())
	assert.WithinDuration(t, time.Now(), estimator.LiveUpdatedAt(), time.Second)
}

func TestEstimatorDefaultsServiceMinutes(t *testing.T) {
	estimator := NewWaitEstimator(repositories.NewMemoryQueueRepository(), 0)
	estimator.SetLiveCount(3)

	// Falls back to 2 minutes per person
	assert.Equal(t, 6, estimator.LiveEstimatedWait())
}
