package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"queue-backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerFetchesOccupancyCount(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count": 12}`))
	}))
	defer feed.Close()

	estimator := NewWaitEstimator(repositories.NewMemoryQueueRepository(), 2)
	poller := NewOccupancyPoller(feed.URL, time.Second, estimator)

	poller.poll(context.Background())

	assert.Equal(t, 12, estimator.LiveCount())
	assert.Equal(t, 24, estimator.LiveEstimatedWait())
}

func TestPollerRetainsPreviousEstimateOnFailure(t *testing.T) {
	healthy := true
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"count": 5}`))
	}))
	defer feed.Close()

	estimator := NewWaitEstimator(repositories.NewMemoryQueueRepository(), 2)
	poller := NewOccupancyPoller(feed.URL, time.Second, estimator)

	poller.poll(context.Background())
	require.Equal(t, 5, estimator.LiveCount())

	healthy = false
	poller.poll(context.Background())

	// Failure is logged, previous reading stands
	assert.Equal(t, 5, estimator.LiveCount())
}

func TestPollerRetainsEstimateOnBadPayload(t *testing.T) {
	payload := `{"count": 9}`
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer feed.Close()

	estimator := NewWaitEstimator(repositories.NewMemoryQueueRepository(), 2)
	poller := NewOccupancyPoller(feed.URL, time.Second, estimator)

	poller.poll(context.Background())
	require.Equal(t, 9, estimator.LiveCount())

	payload = `not json`
	poller.poll(context.Background())

	assert.Equal(t, 9, estimator.LiveCount())
}
