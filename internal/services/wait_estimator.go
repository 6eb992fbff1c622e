package services

import (
	"context"
	"sync"
	"time"
)

// WaitEstimator computes wait estimates two ways: a historical estimate from
// today's served tokens, and a live estimate from the external occupancy
// feed (people counted * average service minutes per person).
type WaitEstimator struct {
	store             QueueStore
	avgServiceMinutes int

	mu            sync.RWMutex
	liveCount     int
	liveUpdatedAt time.Time
}

func NewWaitEstimator(store QueueStore, avgServiceMinutes int) *WaitEstimator {
	if avgServiceMinutes <= 0 {
		avgServiceMinutes = 2
	}
	return &WaitEstimator{
		store:             store,
		avgServiceMinutes: avgServiceMinutes,
	}
}

// EstimateForPosition returns the expected wait in minutes for a queue
// position, based on today's average service time. The second return value
// is false when no token has been processed yet and no estimate exists.
func (e *WaitEstimator) EstimateForPosition(ctx context.Context, position int) (int, bool, error) {
	stats, err := e.store.TodayStats(ctx)
	if err != nil {
		return 0, false, err
	}
	if stats.TokensProcessed == 0 {
		return 0, false, nil
	}

	avg := stats.TotalWaitMinutes / float64(stats.TokensProcessed)
	return int(avg*float64(position) + 0.5), true, nil
}

// SetLiveCount records a fresh occupancy reading from the external feed
func (e *WaitEstimator) SetLiveCount(count int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.liveCount = count
	e.liveUpdatedAt = time.Now()
}

// LiveCount returns the last occupancy reading
func (e *WaitEstimator) LiveCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.liveCount
}

// LiveEstimatedWait returns the live wait estimate in minutes derived from
// the occupancy count
func (e *WaitEstimator) LiveEstimatedWait() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.liveCount * e.avgServiceMinutes
}

// LiveUpdatedAt returns when the occupancy feed last delivered a reading;
// zero if it never has
func (e *WaitEstimator) LiveUpdatedAt() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.liveUpdatedAt
}
