package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"queue-backend/internal/metrics"
)

// OccupancyPoller polls the external occupancy sensor on a fixed interval
// and feeds readings into the WaitEstimator. Failures are logged and the
// previous estimate is retained; the feed never surfaces errors to queue
// clients.
type OccupancyPoller struct {
	url       string
	interval  time.Duration
	client    *http.Client
	estimator *WaitEstimator
}

type occupancyResponse struct {
	Count int `json:"count"`
}

func NewOccupancyPoller(url string, interval time.Duration, estimator *WaitEstimator) *OccupancyPoller {
	if interval <= 0 {
		interval = 4 * time.Second
	}
	return &OccupancyPoller{
		url:       url,
		interval:  interval,
		client:    &http.Client{Timeout: interval},
		estimator: estimator,
	}
}

// Start launches the polling loop. It polls once immediately, then on every
// tick until ctx is cancelled.
func (p *OccupancyPoller) Start(ctx context.Context) {
	if p.url == "" {
		log.Println("[Occupancy] No feed URL configured, live estimates disabled")
		return
	}

	go func() {
		p.poll(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.poll(ctx)
			}
		}
	}()
}

func (p *OccupancyPoller) poll(ctx context.Context) {
	count, err := p.fetch(ctx)
	if err != nil {
		log.Printf("[Occupancy] Failed to fetch live count: %v", err)
		return
	}

	p.estimator.SetLiveCount(count)
	metrics.OccupancyCount.Set(float64(count))
}

func (p *OccupancyPoller) fetch(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var body occupancyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	return body.Count, nil
}
