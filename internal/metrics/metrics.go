package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the queue engine, exposed on /metrics
var (
	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queue_tokens_issued_total",
		Help: "Total number of tokens issued",
	})

	TokensServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queue_tokens_served_total",
		Help: "Total number of tokens marked served",
	})

	TokensSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queue_tokens_skipped_total",
		Help: "Total number of tokens skipped",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "queue_waiting_tokens",
		Help: "Current number of waiting tokens",
	})

	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "queue_ws_subscribers",
		Help: "Connected websocket subscribers",
	})

	OccupancyCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "queue_live_occupancy",
		Help: "Last occupancy count reported by the external feed",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method, path and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
