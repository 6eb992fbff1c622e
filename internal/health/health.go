package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthChecker reports process and store health. The pool is nil when the
// server runs on the in-memory store.
type HealthChecker struct {
	db *pgxpool.Pool
}

type HealthStatus struct {
	Status     string      `json:"status"`
	Store      StoreHealth `json:"store"`
	Goroutines int         `json:"goroutines"`
	Memory     MemoryStats `json:"memory"`
}

type MemoryStats struct {
	AllocMB      float64 `json:"alloc_mb"`
	TotalAllocMB float64 `json:"total_alloc_mb"`
	SysMB        float64 `json:"sys_mb"`
	NumGC        uint32  `json:"num_gc"`
}

type StoreHealth struct {
	Backend      string `json:"backend"`
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

func NewHealthChecker(db *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{db: db}
}

func (h *HealthChecker) CheckBasic() HealthStatus {
	storeHealth := h.checkStore()

	status := "healthy"
	if storeHealth.Status != "healthy" {
		status = "unhealthy"
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return HealthStatus{
		Status:     status,
		Store:      storeHealth,
		Goroutines: runtime.NumGoroutine(),
		Memory: MemoryStats{
			AllocMB:      float64(memStats.Alloc) / 1024 / 1024,
			TotalAllocMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			SysMB:        float64(memStats.Sys) / 1024 / 1024,
			NumGC:        memStats.NumGC,
		},
	}
}

func (h *HealthChecker) checkStore() StoreHealth {
	if h.db == nil {
		return StoreHealth{Backend: "memory", Status: "healthy"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return StoreHealth{Backend: "postgres", Status: "unhealthy", ResponseTime: responseTime}
	}
	return StoreHealth{Backend: "postgres", Status: "healthy", ResponseTime: responseTime}
}

// Handler serves the health status as JSON, with 503 when unhealthy
func (h *HealthChecker) Handler(w http.ResponseWriter, r *http.Request) {
	status := h.CheckBasic()

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}
