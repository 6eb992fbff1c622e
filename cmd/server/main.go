package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"queue-backend/internal/config"
	"queue-backend/internal/database"
	"queue-backend/internal/db"
	"queue-backend/internal/handlers"
	"queue-backend/internal/health"
	h "queue-backend/internal/http"
	"queue-backend/internal/middleware"
	"queue-backend/internal/services"
	"queue-backend/internal/ws"
	"queue-backend/migrations"

	"queue-backend/internal/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	store := flag.String("store", "postgres", "Queue store backend: postgres or memory")
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	// Load .env, then configuration
	if err := godotenv.Load(); err == nil {
		log.Println("[Config] Loaded .env")
	}
	cfg := config.Load()

	if *port != 0 {
		cfg.Server.Port = *port
	}

	// Select the queue store backend
	var queueStore services.QueueStore
	var pool *pgxpool.Pool

	switch *store {
	case "postgres":
		pool = db.Connect(cfg)
		defer pool.Close()

		migrator := database.NewMigrator(pool, migrations.FS)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := migrator.RunMigrations(ctx); err != nil {
			cancel()
			log.Fatalf("Migrations failed: %v", err)
		}
		cancel()

		queueStore = repositories.NewQueueRepository(pool)

	case "memory":
		log.Println("[Store] Using in-memory queue store (state is lost on restart)")
		mem := repositories.NewMemoryQueueRepository()
		seedMemoryCounters(mem)
		queueStore = mem

	default:
		log.Fatalf("Unknown store backend %q (want postgres or memory)", *store)
	}

	// Background goroutines (hub, occupancy poller) stop when this is
	// cancelled
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// Snapshot hub for displays and admin consoles
	hub := ws.NewHub()
	go hub.Run(bgCtx)

	// Core services
	queueService := services.NewQueueService(queueStore, hub, cfg.Server.OpTimeout())
	estimator := services.NewWaitEstimator(queueStore, cfg.Occupancy.AvgServiceMinutes)

	// Background poll of the external occupancy sensor
	poller := services.NewOccupancyPoller(cfg.Occupancy.FeedURL, cfg.Occupancy.PollInterval(), estimator)
	poller.Start(bgCtx)

	// Handlers
	queueHandler := handlers.NewQueueHandler(queueService)
	counterHandler := handlers.NewCounterHandler(queueService)
	statsHandler := handlers.NewStatsHandler(queueService, estimator)
	wsHandler := handlers.NewWSHandler(hub)
	monitoringHandler := handlers.NewMonitoringHandler()
	healthChecker := health.NewHealthChecker(pool)

	// Anonymous customers hit the issue endpoint; cap it per IP
	issueLimiter := middleware.NewRateLimiter(30, time.Minute)
	defer issueLimiter.Stop()

	router := h.NewRouter(queueHandler, counterHandler, statsHandler, wsHandler, monitoringHandler, healthChecker, issueLimiter)

	corsMiddleware := middleware.NewCORS(cfg)
	handler := corsMiddleware(
		middleware.SecurityHeaders(
			middleware.RequestMetrics(
				middleware.GzipCompression(router))))

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s (store: %s)", addr, *store)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// seedMemoryCounters mirrors the migration seed so memory mode can serve
// out of the box
func seedMemoryCounters(mem *repositories.MemoryQueueRepository) {
	ctx := context.Background()
	for _, name := range []string{"Counter 1", "Counter 2", "Counter 3"} {
		if _, err := mem.CreateCounter(ctx, name); err != nil {
			log.Printf("[Store] Failed to seed counter %q: %v", name, err)
		}
	}
}
