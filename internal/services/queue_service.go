package services

import (
	"context"
	"log"
	"time"

	"queue-backend/internal/metrics"
	"queue-backend/internal/models"
)

// QueueStore is the transactional store contract the orchestrator runs on.
// Every mutation executes as a single atomic unit: head selection, counter
// checks and the resulting writes are indivisible, and daily-stats updates
// commit together with the state change that produced them. Implemented by
// repositories.QueueRepository (Postgres) and
// repositories.MemoryQueueRepository.
type QueueStore interface {
	IssueToken(ctx context.Context) (*models.Token, error)
	ServeNext(ctx context.Context, counterID int) (*models.Token, error)
	SkipCurrent(ctx context.Context) (*models.Token, error)
	MarkServed(ctx context.Context, tokenID string) (*models.Token, error)
	ReturnToQueue(ctx context.Context, tokenID string) (*models.Token, error)
	ResetQueue(ctx context.Context) (int, error)
	ResetStats(ctx context.Context) error

	GetToken(ctx context.Context, id string) (*models.Token, error)
	ListTodayTokens(ctx context.Context) ([]models.Token, error)
	WaitingCount(ctx context.Context) (int, error)
	ListCounters(ctx context.Context) ([]models.Counter, error)
	CreateCounter(ctx context.Context, name string) (*models.Counter, error)
	SetCounterActive(ctx context.Context, id int, active bool) (*models.Counter, error)
	GetSystemState(ctx context.Context) (*models.SystemState, error)
	TodayStats(ctx context.Context) (*models.DailyStats, error)
}

// SnapshotPublisher receives the authoritative snapshot after every
// committed mutation. Delivery must not block the calling request.
type SnapshotPublisher interface {
	PublishSnapshot(snapshot *models.Snapshot)
}

// QueueService orchestrates the public queue operations: it bounds every
// store call with a timeout, keeps the Prometheus gauges current and pushes
// a fresh snapshot to subscribers after each committed change.
type QueueService struct {
	store     QueueStore
	notifier  SnapshotPublisher
	opTimeout time.Duration
}

func NewQueueService(store QueueStore, notifier SnapshotPublisher, opTimeout time.Duration) *QueueService {
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	return &QueueService{
		store:     store,
		notifier:  notifier,
		opTimeout: opTimeout,
	}
}

func (s *QueueService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// IssueToken creates a new waiting token with the next sequence number
func (s *QueueService) IssueToken(ctx context.Context) (*models.Token, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	token, err := s.store.IssueToken(opCtx)
	if err != nil {
		return nil, err
	}

	metrics.TokensIssued.Inc()
	log.Printf("[Queue] Issued token #%d (%s)", token.Number, token.ID)
	s.publishSnapshot()
	return token, nil
}

// ServeNext claims the head of the waiting queue for the given counter
func (s *QueueService) ServeNext(ctx context.Context, counterID int) (*models.Token, error) {
	if counterID <= 0 {
		return nil, models.ErrNoCounterSelected
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	token, err := s.store.ServeNext(opCtx, counterID)
	if err != nil {
		return nil, err
	}

	log.Printf("[Queue] Serving token #%d on counter %d", token.Number, counterID)
	s.publishSnapshot()
	return token, nil
}

// SkipCurrent moves the head of the waiting queue to skipped
func (s *QueueService) SkipCurrent(ctx context.Context) (*models.Token, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	token, err := s.store.SkipCurrent(opCtx)
	if err != nil {
		return nil, err
	}

	metrics.TokensSkipped.Inc()
	log.Printf("[Queue] Skipped token #%d", token.Number)
	s.publishSnapshot()
	return token, nil
}

// MarkServed completes a serving token and records its wait time
func (s *QueueService) MarkServed(ctx context.Context, tokenID string) (*models.Token, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	token, err := s.store.MarkServed(opCtx, tokenID)
	if err != nil {
		return nil, err
	}

	metrics.TokensServed.Inc()
	log.Printf("[Queue] Served token #%d", token.Number)
	s.publishSnapshot()
	return token, nil
}

// ReturnToQueue puts a serving token back into the waiting set at its
// original position
func (s *QueueService) ReturnToQueue(ctx context.Context, tokenID string) (*models.Token, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	token, err := s.store.ReturnToQueue(opCtx, tokenID)
	if err != nil {
		return nil, err
	}

	log.Printf("[Queue] Returned token #%d to queue", token.Number)
	s.publishSnapshot()
	return token, nil
}

// ResetQueue skips every waiting and serving token. Daily stats survive.
func (s *QueueService) ResetQueue(ctx context.Context) error {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	cleared, err := s.store.ResetQueue(opCtx)
	if err != nil {
		return err
	}

	log.Printf("[Queue] Queue reset, %d token(s) cleared", cleared)
	s.publishSnapshot()
	return nil
}

// ResetStats zeroes today's stats. The queue itself is untouched.
func (s *QueueService) ResetStats(ctx context.Context) error {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.store.ResetStats(opCtx); err != nil {
		return err
	}

	log.Println("[Queue] Daily stats reset")
	s.publishSnapshot()
	return nil
}

// GetToken fetches one token by id
func (s *QueueService) GetToken(ctx context.Context, id string) (*models.Token, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.store.GetToken(opCtx, id)
}

// ListCounters returns all registered counters
func (s *QueueService) ListCounters(ctx context.Context) ([]models.Counter, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.store.ListCounters(opCtx)
}

// CreateCounter registers a new counter
func (s *QueueService) CreateCounter(ctx context.Context, name string) (*models.Counter, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	counter, err := s.store.CreateCounter(opCtx, name)
	if err != nil {
		return nil, err
	}
	s.publishSnapshot()
	return counter, nil
}

// SetCounterActive toggles a counter's availability for assignment
func (s *QueueService) SetCounterActive(ctx context.Context, id int, active bool) (*models.Counter, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	counter, err := s.store.SetCounterActive(opCtx, id, active)
	if err != nil {
		return nil, err
	}
	s.publishSnapshot()
	return counter, nil
}

// TodayStats reads today's throughput counters
func (s *QueueService) TodayStats(ctx context.Context) (*models.DailyStats, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.store.TodayStats(opCtx)
}

// Snapshot assembles the full authoritative state for clients and
// subscribers
func (s *QueueService) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	tokens, err := s.store.ListTodayTokens(opCtx)
	if err != nil {
		return nil, err
	}
	counters, err := s.store.ListCounters(opCtx)
	if err != nil {
		return nil, err
	}
	state, err := s.store.GetSystemState(opCtx)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.TodayStats(opCtx)
	if err != nil {
		return nil, err
	}
	waiting, err := s.store.WaitingCount(opCtx)
	if err != nil {
		return nil, err
	}

	metrics.QueueDepth.Set(float64(waiting))

	return &models.Snapshot{
		Tokens:       tokens,
		Counters:     counters,
		State:        *state,
		Stats:        *stats,
		WaitingCount: waiting,
		GeneratedAt:  time.Now(),
	}, nil
}

// publishSnapshot hands the post-commit state to the notifier. The snapshot
// is built synchronously so pushes stay ordered; delivery to subscribers is
// the hub's problem and never blocks the mutating request.
func (s *QueueService) publishSnapshot() {
	if s.notifier == nil {
		return
	}

	snapshot, err := s.Snapshot(context.Background())
	if err != nil {
		log.Printf("[Queue] Failed to build snapshot for subscribers: %v", err)
		return
	}
	s.notifier.PublishSnapshot(snapshot)
}
