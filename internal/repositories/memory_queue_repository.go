package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"queue-backend/internal/models"

	"github.com/google/uuid"
)

// todayDate truncates now to the local calendar date, the key used for
// daily stats buckets
func todayDate() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// MemoryQueueRepository is the in-memory queue store used in development
// mode and in tests. It provides the same atomic-claim contract as the
// Postgres store through a single mutex.
type MemoryQueueRepository struct {
	mu sync.Mutex

	tokens        map[string]*models.Token
	nextNumber    int
	currentNumber *int
	stateUpdated  time.Time

	counters      map[int]*models.Counter
	nextCounterID int

	stats map[string]*models.DailyStats
}

func NewMemoryQueueRepository() *MemoryQueueRepository {
	return &MemoryQueueRepository{
		tokens:        make(map[string]*models.Token),
		nextNumber:    1,
		counters:      make(map[int]*models.Counter),
		nextCounterID: 1,
		stats:         make(map[string]*models.DailyStats),
	}
}

// todayStatsLocked returns today's stats bucket, creating a zero row on the
// first access of a new day. Caller must hold mu.
func (r *MemoryQueueRepository) todayStatsLocked() *models.DailyStats {
	key := models.DayKey(time.Now())
	if s, ok := r.stats[key]; ok {
		return s
	}
	s := &models.DailyStats{StatDate: todayDate()}
	r.stats[key] = s
	return s
}

// waitingLocked returns the waiting tokens ordered by number. Caller must
// hold mu.
func (r *MemoryQueueRepository) waitingLocked() []*models.Token {
	var waiting []*models.Token
	for _, t := range r.tokens {
		if t.Status == models.StatusWaiting {
			waiting = append(waiting, t)
		}
	}
	sort.Slice(waiting, func(i, j int) bool { return waiting[i].Number < waiting[j].Number })
	return waiting
}

func (r *MemoryQueueRepository) IssueToken(ctx context.Context) (*models.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrUnavailable
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	token := &models.Token{
		ID:        uuid.NewString(),
		Number:    r.nextNumber,
		Status:    models.StatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.nextNumber++
	r.stateUpdated = now
	r.tokens[token.ID] = token

	stats := r.todayStatsLocked()
	if waiting := len(r.waitingLocked()); waiting > stats.PeakQueueSize {
		stats.PeakQueueSize = waiting
	}

	copied := *token
	return &copied, nil
}

func (r *MemoryQueueRepository) ServeNext(ctx context.Context, counterID int) (*models.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrUnavailable
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	counter, ok := r.counters[counterID]
	if !ok || !counter.IsActive {
		return nil, models.ErrNoCounterSelected
	}

	for _, t := range r.tokens {
		if t.Status == models.StatusServing && t.ServedByCounterID != nil && *t.ServedByCounterID == counterID {
			return nil, models.ErrConcurrencyConflict
		}
	}

	waiting := r.waitingLocked()
	if len(waiting) == 0 {
		return nil, models.ErrEmptyQueue
	}

	head := waiting[0]
	now := time.Now()
	head.Status = models.StatusServing
	head.ServedByCounterID = &counterID
	head.UpdatedAt = now

	num := head.Number
	r.currentNumber = &num
	r.stateUpdated = now

	copied := *head
	return &copied, nil
}

func (r *MemoryQueueRepository) SkipCurrent(ctx context.Context) (*models.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrUnavailable
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	waiting := r.waitingLocked()
	if len(waiting) == 0 {
		return nil, models.ErrEmptyQueue
	}

	head := waiting[0]
	head.Status = models.StatusSkipped
	head.UpdatedAt = time.Now()

	copied := *head
	return &copied, nil
}

func (r *MemoryQueueRepository) MarkServed(ctx context.Context, tokenID string) (*models.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrUnavailable
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[tokenID]
	if !ok {
		return nil, models.ErrTokenNotFound
	}
	if err := models.EnsureTransition(token.Status, models.StatusServed); err != nil {
		return nil, err
	}

	now := time.Now()
	token.Status = models.StatusServed
	token.ServedAt = &now
	token.UpdatedAt = now

	stats := r.todayStatsLocked()
	stats.TokensServed++
	stats.TokensProcessed++
	stats.TotalWaitMinutes += token.WaitSoFar(now)

	copied := *token
	return &copied, nil
}

func (r *MemoryQueueRepository) ReturnToQueue(ctx context.Context, tokenID string) (*models.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrUnavailable
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[tokenID]
	if !ok {
		return nil, models.ErrTokenNotFound
	}
	if err := models.EnsureTransition(token.Status, models.StatusWaiting); err != nil {
		return nil, err
	}

	token.Status = models.StatusWaiting
	token.ServedByCounterID = nil
	token.UpdatedAt = time.Now()

	// The waiting set just grew; the peak tracks every committed state,
	// not only issuance
	stats := r.todayStatsLocked()
	if waiting := len(r.waitingLocked()); waiting > stats.PeakQueueSize {
		stats.PeakQueueSize = waiting
	}

	copied := *token
	return &copied, nil
}

func (r *MemoryQueueRepository) ResetQueue(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, models.ErrUnavailable
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cleared := 0
	for _, t := range r.tokens {
		if t.Status == models.StatusWaiting || t.Status == models.StatusServing {
			t.Status = models.StatusSkipped
			t.ServedByCounterID = nil
			t.UpdatedAt = now
			cleared++
		}
	}
	r.currentNumber = nil
	r.stateUpdated = now
	return cleared, nil
}

func (r *MemoryQueueRepository) ResetStats(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return models.ErrUnavailable
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats[models.DayKey(time.Now())] = &models.DailyStats{StatDate: todayDate()}
	return nil
}

func (r *MemoryQueueRepository) GetToken(ctx context.Context, id string) (*models.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[id]
	if !ok {
		return nil, models.ErrTokenNotFound
	}
	copied := *token
	return &copied, nil
}

func (r *MemoryQueueRepository) ListTodayTokens(ctx context.Context) ([]models.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := todayDate()
	var tokens []models.Token
	for _, t := range r.tokens {
		if !t.CreatedAt.Before(start) {
			tokens = append(tokens, *t)
		}
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Number < tokens[j].Number })
	return tokens, nil
}

func (r *MemoryQueueRepository) WaitingCount(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waitingLocked()), nil
}

func (r *MemoryQueueRepository) ListCounters(ctx context.Context) ([]models.Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var counters []models.Counter
	for _, c := range r.counters {
		counters = append(counters, *c)
	}
	sort.Slice(counters, func(i, j int) bool { return counters[i].ID < counters[j].ID })
	return counters, nil
}

func (r *MemoryQueueRepository) CreateCounter(ctx context.Context, name string) (*models.Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &models.Counter{
		ID:        r.nextCounterID,
		Name:      name,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	r.nextCounterID++
	r.counters[c.ID] = c

	copied := *c
	return &copied, nil
}

func (r *MemoryQueueRepository) SetCounterActive(ctx context.Context, id int, active bool) (*models.Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.counters[id]
	if !ok {
		return nil, models.ErrNoCounterSelected
	}
	c.IsActive = active

	copied := *c
	return &copied, nil
}

func (r *MemoryQueueRepository) GetSystemState(ctx context.Context) (*models.SystemState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := &models.SystemState{
		NextTokenNumber: r.nextNumber,
		UpdatedAt:       r.stateUpdated,
	}
	if r.currentNumber != nil {
		num := *r.currentNumber
		state.CurrentServingNumber = &num
	}
	return state, nil
}

func (r *MemoryQueueRepository) TodayStats(ctx context.Context) (*models.DailyStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *r.todayStatsLocked()
	return &copied, nil
}
