package repositories

import (
	"context"
	"errors"
	"fmt"

	"queue-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tokenColumns = `id, number, status, created_at, updated_at, served_at, served_by_counter_id`

// QueueRepository is the Postgres-backed queue store. Every public mutation
// runs as a single transaction so that head selection, counter checks and the
// resulting writes are indivisible; concurrent callers racing for the same
// token or counter resolve to exactly one winner.
type QueueRepository struct {
	DB *pgxpool.Pool
}

func NewQueueRepository(db *pgxpool.Pool) *QueueRepository {
	return &QueueRepository{DB: db}
}

// storeErr maps low-level failures onto the domain taxonomy. Context
// expiry and transport failures become ErrUnavailable; SQL-level errors
// and domain errors pass through untouched.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.ErrUnavailable
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Unique violation on the serving-counter index means two claims
		// raced for the same counter
		if pgErr.Code == "23505" {
			return models.ErrConcurrencyConflict
		}
		return err
	}
	var invalid *models.InvalidTransitionError
	if errors.As(err, &invalid) ||
		errors.Is(err, models.ErrEmptyQueue) ||
		errors.Is(err, models.ErrNoCounterSelected) ||
		errors.Is(err, models.ErrTokenNotFound) ||
		errors.Is(err, models.ErrConcurrencyConflict) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrUnavailable, err)
}

// headClaimError picks the error for a head selection that found no
// claimable row: a lost race when tokens are still waiting, an empty queue
// otherwise
func headClaimError(waiting int) error {
	if waiting > 0 {
		return models.ErrConcurrencyConflict
	}
	return models.ErrEmptyQueue
}

func scanToken(row pgx.Row) (*models.Token, error) {
	var t models.Token
	var status string
	err := row.Scan(&t.ID, &t.Number, &status, &t.CreatedAt, &t.UpdatedAt, &t.ServedAt, &t.ServedByCounterID)
	if err != nil {
		return nil, err
	}
	t.Status, err = models.ParseTokenStatus(status)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// IssueToken allocates the next sequence number and inserts a waiting token.
// The sequencer increment, the insert and the peak-queue-size update commit
// together, so a failed insert never consumes a number.
func (r *QueueRepository) IssueToken(ctx context.Context) (*models.Token, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	defer tx.Rollback(ctx)

	var number int
	err = tx.QueryRow(ctx, `
		UPDATE system_state
		SET next_token_number = next_token_number + 1, updated_at = NOW()
		WHERE id = 1
		RETURNING next_token_number - 1
	`).Scan(&number)
	if err != nil {
		return nil, storeErr(err)
	}

	token, err := scanToken(tx.QueryRow(ctx, `
		INSERT INTO tokens(id, number, status)
		VALUES($1, $2, 'waiting')
		RETURNING `+tokenColumns,
		uuid.NewString(), number,
	))
	if err != nil {
		return nil, storeErr(err)
	}

	var waiting int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM tokens WHERE status = 'waiting'`).Scan(&waiting)
	if err != nil {
		return nil, storeErr(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO daily_stats(stat_date, peak_queue_size)
		VALUES(CURRENT_DATE, $1)
		ON CONFLICT (stat_date) DO UPDATE
		SET peak_queue_size = GREATEST(daily_stats.peak_queue_size, EXCLUDED.peak_queue_size)
	`, waiting)
	if err != nil {
		return nil, storeErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr(err)
	}
	return token, nil
}

// ServeNext atomically claims the head of the waiting queue for a counter.
// The counter row is locked first so two claims for the same counter
// serialize; the head row is locked so two counters never take the same
// token.
func (r *QueueRepository) ServeNext(ctx context.Context, counterID int) (*models.Token, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	defer tx.Rollback(ctx)

	var active bool
	err = tx.QueryRow(ctx, `SELECT is_active FROM counters WHERE id = $1 FOR UPDATE`, counterID).Scan(&active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNoCounterSelected
		}
		return nil, storeErr(err)
	}
	if !active {
		return nil, models.ErrNoCounterSelected
	}

	var busy int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM tokens WHERE status = 'serving' AND served_by_counter_id = $1
	`, counterID).Scan(&busy)
	if err != nil {
		return nil, storeErr(err)
	}
	if busy > 0 {
		return nil, models.ErrConcurrencyConflict
	}

	var headID string
	err = tx.QueryRow(ctx, `
		SELECT id FROM tokens
		WHERE status = 'waiting'
		ORDER BY number ASC
		LIMIT 1
		FOR UPDATE
	`).Scan(&headID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Under READ COMMITTED a LIMIT+FOR UPDATE scan that blocked on
			// another claim and lost the predicate re-check returns zero
			// rows even when later tokens are still waiting. Re-count to
			// distinguish a lost race from a genuinely empty queue.
			var waiting int
			if cErr := tx.QueryRow(ctx, `SELECT COUNT(*) FROM tokens WHERE status = 'waiting'`).Scan(&waiting); cErr != nil {
				return nil, storeErr(cErr)
			}
			return nil, headClaimError(waiting)
		}
		return nil, storeErr(err)
	}

	token, err := scanToken(tx.QueryRow(ctx, `
		UPDATE tokens
		SET status = 'serving', served_by_counter_id = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'waiting'
		RETURNING `+tokenColumns,
		counterID, headID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrConcurrencyConflict
		}
		return nil, storeErr(err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE system_state SET current_serving_number = $1, updated_at = NOW() WHERE id = 1
	`, token.Number)
	if err != nil {
		return nil, storeErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr(err)
	}
	return token, nil
}

// SkipCurrent transitions the head of the waiting queue to skipped
func (r *QueueRepository) SkipCurrent(ctx context.Context) (*models.Token, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	defer tx.Rollback(ctx)

	var headID string
	err = tx.QueryRow(ctx, `
		SELECT id FROM tokens
		WHERE status = 'waiting'
		ORDER BY number ASC
		LIMIT 1
		FOR UPDATE
	`).Scan(&headID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var waiting int
			if cErr := tx.QueryRow(ctx, `SELECT COUNT(*) FROM tokens WHERE status = 'waiting'`).Scan(&waiting); cErr != nil {
				return nil, storeErr(cErr)
			}
			return nil, headClaimError(waiting)
		}
		return nil, storeErr(err)
	}

	token, err := scanToken(tx.QueryRow(ctx, `
		UPDATE tokens
		SET status = 'skipped', updated_at = NOW()
		WHERE id = $1 AND status = 'waiting'
		RETURNING `+tokenColumns,
		headID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrConcurrencyConflict
		}
		return nil, storeErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr(err)
	}
	return token, nil
}

// MarkServed completes a serving token and folds its wait time into today's
// stats in the same transaction
func (r *QueueRepository) MarkServed(ctx context.Context, tokenID string) (*models.Token, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM tokens WHERE id = $1 FOR UPDATE`, tokenID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrTokenNotFound
		}
		return nil, storeErr(err)
	}
	if err := models.EnsureTransition(models.TokenStatus(status), models.StatusServed); err != nil {
		return nil, err
	}

	token, err := scanToken(tx.QueryRow(ctx, `
		UPDATE tokens
		SET status = 'served', served_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'serving'
		RETURNING `+tokenColumns,
		tokenID,
	))
	if err != nil {
		return nil, storeErr(err)
	}

	waitMinutes := token.WaitSoFar(*token.ServedAt)
	_, err = tx.Exec(ctx, `
		INSERT INTO daily_stats(stat_date, tokens_served_today, total_wait_minutes, tokens_processed)
		VALUES(CURRENT_DATE, 1, $1, 1)
		ON CONFLICT (stat_date) DO UPDATE
		SET tokens_served_today = daily_stats.tokens_served_today + 1,
		    total_wait_minutes = daily_stats.total_wait_minutes + EXCLUDED.total_wait_minutes,
		    tokens_processed = daily_stats.tokens_processed + 1
	`, waitMinutes)
	if err != nil {
		return nil, storeErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr(err)
	}
	return token, nil
}

// ReturnToQueue puts a serving token back into the waiting set. Its original
// number is untouched, so it re-enters at its old position.
func (r *QueueRepository) ReturnToQueue(ctx context.Context, tokenID string) (*models.Token, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM tokens WHERE id = $1 FOR UPDATE`, tokenID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrTokenNotFound
		}
		return nil, storeErr(err)
	}
	if err := models.EnsureTransition(models.TokenStatus(status), models.StatusWaiting); err != nil {
		return nil, err
	}

	token, err := scanToken(tx.QueryRow(ctx, `
		UPDATE tokens
		SET status = 'waiting', served_by_counter_id = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'serving'
		RETURNING `+tokenColumns,
		tokenID,
	))
	if err != nil {
		return nil, storeErr(err)
	}

	// The waiting set just grew; the peak tracks every committed state,
	// not only issuance
	var waiting int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM tokens WHERE status = 'waiting'`).Scan(&waiting)
	if err != nil {
		return nil, storeErr(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO daily_stats(stat_date, peak_queue_size)
		VALUES(CURRENT_DATE, $1)
		ON CONFLICT (stat_date) DO UPDATE
		SET peak_queue_size = GREATEST(daily_stats.peak_queue_size, EXCLUDED.peak_queue_size)
	`, waiting)
	if err != nil {
		return nil, storeErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr(err)
	}
	return token, nil
}

// ResetQueue bulk-skips every waiting and serving token and clears the
// currently-serving display number. Daily stats are left alone.
func (r *QueueRepository) ResetQueue(ctx context.Context) (int, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return 0, storeErr(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE tokens
		SET status = 'skipped', served_by_counter_id = NULL, updated_at = NOW()
		WHERE status IN ('waiting', 'serving')
	`)
	if err != nil {
		return 0, storeErr(err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE system_state SET current_serving_number = NULL, updated_at = NOW() WHERE id = 1
	`)
	if err != nil {
		return 0, storeErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, storeErr(err)
	}
	return int(tag.RowsAffected()), nil
}

// ResetStats zeroes today's stats row without touching the queue
func (r *QueueRepository) ResetStats(ctx context.Context) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO daily_stats(stat_date)
		VALUES(CURRENT_DATE)
		ON CONFLICT (stat_date) DO UPDATE
		SET tokens_served_today = 0,
		    peak_queue_size = 0,
		    total_wait_minutes = 0,
		    tokens_processed = 0
	`)
	return storeErr(err)
}

// GetToken fetches a token by id
func (r *QueueRepository) GetToken(ctx context.Context, id string) (*models.Token, error) {
	token, err := scanToken(r.DB.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrTokenNotFound
		}
		return nil, storeErr(err)
	}
	return token, nil
}

// ListTodayTokens returns today's tokens ordered by number. Terminal tokens
// stay visible for the rest of the day.
func (r *QueueRepository) ListTodayTokens(ctx context.Context) ([]models.Token, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+tokenColumns+`
		FROM tokens
		WHERE created_at >= CURRENT_DATE
		ORDER BY number ASC
	`)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var tokens []models.Token
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		tokens = append(tokens, *token)
	}
	return tokens, storeErr(rows.Err())
}

// WaitingCount returns the current depth of the waiting queue
func (r *QueueRepository) WaitingCount(ctx context.Context) (int, error) {
	var count int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM tokens WHERE status = 'waiting'`).Scan(&count)
	return count, storeErr(err)
}

// ListCounters returns all registered counters
func (r *QueueRepository) ListCounters(ctx context.Context) ([]models.Counter, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, is_active, created_at FROM counters ORDER BY id ASC
	`)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var counters []models.Counter
	for rows.Next() {
		var c models.Counter
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, storeErr(err)
		}
		counters = append(counters, c)
	}
	return counters, storeErr(rows.Err())
}

// CreateCounter registers a new active counter
func (r *QueueRepository) CreateCounter(ctx context.Context, name string) (*models.Counter, error) {
	var c models.Counter
	err := r.DB.QueryRow(ctx, `
		INSERT INTO counters(name) VALUES($1)
		RETURNING id, name, is_active, created_at
	`, name).Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, storeErr(err)
	}
	return &c, nil
}

// SetCounterActive toggles a counter's active flag
func (r *QueueRepository) SetCounterActive(ctx context.Context, id int, active bool) (*models.Counter, error) {
	var c models.Counter
	err := r.DB.QueryRow(ctx, `
		UPDATE counters SET is_active = $2 WHERE id = $1
		RETURNING id, name, is_active, created_at
	`, id, active).Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNoCounterSelected
		}
		return nil, storeErr(err)
	}
	return &c, nil
}

// GetSystemState reads the sequencer/display singleton
func (r *QueueRepository) GetSystemState(ctx context.Context) (*models.SystemState, error) {
	var s models.SystemState
	err := r.DB.QueryRow(ctx, `
		SELECT next_token_number, current_serving_number, updated_at FROM system_state WHERE id = 1
	`).Scan(&s.NextTokenNumber, &s.CurrentServingNumber, &s.UpdatedAt)
	if err != nil {
		return nil, storeErr(err)
	}
	return &s, nil
}

// TodayStats reads today's stats row; a day with no activity yet reads as
// all zeroes
func (r *QueueRepository) TodayStats(ctx context.Context) (*models.DailyStats, error) {
	var s models.DailyStats
	err := r.DB.QueryRow(ctx, `
		SELECT stat_date, tokens_served_today, peak_queue_size, total_wait_minutes, tokens_processed
		FROM daily_stats WHERE stat_date = CURRENT_DATE
	`).Scan(&s.StatDate, &s.TokensServed, &s.PeakQueueSize, &s.TotalWaitMinutes, &s.TokensProcessed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.DailyStats{StatDate: todayDate()}, nil
		}
		return nil, storeErr(err)
	}
	return &s, nil
}
