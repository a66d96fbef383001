package calls

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for call records.
//
// Writes are fire-and-forget from the call pipeline's perspective: a failed
// insert is logged by the caller, never surfaced to the telephony layer.
type Repository interface {
	Insert(ctx context.Context, c Call) (Call, error)
}

// PostgresRepo stores call records in Postgres.
type PostgresRepo struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db, clock: time.Now}
}

func (r *PostgresRepo) Insert(ctx context.Context, c Call) (Call, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := r.clock().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO calls (
			id, call_id, business_id, from_number, to_number,
			status, duration, transcript, summary, recording_url,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		c.ID, c.CallID, nullable(c.BusinessID), c.From, c.To,
		string(c.Status), c.DurationSeconds, nullable(c.Transcript),
		nullable(c.Summary), nullable(c.RecordingURL),
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return Call{}, fmt.Errorf("calls: insert: %w", err)
	}
	return c, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// MemoryRepo is a simple in-memory repository useful for tests.
type MemoryRepo struct {
	mu    sync.Mutex
	calls []Call
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Insert(ctx context.Context, c Call) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.calls = append(r.calls, c)
	return c, nil
}

func (r *MemoryRepo) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}
