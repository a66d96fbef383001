package usage

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRepo appends usage events to Postgres.
// The table should carry an INSERT-only policy.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feature_usage (id, business_id, feature, call_id, metadata, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.BusinessID, string(e.Feature), nullable(e.CallID), nullable(e.Metadata), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("usage: append: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
