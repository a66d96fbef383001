package business

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresRepo reads tenant configuration from Postgres.
//
// The schedule columns are JSONB; the dashboard writes them in the same shape
// WeeklyHours marshals to, so decoding is symmetric.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const configColumns = `
	id, name, phone_number, forward_number, routing_mode,
	business_hours, ai_schedule, tone, business_info, additional_instructions,
	can_schedule, notification_phone, notify_on_call, created_at, updated_at`

func (r *PostgresRepo) ByNumber(ctx context.Context, phoneNumber string) (Config, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+configColumns+` FROM business_configs WHERE phone_number = $1`,
		phoneNumber,
	)
	return scanConfig(row)
}

func scanConfig(row *sql.Row) (Config, error) {
	var (
		c          Config
		mode       string
		forward    sql.NullString
		hoursRaw   []byte
		schedRaw   []byte
		instr      sql.NullString
		notifPhone sql.NullString
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.PhoneNumber, &forward, &mode,
		&hoursRaw, &schedRaw, &c.Tone, &c.BusinessInfo, &instr,
		&c.CanSchedule, &notifPhone, &c.NotifyOnCall, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Config{}, ErrNotFound
	}
	if err != nil {
		return Config{}, fmt.Errorf("business: scan config: %w", err)
	}

	c.ForwardNumber = forward.String
	c.Instructions = instr.String
	c.NotificationPhone = notifPhone.String
	c.Mode = ParseMode(mode)

	if len(hoursRaw) > 0 {
		if err := json.Unmarshal(hoursRaw, &c.Hours); err != nil {
			return Config{}, fmt.Errorf("business: decode business_hours: %w", err)
		}
	} else {
		c.Hours = DefaultHours()
	}
	if len(schedRaw) > 0 {
		var sched WeeklyHours
		if err := json.Unmarshal(schedRaw, &sched); err != nil {
			return Config{}, fmt.Errorf("business: decode ai_schedule: %w", err)
		}
		c.AISchedule = &sched
	}
	return c, nil
}
