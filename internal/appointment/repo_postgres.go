package appointment

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresBooker persists appointments.
//
// Rows are insert-only from this service; status transitions happen from the
// dashboard. created_by marks AI-originated bookings.
type PostgresBooker struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresBooker(db *sql.DB) *PostgresBooker {
	return &PostgresBooker{db: db, clock: time.Now}
}

func (b *PostgresBooker) Book(ctx context.Context, req Request) (Booking, error) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	var vehicleRaw any
	if req.Vehicle != nil {
		raw, err := json.Marshal(req.Vehicle)
		if err != nil {
			return Booking{}, fmt.Errorf("appointment: encode vehicle: %w", err)
		}
		vehicleRaw = raw
	}

	now := b.clock().UTC()
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO appointments (
			id, business_id, call_id,
			customer_name, customer_phone, service_type,
			appointment_date, appointment_time,
			vehicle_info, notes, status, created_by, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,'scheduled','ai',$11)`,
		id, req.BusinessID, req.CallID,
		req.CustomerName, req.CustomerPhone, req.Service,
		req.Date, req.Time,
		vehicleRaw, nullString(req.Notes), now,
	)
	if err != nil {
		return Booking{}, fmt.Errorf("appointment: insert: %w", err)
	}
	return Booking{ID: id}, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// MemoryBooker records bookings in memory for tests.
type MemoryBooker struct {
	Requests []Request

	// Err, when set, makes every Book call fail.
	Err error
}

func (b *MemoryBooker) Book(ctx context.Context, req Request) (Booking, error) {
	if b.Err != nil {
		return Booking{}, b.Err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	b.Requests = append(b.Requests, req)
	return Booking{ID: req.ID}, nil
}
