package appointment

import (
	"context"
	"errors"
	"time"
)

// Sentinels wrap the structured block the generation collaborator emits when
// it has gathered every field needed to book. The exact spelling is part of
// the prompt contract; changing it breaks extraction for in-flight prompts.
const (
	BeginSentinel = "SCHEDULE_APPOINTMENT"
	EndSentinel   = "END_APPOINTMENT"
)

// Request is a validated booking request parsed from agent text.
//
// It is created at most once per agent turn and is terminal once handed to
// the booking collaborator; this core never mutates it afterwards.
type Request struct {
	ID         string `json:"id,omitempty" db:"id"`
	BusinessID string `json:"business_id" db:"business_id"`
	CallID     string `json:"call_id" db:"call_id"`

	Service string `json:"service_type" db:"service_type"`
	Date    string `json:"appointment_date" db:"appointment_date"` // YYYY-MM-DD
	Time    string `json:"appointment_time" db:"appointment_time"` // HH:MM, 24h

	CustomerName  string `json:"customer_name" db:"customer_name"`
	CustomerPhone string `json:"customer_phone" db:"customer_phone"`

	// Vehicle is nil unless the parsed descriptor decomposed into at least
	// year+make+model tokens.
	Vehicle *Vehicle `json:"vehicle_info,omitempty" db:"vehicle_info"`

	Notes string `json:"notes,omitempty" db:"notes"`
}

type Vehicle struct {
	Year  string `json:"year"`
	Make  string `json:"make"`
	Model string `json:"model"`
}

var ErrInvalid = errors.New("appointment: invalid request")

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Validate enforces the booking invariants: required fields non-empty,
// date/time well-formed and in the future relative to call time.
func (r Request) Validate(now time.Time) error {
	if r.Service == "" {
		return wrap("service is required")
	}
	if r.CustomerName == "" {
		return wrap("customer name is required")
	}
	if r.CustomerPhone == "" {
		return wrap("customer phone is required")
	}

	d, err := time.ParseInLocation(dateLayout, r.Date, now.Location())
	if err != nil {
		return wrap("date must be YYYY-MM-DD")
	}
	t, err := time.Parse(timeLayout, r.Time)
	if err != nil {
		return wrap("time must be HH:MM")
	}

	at := time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	if !at.After(now) {
		return wrap("appointment must be in the future")
	}
	return nil
}

func wrap(msg string) error {
	return errors.Join(ErrInvalid, errors.New("appointment: "+msg))
}

// Booking is the booking collaborator's confirmation.
type Booking struct {
	ID string `json:"id"`
}

// Booker persists a validated appointment. Failure means no confirmation is
// spoken; the conversation continues regardless.
type Booker interface {
	Book(ctx context.Context, req Request) (Booking, error)
}

// Confirmation is the sentence appended to the spoken reply once booking
// succeeds.
func Confirmation(r Request) string {
	return "Perfect! I've scheduled your " + r.Service + " for " + r.Date + " at " + r.Time + ". You'll receive a confirmation text shortly."
}
