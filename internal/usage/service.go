package usage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event is an immutable, append-only feature-usage record.
//
// Invariants:
// - Events are never updated or deleted.
// - Logging is best-effort; call flow must never block on usage failures.

type Event struct {
	ID         string `json:"id" db:"id"`
	BusinessID string `json:"business_id" db:"business_id"`

	Feature Feature `json:"feature" db:"feature"`

	CallID string `json:"call_id,omitempty" db:"call_id"`

	// Metadata is optional JSON for analytics.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Feature string

const (
	FeatureAppointmentScheduled Feature = "appointment_scheduled"
	FeatureCallAnswered         Feature = "call_answered"
	FeatureCallForwarded        Feature = "call_forwarded"
)

// Repository is the persistence contract for usage events.
// It MUST be append-only; no Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

var ErrInvalidEvent = errors.New("usage: invalid event")

// Service logs feature usage for analytics and tier accounting.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("usage: repository not configured")
	}
	if e.Feature == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogFeature records one feature use against a tenant.
func (s *Service) LogFeature(ctx context.Context, businessID string, feature Feature, callID, metadata string) error {
	return s.Append(ctx, Event{
		BusinessID: businessID,
		Feature:    feature,
		CallID:     callID,
		Metadata:   metadata,
	})
}
