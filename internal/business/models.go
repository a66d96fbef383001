package business

import (
	"strconv"
	"strings"
	"time"
)

// Config is the per-tenant snapshot the call pipeline reads.
//
// Ownership: rows are written by the dashboard, never by this service.
// The pipeline treats a loaded Config as immutable for the duration of a call.

type Config struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`

	// ForwardNumber is the human line calls are handed to when routing
	// decides against the AI. Empty means the AI is the only option.
	ForwardNumber string      `json:"forward_number,omitempty" db:"forward_number"`
	Mode          RoutingMode `json:"routing_mode" db:"routing_mode"`

	Hours WeeklyHours `json:"business_hours" db:"business_hours"`

	// AISchedule is an independent AI-active schedule used by ModeCustomSchedule.
	// Nil means no custom schedule is configured.
	AISchedule *WeeklyHours `json:"ai_schedule,omitempty" db:"ai_schedule"`

	// Persona fields fed into prompt construction.
	Tone         string `json:"tone" db:"tone"`
	BusinessInfo string `json:"business_info" db:"business_info"`
	Instructions string `json:"additional_instructions,omitempty" db:"additional_instructions"`

	// CanSchedule gates the appointment protocol (subscription tier feature).
	CanSchedule bool `json:"can_schedule" db:"can_schedule"`

	NotificationPhone string `json:"notification_phone,omitempty" db:"notification_phone"`
	NotifyOnCall      bool   `json:"notify_on_call" db:"notify_on_call"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RoutingMode is a closed enumeration; unknown stored values parse to
// ModeAfterHours so a bad dashboard write can never brick routing.
type RoutingMode string

const (
	ModeAlwaysAI       RoutingMode = "always_ai"
	ModeAfterHours     RoutingMode = "after_hours"
	ModeBusinessHours  RoutingMode = "business_hours"
	ModeDisabled       RoutingMode = "disabled"
	ModeCustomSchedule RoutingMode = "custom_schedule"
)

// ParseMode maps a stored mode string onto the enumeration.
func ParseMode(s string) RoutingMode {
	switch RoutingMode(strings.TrimSpace(strings.ToLower(s))) {
	case ModeAlwaysAI:
		return ModeAlwaysAI
	case ModeBusinessHours:
		return ModeBusinessHours
	case ModeDisabled:
		return ModeDisabled
	case ModeCustomSchedule:
		return ModeCustomSchedule
	default:
		return ModeAfterHours
	}
}

// DayHours is one weekday's open interval. Open/Close are "HH:MM" local time;
// the interval is half-open [Open, Close). Closed wins over any time values.
type DayHours struct {
	Closed bool   `json:"closed,omitempty"`
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
}

// Contains reports whether t's time-of-day falls inside the interval,
// at minute resolution.
func (d DayHours) Contains(t time.Time) bool {
	if d.Closed {
		return false
	}
	open, ok := minuteOfDay(d.Open)
	if !ok {
		return false
	}
	clos, ok := minuteOfDay(d.Close)
	if !ok {
		return false
	}
	cur := t.Hour()*60 + t.Minute()
	return cur >= open && cur < clos
}

// WeeklyHours is indexed by time.Weekday (Sunday = 0).
type WeeklyHours [7]DayHours

// Contains reports whether t falls within the schedule for t's weekday.
func (w WeeklyHours) Contains(t time.Time) bool {
	return w[t.Weekday()].Contains(t)
}

// DefaultHours mirrors the hours applied when a tenant has not configured any.
func DefaultHours() WeeklyHours {
	weekday := DayHours{Open: "09:00", Close: "17:00"}
	return WeeklyHours{
		time.Sunday:    {Closed: true},
		time.Monday:    weekday,
		time.Tuesday:   weekday,
		time.Wednesday: weekday,
		time.Thursday:  weekday,
		time.Friday:    weekday,
		time.Saturday:  {Open: "10:00", Close: "14:00"},
	}
}

// DefaultConfig is the global fallback used when no tenant owns the dialed
// number. It has no forward number, so routing always converses.
func DefaultConfig() Config {
	return Config{
		Name:         "this business",
		Mode:         ModeAfterHours,
		Hours:        DefaultHours(),
		Tone:         "professional",
		BusinessInfo: "We are available to help you.",
	}
}

func minuteOfDay(s string) (int, bool) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, false
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return 0, false
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return 0, false
	}
	return hh*60 + mm, true
}
