package calls

import "time"

// Call is the persisted record of one finished telephone conversation.
//
// Provider-specific identifiers (the Twilio CallSid) are stored in CallID but
// the model itself stays provider-agnostic; raw provider payloads do not
// belong here.
type Call struct {
	ID         string `json:"id" db:"id"`
	CallID     string `json:"call_id" db:"call_id"`
	BusinessID string `json:"business_id,omitempty" db:"business_id"`

	From string `json:"from_number" db:"from_number"`
	To   string `json:"to_number" db:"to_number"`

	Status CallStatus `json:"status" db:"status"`

	// DurationSeconds is the call duration as reported by the telephony layer.
	DurationSeconds int `json:"duration" db:"duration"`

	Transcript string `json:"transcript,omitempty" db:"transcript"`
	Summary    string `json:"summary,omitempty" db:"summary"`

	RecordingURL string `json:"recording_url,omitempty" db:"recording_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CallStatus string

const (
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusForwarded  CallStatus = "forwarded"
	CallStatusRejected   CallStatus = "rejected"
	CallStatusFailed     CallStatus = "failed"
)
