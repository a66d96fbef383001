package session

import (
	"strings"
	"sync"
	"time"
)

// Turn is one utterance within a call, by either side.
type Turn struct {
	Role string    `json:"role"` // RoleCaller or RoleAgent
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

const (
	RoleCaller = "caller"
	RoleAgent  = "agent"
)

// MaxTurns bounds per-call memory and prompt size: the most recent 10
// exchanges (20 turns). Oldest turns are dropped first, never reordered.
const MaxTurns = 20

const (
	// DefaultGrace keeps a closed session around briefly so a late duplicate
	// completion signal sees the same transcript instead of a miss.
	DefaultGrace = time.Minute

	// DefaultRetention is how long a session that never receives a completion
	// signal may sit idle before it is considered stale and safe to drop.
	DefaultRetention = time.Hour
)

// Store holds per-call conversation memory for the lifetime of each call.
//
// Utterances within one call arrive strictly sequentially from the telephony
// layer, so per-call ordering needs no internal coordination; the store only
// guards the map across different call identifiers.
type Store struct {
	grace     time.Duration
	retention time.Duration
	clock     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	callID string
	from   string
	to     string

	turns     []Turn
	createdAt time.Time
	lastSeen  time.Time

	closed     bool
	closedAt   time.Time
	transcript string
	duration   time.Duration
}

func NewStore(grace, retention time.Duration) *Store {
	if grace <= 0 {
		grace = DefaultGrace
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{
		grace:     grace,
		retention: retention,
		clock:     time.Now,
		sessions:  map[string]*session{},
	}
}

// Start registers a call before its first utterance. Identity fields are
// optional; Append creates a bare session on first use anyway.
func (s *Store) Start(callID, from, to string) {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked(now)
	if _, ok := s.sessions[callID]; ok {
		return
	}
	s.sessions[callID] = &session{
		callID:    callID,
		from:      from,
		to:        to,
		createdAt: now,
		lastSeen:  now,
	}
}

// Append adds a turn, creating the session on first use. Turns are
// append-only during the call; once over MaxTurns the oldest are dropped.
func (s *Store) Append(callID string, role, text string) {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked(now)

	sess, ok := s.sessions[callID]
	if !ok {
		sess = &session{callID: callID, createdAt: now}
		s.sessions[callID] = sess
	}
	if sess.closed {
		return
	}
	sess.lastSeen = now
	sess.turns = append(sess.turns, Turn{Role: role, Text: text, At: now})
	if len(sess.turns) > MaxTurns {
		sess.turns = sess.turns[len(sess.turns)-MaxTurns:]
	}
}

// History returns the bounded turn sequence, oldest first. The returned slice
// is a copy; callers may not mutate store state through it.
func (s *Store) History(callID string) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[callID]
	if !ok {
		return nil
	}
	out := make([]Turn, len(sess.turns))
	copy(out, sess.turns)
	return out
}

// Caller returns the caller identity recorded at Start, if any.
func (s *Store) Caller(callID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[callID]; ok {
		return sess.from
	}
	return ""
}

// Close finalizes a call: it renders the transcript, computes the wall-clock
// duration, and schedules the session for eviction after the grace period.
// A duplicate Close within the grace period returns the same result.
func (s *Store) Close(callID string) (transcript string, duration time.Duration, ok bool) {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked(now)

	sess, found := s.sessions[callID]
	if !found {
		return "", 0, false
	}
	if sess.closed {
		return sess.transcript, sess.duration, true
	}

	var b strings.Builder
	for i, t := range sess.turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(t.Text)
	}

	sess.closed = true
	sess.closedAt = now
	sess.transcript = b.String()
	sess.duration = now.Sub(sess.createdAt)
	return sess.transcript, sess.duration, true
}

// Len reports the number of live sessions (closed-but-in-grace included).
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// purgeLocked drops closed sessions past their grace period and idle sessions
// past the retention window. Called opportunistically from every mutation, so
// abandoned calls cannot accumulate.
func (s *Store) purgeLocked(now time.Time) {
	for id, sess := range s.sessions {
		if sess.closed {
			if now.Sub(sess.closedAt) > s.grace {
				delete(s.sessions, id)
			}
			continue
		}
		if now.Sub(sess.lastSeen) > s.retention {
			delete(s.sessions, id)
		}
	}
}
