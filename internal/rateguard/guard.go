package rateguard

import (
	"context"
	"sync"
	"time"
)

// Guard is fixed-window admission control keyed by caller identity.
//
// It is the sole defense against caller-volume abuse and must be consulted
// before any expensive downstream work (turn generation, persistence lookups).
type Guard interface {
	Admit(ctx context.Context, identity string) (Result, error)
}

type Result struct {
	Allowed   bool          `json:"allowed"`
	Remaining int           `json:"remaining"`
	ResetIn   time.Duration `json:"reset_in"`
}

const (
	DefaultWindow = time.Minute
	DefaultQuota  = 10
)

// MemoryGuard is the single-process implementation.
//
// State is one record per identity: window start + count. Expired records are
// purged opportunistically on every Admit, bounding memory to active callers.
// In a multi-instance deployment use RedisGuard instead; this map is not
// shareable across processes.
type MemoryGuard struct {
	window time.Duration
	quota  int
	clock  func() time.Time

	mu      sync.Mutex
	records map[string]*record
}

type record struct {
	windowStart time.Time
	count       int
}

func NewMemoryGuard(window time.Duration, quota int) *MemoryGuard {
	if window <= 0 {
		window = DefaultWindow
	}
	if quota <= 0 {
		quota = DefaultQuota
	}
	return &MemoryGuard{
		window:  window,
		quota:   quota,
		clock:   time.Now,
		records: map[string]*record{},
	}
}

func (g *MemoryGuard) Admit(_ context.Context, identity string) (Result, error) {
	now := g.clock()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.purgeLocked(now)

	r, ok := g.records[identity]
	if !ok || now.Sub(r.windowStart) > g.window {
		// First admission, or the stored window has elapsed: overwrite.
		g.records[identity] = &record{windowStart: now, count: 1}
		return Result{Allowed: true, Remaining: g.quota - 1, ResetIn: g.window}, nil
	}

	if r.count >= g.quota {
		// Denied. Count stays clamped at quota so repeat offenders cannot
		// grow the record without bound.
		return Result{
			Allowed: false,
			ResetIn: g.window - now.Sub(r.windowStart),
		}, nil
	}

	r.count++
	return Result{
		Allowed:   true,
		Remaining: g.quota - r.count,
		ResetIn:   g.window - now.Sub(r.windowStart),
	}, nil
}

func (g *MemoryGuard) purgeLocked(now time.Time) {
	for id, r := range g.records {
		if now.Sub(r.windowStart) > g.window {
			delete(g.records, id)
		}
	}
}
