package rateguard

import (
	"context"
	"testing"
	"time"
)

func newTestGuard() (*MemoryGuard, *time.Time) {
	g := NewMemoryGuard(time.Minute, 10)
	now := time.Date(2024, time.January, 2, 12, 0, 0, 0, time.UTC)
	g.clock = func() time.Time { return now }
	return g, &now
}

func TestMemoryGuard_AllowsUpToQuota(t *testing.T) {
	g, _ := newTestGuard()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		res, err := g.Admit(ctx, "+15551234567")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("call %d should be admitted", i+1)
		}
		if want := 10 - (i + 1); res.Remaining != want {
			t.Fatalf("call %d: remaining = %d, want %d", i+1, res.Remaining, want)
		}
	}
}

func TestMemoryGuard_DeniesOverQuota(t *testing.T) {
	g, _ := newTestGuard()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		g.Admit(ctx, "+15551234567")
	}
	res, err := g.Admit(ctx, "+15551234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Allowed {
		t.Fatalf("11th call in the window must be denied")
	}
	if res.ResetIn <= 0 || res.ResetIn > time.Minute {
		t.Fatalf("reset hint out of range: %v", res.ResetIn)
	}
}

func TestMemoryGuard_WindowElapseResets(t *testing.T) {
	g, now := newTestGuard()
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		g.Admit(ctx, "+15551234567")
	}
	*now = now.Add(61 * time.Second)

	res, err := g.Admit(ctx, "+15551234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Allowed {
		t.Fatalf("fresh window should admit")
	}
	if res.Remaining != 9 {
		t.Fatalf("fresh window remaining = %d, want 9", res.Remaining)
	}
}

func TestMemoryGuard_IdentitiesAreIndependent(t *testing.T) {
	g, _ := newTestGuard()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		g.Admit(ctx, "+15551111111")
	}
	if res, _ := g.Admit(ctx, "+15551111111"); res.Allowed {
		t.Fatalf("first identity should be denied")
	}
	if res, _ := g.Admit(ctx, "+15552222222"); !res.Allowed {
		t.Fatalf("second identity must be unaffected")
	}
}

func TestMemoryGuard_PurgesExpiredRecords(t *testing.T) {
	g, now := newTestGuard()
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		g.Admit(ctx, string(rune('a'+i%26))+"suffix")
	}
	*now = now.Add(2 * time.Minute)
	g.Admit(ctx, "+15551234567")

	g.mu.Lock()
	n := len(g.records)
	g.mu.Unlock()
	if n != 1 {
		t.Fatalf("expected expired records purged, %d remain", n)
	}
}

func TestNewMemoryGuard_AppliesDefaults(t *testing.T) {
	g := NewMemoryGuard(0, 0)
	if g.window != DefaultWindow || g.quota != DefaultQuota {
		t.Fatalf("defaults not applied: window=%v quota=%d", g.window, g.quota)
	}
}
