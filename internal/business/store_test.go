package business

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingStore struct {
	inner *MemoryRepo
	calls int
	err   error
}

func (s *countingStore) ByNumber(ctx context.Context, number string) (Config, error) {
	s.calls++
	if s.err != nil {
		return Config{}, s.err
	}
	return s.inner.ByNumber(ctx, number)
}

func TestCachedStore_ReadThrough(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Put(Config{ID: "biz-1", PhoneNumber: "+15550002222", Name: "Joe's"})
	inner := &countingStore{inner: repo}

	s := NewCachedStore(inner, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cfg, err := s.ByNumber(ctx, "+15550002222")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.ID != "biz-1" {
			t.Fatalf("wrong config: %+v", cfg)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("expected one inner fetch, got %d", inner.calls)
	}
}

func TestCachedStore_ExpiryRefetches(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Put(Config{ID: "biz-1", PhoneNumber: "+15550002222"})
	inner := &countingStore{inner: repo}

	s := NewCachedStore(inner, time.Minute)
	now := time.Date(2024, time.January, 2, 12, 0, 0, 0, time.UTC)
	s.clock = func() time.Time { return now }

	ctx := context.Background()
	if _, err := s.ByNumber(ctx, "+15550002222"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := s.ByNumber(ctx, "+15550002222"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected refetch after expiry, got %d fetches", inner.calls)
	}
}

func TestCachedStore_CachesMisses(t *testing.T) {
	inner := &countingStore{inner: NewMemoryRepo()}
	s := NewCachedStore(inner, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.ByNumber(ctx, "+15559999999"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("misses should be cached, got %d fetches", inner.calls)
	}
}

func TestCachedStore_DoesNotCacheTransientErrors(t *testing.T) {
	boom := errors.New("connection refused")
	inner := &countingStore{inner: NewMemoryRepo(), err: boom}
	s := NewCachedStore(inner, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := s.ByNumber(ctx, "+15550002222"); !errors.Is(err, boom) {
			t.Fatalf("expected transient error, got %v", err)
		}
	}
	if inner.calls != 2 {
		t.Fatalf("transient failures must not be cached, got %d fetches", inner.calls)
	}
}
