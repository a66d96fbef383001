package business

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("business: not found")

// Store resolves the tenant that owns a dialed number.
//
// A miss is expected and non-fatal: callers fall back to DefaultConfig().
type Store interface {
	ByNumber(ctx context.Context, phoneNumber string) (Config, error)
}

// MemoryRepo is an in-memory Store for tests and early development.
type MemoryRepo struct {
	mu      sync.RWMutex
	byPhone map[string]Config
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byPhone: map[string]Config{}}
}

func (r *MemoryRepo) Put(cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPhone[cfg.PhoneNumber] = cfg
}

func (r *MemoryRepo) ByNumber(ctx context.Context, phoneNumber string) (Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.byPhone[phoneNumber]
	if !ok {
		return Config{}, ErrNotFound
	}
	return cfg, nil
}

// CachedStore is a read-through TTL cache in front of a Store.
//
// Config reads happen on every utterance, so the hot path must not hit
// persistence each turn. Stale reads within the TTL are acceptable; tenants
// edit their configuration rarely.
type CachedStore struct {
	inner Store
	ttl   time.Duration
	clock func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	cfg       Config
	miss      bool
	fetchedAt time.Time
}

const DefaultCacheTTL = 5 * time.Minute

func NewCachedStore(inner Store, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStore{
		inner:   inner,
		ttl:     ttl,
		clock:   time.Now,
		entries: map[string]cacheEntry{},
	}
}

func (s *CachedStore) ByNumber(ctx context.Context, phoneNumber string) (Config, error) {
	now := s.clock()

	s.mu.Lock()
	if e, ok := s.entries[phoneNumber]; ok && now.Sub(e.fetchedAt) < s.ttl {
		s.mu.Unlock()
		if e.miss {
			return Config{}, ErrNotFound
		}
		return e.cfg, nil
	}
	s.mu.Unlock()

	cfg, err := s.inner.ByNumber(ctx, phoneNumber)
	switch {
	case err == nil:
		s.store(phoneNumber, cacheEntry{cfg: cfg, fetchedAt: now})
		return cfg, nil
	case errors.Is(err, ErrNotFound):
		// Negative caching: unknown numbers get dialed repeatedly too.
		s.store(phoneNumber, cacheEntry{miss: true, fetchedAt: now})
		return Config{}, ErrNotFound
	default:
		// Do not cache transient failures.
		return Config{}, err
	}
}

func (s *CachedStore) store(key string, e cacheEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = e
}
