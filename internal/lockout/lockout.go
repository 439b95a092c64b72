// Package lockout tracks failed login streaks per identifier and decides
// when further attempts must be throttled.
package lockout

import (
	"context"
	"strings"
	"sync"
	"time"
)

// State tracks the failed-attempt streak for one identifier.
type State struct {
	FailedAttempts int       `json:"failed_attempts"`
	FirstFailedAt  time.Time `json:"first_failed_at"`
	LastFailedAt   time.Time `json:"last_failed_at"`
	LockedUntil    time.Time `json:"locked_until"`
}

// Store persists lockout state. Implementations must make each operation
// atomic per key; the default in-process store suits single-instance
// deployments and the Redis store shared ones.
type Store interface {
	Get(ctx context.Context, key string) (*State, error)
	Set(ctx context.Context, key string, state *State, ttl time.Duration) error
	Clear(ctx context.Context, key string) error
}

// Config holds the lockout policy parameters.
type Config struct {
	// MaxAttempts is the number of failures within Window that triggers a lock.
	MaxAttempts int
	// Window is the rolling window measured from the first failure of the
	// current streak.
	Window time.Duration
	// Duration is how long a lock lasts, measured from the triggering failure.
	Duration time.Duration
}

// DefaultConfig returns the standard 5-failures / 15-minute policy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		Window:      15 * time.Minute,
		Duration:    15 * time.Minute,
	}
}

// Policy applies the lockout state machine on top of a Store. A per-key
// mutex serialises concurrent updates for the same identifier so concurrent
// failures are not lost.
type Policy struct {
	config Config
	store  Store

	keysMu sync.Mutex
	keys   map[string]*sync.Mutex

	// now is swappable for tests.
	now func() time.Time
}

// NewPolicy creates a lockout policy over the given store.
func NewPolicy(cfg Config, store Store) *Policy {
	return &Policy{
		config: cfg,
		store:  store,
		keys:   make(map[string]*sync.Mutex),
		now:    time.Now,
	}
}

func (p *Policy) keyLock(key string) *sync.Mutex {
	p.keysMu.Lock()
	defer p.keysMu.Unlock()
	mu, ok := p.keys[key]
	if !ok {
		mu = &sync.Mutex{}
		p.keys[key] = mu
	}
	return mu
}

func normalizeKey(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// IsLocked reports whether the identifier is currently locked and, if so,
// for how much longer. Locked identifiers must be rejected before any
// password verification is attempted.
func (p *Policy) IsLocked(ctx context.Context, identifier string) (bool, time.Duration) {
	state, err := p.store.Get(ctx, normalizeKey(identifier))
	if err != nil || state == nil {
		return false, 0
	}
	if state.LockedUntil.After(p.now()) {
		return true, state.LockedUntil.Sub(p.now())
	}
	return false, 0
}

// RecordFailure registers a failed attempt and returns the resulting state.
// A failure observed after the window has elapsed restarts the streak at
// count=1; reaching MaxAttempts locks the identifier for the configured
// duration from the triggering failure.
func (p *Policy) RecordFailure(ctx context.Context, identifier string) *State {
	key := normalizeKey(identifier)
	mu := p.keyLock(key)
	mu.Lock()
	defer mu.Unlock()

	now := p.now()
	state, err := p.store.Get(ctx, key)
	if err != nil || state == nil {
		state = &State{}
	}

	if state.FailedAttempts > 0 && now.Sub(state.FirstFailedAt) > p.config.Window {
		state = &State{}
	}

	if state.FailedAttempts == 0 {
		state.FirstFailedAt = now
	}
	state.FailedAttempts++
	state.LastFailedAt = now

	if state.FailedAttempts >= p.config.MaxAttempts {
		state.LockedUntil = now.Add(p.config.Duration)
	}

	ttl := p.config.Window
	if state.LockedUntil.After(now) {
		remaining := state.LockedUntil.Sub(now)
		if remaining > ttl {
			ttl = remaining + time.Minute
		}
	}
	_ = p.store.Set(ctx, key, state, ttl)

	return state
}

// RecordSuccess resets the identifier to clean.
func (p *Policy) RecordSuccess(ctx context.Context, identifier string) {
	key := normalizeKey(identifier)
	mu := p.keyLock(key)
	mu.Lock()
	defer mu.Unlock()
	_ = p.store.Clear(ctx, key)
}

// FailedAttempts returns the current streak length for an identifier.
func (p *Policy) FailedAttempts(ctx context.Context, identifier string) int {
	state, err := p.store.Get(ctx, normalizeKey(identifier))
	if err != nil || state == nil {
		return 0
	}
	return state.FailedAttempts
}

// MemoryStore is the in-process Store used for single-instance deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]memoryEntry
}

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*State, error) {
	m.mu.RLock()
	entry, ok := m.states[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && entry.expiresAt.Before(time.Now()) {
		m.mu.Lock()
		delete(m.states, key)
		m.mu.Unlock()
		return nil, nil
	}
	state := entry.state
	return &state, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, state *State, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := memoryEntry{state: *state}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	m.states[key] = entry
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, key)
	return nil
}
