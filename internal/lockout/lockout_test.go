package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPolicy(t *testing.T) (*Policy, *time.Time) {
	t.Helper()
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	policy := NewPolicy(DefaultConfig(), NewMemoryStore())
	policy.now = func() time.Time { return current }
	return policy, &current
}

func TestRecordFailure_StreakCounting(t *testing.T) {
	policy, _ := newTestPolicy(t)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		state := policy.RecordFailure(ctx, "user@example.com")
		assert.Equal(t, i, state.FailedAttempts)
		assert.True(t, state.LockedUntil.IsZero(), "must not lock before the 5th failure")
	}

	locked, _ := policy.IsLocked(ctx, "user@example.com")
	assert.False(t, locked)
}

func TestRecordFailure_FifthFailureLocks(t *testing.T) {
	policy, clock := newTestPolicy(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		policy.RecordFailure(ctx, "user@example.com")
	}

	locked, remaining := policy.IsLocked(ctx, "user@example.com")
	require.True(t, locked)
	assert.Equal(t, 15*time.Minute, remaining)

	// Still locked one minute before expiry
	*clock = clock.Add(14 * time.Minute)
	locked, remaining = policy.IsLocked(ctx, "user@example.com")
	assert.True(t, locked)
	assert.Equal(t, time.Minute, remaining)

	// Unlocked once the duration has passed
	*clock = clock.Add(2 * time.Minute)
	locked, _ = policy.IsLocked(ctx, "user@example.com")
	assert.False(t, locked)
}

func TestRecordFailure_WindowElapsedRestartsStreak(t *testing.T) {
	policy, clock := newTestPolicy(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		policy.RecordFailure(ctx, "user@example.com")
	}

	// A failure after the rolling window restarts the streak at 1 instead
	// of triggering the lock.
	*clock = clock.Add(16 * time.Minute)
	state := policy.RecordFailure(ctx, "user@example.com")
	assert.Equal(t, 1, state.FailedAttempts)
	assert.True(t, state.LockedUntil.IsZero())
}

func TestRecordFailure_WindowMeasuredFromFirstFailure(t *testing.T) {
	policy, clock := newTestPolicy(t)
	ctx := context.Background()

	policy.RecordFailure(ctx, "user@example.com")
	*clock = clock.Add(10 * time.Minute)
	policy.RecordFailure(ctx, "user@example.com")

	// 16 minutes after the first failure the window is gone even though
	// the second failure was recent.
	*clock = clock.Add(6 * time.Minute)
	state := policy.RecordFailure(ctx, "user@example.com")
	assert.Equal(t, 1, state.FailedAttempts)
}

func TestRecordSuccess_ClearsState(t *testing.T) {
	policy, _ := newTestPolicy(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		policy.RecordFailure(ctx, "user@example.com")
	}
	policy.RecordSuccess(ctx, "user@example.com")

	assert.Equal(t, 0, policy.FailedAttempts(ctx, "user@example.com"))
	state := policy.RecordFailure(ctx, "user@example.com")
	assert.Equal(t, 1, state.FailedAttempts)
}

func TestKeysAreCaseInsensitive(t *testing.T) {
	policy, _ := newTestPolicy(t)
	ctx := context.Background()

	policy.RecordFailure(ctx, "User@Example.COM")
	policy.RecordFailure(ctx, " user@example.com ")

	assert.Equal(t, 2, policy.FailedAttempts(ctx, "user@example.com"))
}

func TestKeysAreIndependent(t *testing.T) {
	policy, _ := newTestPolicy(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		policy.RecordFailure(ctx, "a@example.com")
	}

	locked, _ := policy.IsLocked(ctx, "a@example.com")
	assert.True(t, locked)
	locked, _ = policy.IsLocked(ctx, "b@example.com")
	assert.False(t, locked)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", &State{FailedAttempts: 3}, 10*time.Millisecond))

	state, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 3, state.FailedAttempts)

	time.Sleep(20 * time.Millisecond)
	state, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, state, "expired entries read as absent")
}
