package lockout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const redisKeyPrefix = "auth:lockout:"

// RedisStore is a shared Store for multi-instance deployments. All calls go
// through a circuit breaker; while the breaker is open, state falls back to
// an embedded MemoryStore so a Redis outage degrades to per-instance
// lockout instead of failing logins.
type RedisStore struct {
	client   *redis.Client
	fallback *MemoryStore
	breaker  *gobreaker.CircuitBreaker
	logger   *logrus.Logger
}

// NewRedisStore creates a Redis-backed lockout store.
func NewRedisStore(client *redis.Client, logger *logrus.Logger) *RedisStore {
	settings := gobreaker.Settings{
		Name:    "lockout-redis",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Lockout store circuit breaker state changed")
		},
	}

	return &RedisStore{
		client:   client,
		fallback: NewMemoryStore(),
		breaker:  gobreaker.NewCircuitBreaker(settings),
		logger:   logger,
	}
}

func (r *RedisStore) Get(ctx context.Context, key string) (*State, error) {
	result, err := r.breaker.Execute(func() (interface{}, error) {
		data, err := r.client.Get(ctx, redisKeyPrefix+key).Result()
		if err == redis.Nil {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		var state State
		if err := json.Unmarshal([]byte(data), &state); err != nil {
			return nil, err
		}
		return &state, nil
	})
	if err != nil {
		r.logger.WithError(err).Warn("Lockout state read from Redis failed, using local fallback")
		return r.fallback.Get(ctx, key)
	}
	if result == nil {
		return nil, nil
	}
	return result.(*State), nil
}

func (r *RedisStore) Set(ctx context.Context, key string, state *State, ttl time.Duration) error {
	// Mirror into the fallback so an outage mid-streak keeps recent state.
	_ = r.fallback.Set(ctx, key, state, ttl)

	_, err := r.breaker.Execute(func() (interface{}, error) {
		data, err := json.Marshal(state)
		if err != nil {
			return nil, err
		}
		return nil, r.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err()
	})
	if err != nil {
		r.logger.WithError(err).Warn("Lockout state write to Redis failed")
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, key string) error {
	_ = r.fallback.Clear(ctx, key)

	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.Del(ctx, redisKeyPrefix+key).Err()
	})
	if err != nil {
		r.logger.WithError(err).Warn("Lockout state clear in Redis failed")
	}
	return nil
}
