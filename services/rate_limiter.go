package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterStore is the atomic increment-with-expiry store backing the rate
// limiter. It is shared across instances; all mutation goes through the
// store's own atomic primitives, never in-process locks.
type CounterStore interface {
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	DeleteMatching(ctx context.Context, pattern string) (int64, error)
}

// RedisCounterStore implements CounterStore on a Redis client.
type RedisCounterStore struct {
	Client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{Client: client}
}

func (s *RedisCounterStore) Increment(ctx context.Context, key string) (int64, error) {
	return s.Client.Incr(ctx, key).Result()
}

func (s *RedisCounterStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.Client.Expire(ctx, key, ttl).Err()
}

// DeleteMatching scans for keys matching the pattern and deletes them in
// batches. Returns the number of keys deleted.
func (s *RedisCounterStore) DeleteMatching(ctx context.Context, pattern string) (int64, error) {
	var deleted int64
	iter := s.Client.Scan(ctx, 0, pattern, 100).Iterator()

	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			n, err := s.Client.Del(ctx, batch...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += n
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}

	if len(batch) > 0 {
		n, err := s.Client.Del(ctx, batch...).Result()
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	return deleted, nil
}

// RateLimiter enforces a fixed-window request quota per user. The counter
// is memoryless across windows, so a burst straddling a window boundary
// can see up to twice the limit; that approximation is accepted.
type RateLimiter struct {
	Store CounterStore

	// FailOpen controls the decision returned when the counter store is
	// unreachable. Defaults to allowing the request.
	FailOpen bool

	now func() time.Time
}

func NewRateLimiter(store CounterStore, failOpen bool) *RateLimiter {
	return &RateLimiter{
		Store:    store,
		FailOpen: failOpen,
		now:      time.Now,
	}
}

// CounterKey derives the counter key for a user and window index.
func CounterKey(userID string, windowIndex int64) string {
	return fmt.Sprintf("rate_limit:%s:%d", userID, windowIndex)
}

// Allow increments the user's counter for the current window and reports
// whether the request is within the limit. On a store error the decision
// follows FailOpen and the error is returned alongside it.
func (rl *RateLimiter) Allow(ctx context.Context, userID string, limit, windowSeconds int) (bool, error) {
	windowIndex := rl.now().UnixMilli() / (int64(windowSeconds) * 1000)
	key := CounterKey(userID, windowIndex)

	count, err := rl.Store.Increment(ctx, key)
	if err != nil {
		return rl.FailOpen, fmt.Errorf("rate limit counter increment failed: %w", err)
	}

	// The increment that created the key sets the window TTL. Racing
	// creators may skip this; the window index in the key name still
	// bounds the count, and the next window starts a fresh key.
	if count == 1 {
		if err := rl.Store.Expire(ctx, key, time.Duration(windowSeconds)*time.Second); err != nil {
			log.Printf("[RateLimiter] failed to set TTL on %s: %v", key, err)
		}
	}

	return count <= int64(limit), nil
}

// Reset deletes every counter for a user across all windows. For tests
// and ops tooling only; the request path never calls this.
func (rl *RateLimiter) Reset(ctx context.Context, userID string) (int64, error) {
	return rl.Store.DeleteMatching(ctx, fmt.Sprintf("rate_limit:%s:*", userID))
}
