package cache

import (
	"context"
	"time"
)

// Store is the shared key/value cache behind the view cache and rate limiter.
// Implementations are safe for concurrent use across processes.
type Store interface {
	// IncrementWithTTL bumps the counter at key and returns the new value and
	// the time left in its window. The window starts on the first increment.
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	// Set stores value under key. A zero ttl keeps it until deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns the value under key and whether it was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}
