// Package cache provides the counter and cooldown store backing sliding-window
// anomaly detection: per-zone rolling counters and cooldown markers, both with
// TTL expiry.
package cache

import (
	"context"
	"time"
)

// Counter is the minimal key/TTL interface the stream processor needs.
//
// IncrementAndExpire must be atomic at the store: increment and TTL re-arm
// happen in one round trip, never observable as two steps. The single-consumer
// processor does not strictly need this, but it keeps threshold detection
// correct if processors are ever scaled out.
type Counter interface {
	// IncrementAndExpire increments key by one, (re)sets its expiry to ttl,
	// and returns the post-increment value.
	IncrementAndExpire(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Exists reports whether key is present (i.e. not expired).
	Exists(ctx context.Context, key string) (bool, error)
	// SetWithExpiry stores value under key with the given ttl.
	SetWithExpiry(ctx context.Context, key string, ttl time.Duration, value string) error
}
