package model

import (
	"context"
	"time"
)

// Cache is the ephemeral TTL-bearing key-value store used for reset-token
// staging and permission memoization. It is never authoritative: every
// consumer must behave correctly with the cache cold or absent, and a miss
// (ErrCacheMiss) is an expected outcome rather than a failure.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// GetDel atomically reads and removes a key. This is the single-use
	// guarantee for cache-backed tokens: of two concurrent consumers, one
	// gets the value and the other gets ErrCacheMiss.
	GetDel(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
