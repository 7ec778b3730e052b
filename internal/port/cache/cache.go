//go:generate mockgen -source=cache.go -destination=../../mocks/mock_cache.go -package=mocks

package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache is a byte-oriented key/value cache with per-entry TTL.
// [LSP] The in-memory and Redis implementations are interchangeable.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetIfAbsent stores value only when key holds no live entry and reports
	// whether it did. The check and the write are atomic.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Invalidate(ctx context.Context, key string) error
}
