package storage

import (
	"context"
	"io"
	"time"
)

// BalanceCache defines the interface for caching raw balance responses
type BalanceCache interface {
	// Get returns the cached body for key; ok is false on a miss
	Get(ctx context.Context, key string) (body []byte, ok bool, err error)

	// Set stores body under key for ttl
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	// Close closes the cache connection
	io.Closer
}
