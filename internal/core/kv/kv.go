// Package kv defines a small persistent key-value abstraction used for
// settings and bookkeeping that does not warrant its own table.
package kv

import (
	"context"
	"time"
)

// KV stores JSON-serializable values by string key. Get on a missing or
// expired key returns an error wrapping sql.ErrNoRows.
type KV interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	// SetTTL stores a value that reads as missing once ttl has passed.
	SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	// ListKeys returns live keys in sorted order.
	ListKeys(ctx context.Context) ([]string, error)
}
