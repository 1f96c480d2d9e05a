package outbound

import (
	"context"
	"errors"
	"time"
)

var ErrSessionKeyNotFound = errors.New("session key not found")

// SessionStore is a key/value store with per-key TTL. A zero ttl means no expiry.
type SessionStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	// CompareAndDelete atomically deletes key and alsoDelete when key holds
	// expected. It reports whether the delete happened.
	CompareAndDelete(ctx context.Context, key, expected string, alsoDelete ...string) (bool, error)
	Ping(ctx context.Context) error
}
