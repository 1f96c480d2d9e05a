package inbound

import (
	"context"
	"time"
)

// RateLimitService counts attempts per key in fixed windows and holds
// temporary blocks. Keys are built by the HTTP middleware from the route
// class and client address.
type RateLimitService interface {
	CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Increment(ctx context.Context, key string, window time.Duration) error
	Block(ctx context.Context, key string, duration time.Duration, reason string) error
	IsBlocked(ctx context.Context, key string) (bool, error)
	GetAttempts(ctx context.Context, key string) (int, error)
}
