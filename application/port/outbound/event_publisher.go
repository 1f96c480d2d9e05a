package outbound

import (
	"context"

	"github.com/oily/oily-api/domain/entity"
)

type AuthEventPublisher interface {
	Publish(ctx context.Context, event entity.AuthEvent) error
	Close() error
}
