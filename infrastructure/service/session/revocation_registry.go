package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oily/oily-api/application/port/outbound"
	domainerr "github.com/oily/oily-api/domain/error"
	"github.com/oily/oily-api/domain/valueobject"
)

// RevocationRegistry keeps blacklisted tokens until they would have expired anyway.
type RevocationRegistry struct {
	store outbound.SessionStore
	codec outbound.TokenCodec
	now   func() time.Time
}

func NewRevocationRegistry(store outbound.SessionStore, codec outbound.TokenCodec) *RevocationRegistry {
	return &RevocationRegistry{
		store: store,
		codec: codec,
		now:   time.Now,
	}
}

// Blacklist is a no-op for tokens that are already expired.
func (r *RevocationRegistry) Blacklist(ctx context.Context, kind valueobject.TokenKind, token string) error {
	claims, err := r.codec.Verify(token)
	if err != nil {
		if errors.Is(err, domainerr.ErrTokenExpired) {
			return nil
		}
		return fmt.Errorf("cannot blacklist %s token: %w", kind, err)
	}

	remaining := claims.ExpiresAt.Sub(r.now())
	if remaining <= 0 {
		return nil
	}

	return r.store.Set(ctx, blacklistKey(kind, token), blacklistMarker, remaining)
}

func (r *RevocationRegistry) IsBlacklisted(ctx context.Context, kind valueobject.TokenKind, token string) (bool, error) {
	return r.store.Exists(ctx, blacklistKey(kind, token))
}
