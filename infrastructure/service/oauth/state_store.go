package oauth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oily/oily-api/application/port/outbound"
	domainerr "github.com/oily/oily-api/domain/error"
	"github.com/oily/oily-api/domain/valueobject"
)

const (
	statePrefix     = "oauth-state:"
	DefaultStateTTL = 10 * time.Minute
)

// StateStore binds an authorization request's state to its provider.
// A state can be consumed once.
type StateStore struct {
	store outbound.SessionStore
	ttl   time.Duration
}

func NewStateStore(store outbound.SessionStore, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateStore{store: store, ttl: ttl}
}

func (s *StateStore) Issue(ctx context.Context, provider valueobject.SocialProvider) (string, error) {
	state := uuid.NewString()
	if err := s.store.Set(ctx, statePrefix+state, string(provider), s.ttl); err != nil {
		return "", err
	}
	return state, nil
}

func (s *StateStore) Consume(ctx context.Context, state string, provider valueobject.SocialProvider) error {
	if state == "" {
		return domainerr.Wrap(domainerr.ErrOAuthStateInvalid, "missing state", nil)
	}
	ok, err := s.store.CompareAndDelete(ctx, statePrefix+state, string(provider))
	if err != nil {
		return err
	}
	if !ok {
		return domainerr.Wrap(domainerr.ErrOAuthStateInvalid, "unknown or reused state", nil)
	}
	return nil
}
