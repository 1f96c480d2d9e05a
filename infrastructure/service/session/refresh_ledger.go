package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oily/oily-api/application/port/outbound"
	"github.com/oily/oily-api/domain/entity"
	"github.com/oily/oily-api/domain/valueobject"
)

// RefreshLedger stores refresh:{id} -> record and member-refresh:{member} -> id,
// both with the refresh token lifetime.
type RefreshLedger struct {
	store outbound.SessionStore
	codec outbound.TokenCodec
	ttl   time.Duration
	now   func() time.Time
}

func NewRefreshLedger(store outbound.SessionStore, codec outbound.TokenCodec, ttl time.Duration) *RefreshLedger {
	return &RefreshLedger{
		store: store,
		codec: codec,
		ttl:   ttl,
		now:   time.Now,
	}
}

type refreshPayload struct {
	MemberID    string `json:"memberUuid"`
	Authorities string `json:"authorities"`
}

// Issue signs a new refresh token for memberID. A previous record of the
// member is dropped first so only one refresh token is live per member.
func (l *RefreshLedger) Issue(ctx context.Context, memberID string, authorities valueobject.Authorities) (string, error) {
	if err := l.Consume(ctx, memberID); err != nil {
		return "", err
	}

	refreshTokenID := uuid.NewString()
	token, err := l.codec.Sign(refreshTokenID, outbound.TokenClaims{}, l.now().Add(l.ttl))
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(refreshPayload{MemberID: memberID, Authorities: authorities.String()})
	if err != nil {
		return "", fmt.Errorf("failed to encode refresh record: %w", err)
	}

	if err := l.store.Set(ctx, refreshRecordKey(refreshTokenID), string(payload), l.ttl); err != nil {
		return "", err
	}
	if err := l.store.Set(ctx, memberRefreshKey(memberID), refreshTokenID, l.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Consume removes the member's record and mapping. Missing entries are fine.
func (l *RefreshLedger) Consume(ctx context.Context, memberID string) error {
	refreshTokenID, err := l.store.Get(ctx, memberRefreshKey(memberID))
	if errors.Is(err, outbound.ErrSessionKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return l.store.Delete(ctx, refreshRecordKey(refreshTokenID), memberRefreshKey(memberID))
}

// ConsumeIfCurrent deletes the member's session only if refreshTokenID is
// still the one the member mapping points at.
func (l *RefreshLedger) ConsumeIfCurrent(ctx context.Context, memberID, refreshTokenID string) (bool, error) {
	return l.store.CompareAndDelete(ctx, memberRefreshKey(memberID), refreshTokenID, refreshRecordKey(refreshTokenID))
}

func (l *RefreshLedger) Resolve(ctx context.Context, refreshTokenID string) (*entity.RefreshRecord, error) {
	raw, err := l.store.Get(ctx, refreshRecordKey(refreshTokenID))
	if errors.Is(err, outbound.ErrSessionKeyNotFound) {
		return nil, outbound.ErrRefreshRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	var payload refreshPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("corrupt refresh record %s: %w", refreshTokenID, err)
	}
	authorities, err := valueobject.ParseAuthorities(payload.Authorities)
	if err != nil {
		return nil, fmt.Errorf("corrupt refresh record %s: %w", refreshTokenID, err)
	}
	return entity.NewRefreshRecord(payload.MemberID, authorities), nil
}
