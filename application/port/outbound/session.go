package outbound

import (
	"context"
	"errors"

	"github.com/oily/oily-api/domain/entity"
	"github.com/oily/oily-api/domain/valueobject"
)

var ErrRefreshRecordNotFound = errors.New("refresh record not found")

type RevocationRegistry interface {
	Blacklist(ctx context.Context, kind valueobject.TokenKind, token string) error
	IsBlacklisted(ctx context.Context, kind valueobject.TokenKind, token string) (bool, error)
}

type RefreshTokenLedger interface {
	Issue(ctx context.Context, memberID string, authorities valueobject.Authorities) (string, error)
	Consume(ctx context.Context, memberID string) error
	ConsumeIfCurrent(ctx context.Context, memberID, refreshTokenID string) (bool, error)
	Resolve(ctx context.Context, refreshTokenID string) (*entity.RefreshRecord, error)
}
