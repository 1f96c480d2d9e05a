package outbound

import (
	"time"

	"github.com/oily/oily-api/domain/valueobject"
)

// MemberClaim is the compact member snapshot carried by access tokens.
type MemberClaim struct {
	ID       string `json:"uuid"`
	Nickname string `json:"nickname"`
}

type TokenClaims struct {
	ID          string
	Subject     string
	Authorities valueobject.Authorities
	Member      *MemberClaim
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// TokenCodec signs and verifies compact tokens. Verify returns
// domainerr.ErrTokenExpired together with the decoded claims when only the
// expiry check failed.
type TokenCodec interface {
	Sign(subject string, claims TokenClaims, expiresAt time.Time) (string, error)
	Verify(token string) (*TokenClaims, error)
	SubjectOf(token string) (string, error)
}
