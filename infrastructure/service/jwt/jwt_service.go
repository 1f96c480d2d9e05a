package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/oily/oily-api/application/port/outbound"
	domainerr "github.com/oily/oily-api/domain/error"
	"github.com/oily/oily-api/domain/valueobject"
)

const minSecretLength = 32

var ErrWeakSecret = fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)

// JWTService is the HS256 TokenCodec. It holds no mutable state.
type JWTService struct {
	hmacSecret []byte
	now        func() time.Time
	parser     *jwt.Parser
}

type Option func(*JWTService)

// WithClock overrides the time source used for iat and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *JWTService) {
		s.now = now
	}
}

func NewJWTService(secret string, opts ...Option) (*JWTService, error) {
	if len(secret) < minSecretLength {
		return nil, ErrWeakSecret
	}

	service := &JWTService{
		hmacSecret: []byte(secret),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	service.parser = jwt.NewParser(
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	)

	return service, nil
}

// claims is the wire form: auth and member are only set on access tokens.
type claims struct {
	Authorities string                `json:"auth,omitempty"`
	Member      *outbound.MemberClaim `json:"member,omitempty"`
	jwt.RegisteredClaims
}

func (s *JWTService) Sign(subject string, tc outbound.TokenClaims, expiresAt time.Time) (string, error) {
	id := tc.ID
	if id == "" {
		id = uuid.NewString()
	}

	wire := claims{
		Member: tc.Member,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if len(tc.Authorities) > 0 {
		wire.Authorities = tc.Authorities.String()
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, wire).SignedString(s.hmacSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify checks signature and expiry. An expired token yields its claims
// together with an error matching domainerr.ErrTokenExpired.
func (s *JWTService) Verify(tokenString string) (*outbound.TokenClaims, error) {
	var wire claims
	_, err := s.parser.ParseWithClaims(tokenString, &wire, s.keyFunc)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			tc, convErr := toTokenClaims(&wire)
			if convErr != nil {
				return nil, convErr
			}
			return tc, domainerr.Wrap(domainerr.ErrTokenExpired, "", err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, domainerr.Wrap(domainerr.ErrTokenInvalidSignature, "", err)
		default:
			return nil, domainerr.Wrap(domainerr.ErrTokenMalformed, "", err)
		}
	}

	return toTokenClaims(&wire)
}

// SubjectOf returns the subject of a correctly signed token, expired or not.
func (s *JWTService) SubjectOf(tokenString string) (string, error) {
	tc, err := s.Verify(tokenString)
	if err != nil && !errors.Is(err, domainerr.ErrTokenExpired) {
		return "", err
	}
	return tc.Subject, nil
}

func (s *JWTService) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method != jwt.SigningMethodHS256 {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.hmacSecret, nil
}

func toTokenClaims(wire *claims) (*outbound.TokenClaims, error) {
	if wire.Subject == "" {
		return nil, domainerr.Wrap(domainerr.ErrTokenMalformed, "missing subject", nil)
	}

	authorities, err := valueobject.ParseAuthorities(wire.Authorities)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.ErrClaimMissing, "auth", err)
	}

	tc := &outbound.TokenClaims{
		ID:          wire.ID,
		Subject:     wire.Subject,
		Authorities: authorities,
		Member:      wire.Member,
	}
	if wire.IssuedAt != nil {
		tc.IssuedAt = wire.IssuedAt.Time
	}
	if wire.ExpiresAt != nil {
		tc.ExpiresAt = wire.ExpiresAt.Time
	}
	return tc, nil
}
