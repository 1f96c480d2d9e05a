package usecase

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/oily/oily-api/application/port/inbound"
	"github.com/oily/oily-api/application/port/outbound"
	"github.com/oily/oily-api/domain/entity"
	domainerr "github.com/oily/oily-api/domain/error"
	"github.com/oily/oily-api/domain/valueobject"
	"github.com/oily/oily-api/infrastructure/service/logger"
	"github.com/oily/oily-api/infrastructure/service/metrics"
)

const tracerName = "github.com/oily/oily-api/application/usecase"

type TokenIssuer struct {
	codec          outbound.TokenCodec
	ledger         outbound.RefreshTokenLedger
	revocations    outbound.RevocationRegistry
	members        outbound.MemberRepository
	events         outbound.AuthEventPublisher
	metrics        *metrics.AuthMetrics
	logger         logger.Logger
	tracer         trace.Tracer
	accessTokenTTL time.Duration
	now            func() time.Time
}

func NewTokenIssuer(
	codec outbound.TokenCodec,
	ledger outbound.RefreshTokenLedger,
	revocations outbound.RevocationRegistry,
	members outbound.MemberRepository,
	events outbound.AuthEventPublisher,
	authMetrics *metrics.AuthMetrics,
	log logger.Logger,
	accessTokenTTL time.Duration,
) *TokenIssuer {
	return &TokenIssuer{
		codec:          codec,
		ledger:         ledger,
		revocations:    revocations,
		members:        members,
		events:         events,
		metrics:        authMetrics,
		logger:         log,
		tracer:         otel.Tracer(tracerName),
		accessTokenTTL: accessTokenTTL,
		now:            time.Now,
	}
}

var _ inbound.TokenIssuer = (*TokenIssuer)(nil)

func (uc *TokenIssuer) Issue(ctx context.Context, member *entity.Member, authorities valueobject.Authorities) (*valueobject.TokenPair, error) {
	ctx, span := uc.tracer.Start(ctx, "TokenIssuer.Issue", trace.WithAttributes(attribute.String("member.id", member.ID)))
	defer span.End()

	pair, err := uc.issue(ctx, member, authorities)
	uc.finish(span, "issue", err)
	if err != nil {
		uc.logger.Error(ctx, "Failed to issue token pair", err, map[string]interface{}{
			"member_id": member.ID,
		})
		return nil, err
	}

	logger.LogAuthEvent(ctx, uc.logger, "token_issued", member.ID, "", true, nil)
	return pair, nil
}

func (uc *TokenIssuer) issue(ctx context.Context, member *entity.Member, authorities valueobject.Authorities) (*valueobject.TokenPair, error) {
	accessToken, err := uc.codec.Sign(member.ID, outbound.TokenClaims{
		Authorities: authorities,
		Member:      &outbound.MemberClaim{ID: member.ID, Nickname: member.Nickname},
	}, uc.now().Add(uc.accessTokenTTL))
	if err != nil {
		return nil, asAppError(err)
	}

	refreshToken, err := uc.ledger.Issue(ctx, member.ID, authorities)
	if err != nil {
		return nil, asAppError(err)
	}

	return valueobject.NewTokenPair(accessToken, refreshToken), nil
}

// Refresh rotates a refresh token. The presented token is single use: the
// ledger entry is removed with a compare-and-delete before the new pair is
// issued, so a replay or a concurrent duplicate fails with ErrInvalidCredential.
func (uc *TokenIssuer) Refresh(ctx context.Context, refreshToken string) (*valueobject.TokenPair, error) {
	ctx, span := uc.tracer.Start(ctx, "TokenIssuer.Refresh")
	defer span.End()

	pair, memberID, err := uc.refresh(ctx, refreshToken)
	uc.finish(span, "refresh", err)
	if err != nil {
		logger.LogAuthEvent(ctx, uc.logger, "token_refresh", memberID, "", false, map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	span.SetAttributes(attribute.String("member.id", memberID))
	logger.LogAuthEvent(ctx, uc.logger, "token_refresh", memberID, "", true, nil)
	uc.publish(ctx, entity.NewAuthEvent(entity.EventTokenRefreshed, memberID))
	return pair, nil
}

func (uc *TokenIssuer) refresh(ctx context.Context, refreshToken string) (*valueobject.TokenPair, string, error) {
	claims, err := uc.codec.Verify(refreshToken)
	if err != nil {
		return nil, "", domainerr.Wrap(domainerr.ErrInvalidCredential, "refresh token rejected", err)
	}

	blacklisted, err := uc.revocations.IsBlacklisted(ctx, valueobject.RefreshToken, refreshToken)
	if err != nil {
		return nil, "", asAppError(err)
	}
	if blacklisted {
		return nil, "", domainerr.Wrap(domainerr.ErrInvalidCredential, "refresh token revoked", nil)
	}

	record, err := uc.ledger.Resolve(ctx, claims.Subject)
	if errors.Is(err, outbound.ErrRefreshRecordNotFound) {
		return nil, "", domainerr.Wrap(domainerr.ErrInvalidCredential, "refresh token not found", err)
	}
	if err != nil {
		return nil, "", asAppError(err)
	}

	member, err := uc.members.FindByID(ctx, record.MemberID)
	if errors.Is(err, outbound.ErrMemberNotFound) {
		return nil, record.MemberID, domainerr.Wrap(domainerr.ErrMemberNotFound, record.MemberID, err)
	}
	if err != nil {
		return nil, record.MemberID, asAppError(err)
	}

	consumed, err := uc.ledger.ConsumeIfCurrent(ctx, record.MemberID, claims.Subject)
	if err != nil {
		return nil, record.MemberID, asAppError(err)
	}
	if !consumed {
		logger.LogSecurityEvent(ctx, uc.logger, "refresh_token_reuse", "HIGH", map[string]interface{}{
			"member_id": record.MemberID,
		})
		return nil, record.MemberID, domainerr.Wrap(domainerr.ErrInvalidCredential, "refresh token already used", nil)
	}

	pair, err := uc.issue(ctx, member, member.Authorities())
	if err != nil {
		return nil, member.ID, err
	}
	return pair, member.ID, nil
}

// SignOut is idempotent. The member is taken from the access token subject,
// which is accepted even after the token expired.
func (uc *TokenIssuer) SignOut(ctx context.Context, req inbound.SignOutRequest) error {
	ctx, span := uc.tracer.Start(ctx, "TokenIssuer.SignOut")
	defer span.End()

	memberID, err := uc.signOut(ctx, req)
	uc.finish(span, "sign_out", err)
	if err != nil {
		logger.LogAuthEvent(ctx, uc.logger, "sign_out", memberID, "", false, map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	logger.LogAuthEvent(ctx, uc.logger, "sign_out", memberID, "", true, nil)
	uc.publish(ctx, entity.NewAuthEvent(entity.EventMemberSignedOut, memberID))
	return nil
}

func (uc *TokenIssuer) signOut(ctx context.Context, req inbound.SignOutRequest) (string, error) {
	if req.AccessToken == "" {
		return "", domainerr.ErrAuthenticationRequired
	}

	// Expiry is tolerated; a token without authorities is a refresh token
	// and does not identify the session to end.
	claims, err := uc.codec.Verify(req.AccessToken)
	if err != nil && !errors.Is(err, domainerr.ErrTokenExpired) {
		return "", domainerr.Wrap(domainerr.ErrInvalidCredential, "access token rejected", err)
	}
	if len(claims.Authorities) == 0 {
		return "", domainerr.Wrap(domainerr.ErrInvalidCredential, "access token rejected",
			domainerr.Wrap(domainerr.ErrClaimMissing, "auth", nil))
	}
	memberID := claims.Subject

	if err := uc.ledger.Consume(ctx, memberID); err != nil {
		return memberID, asAppError(err)
	}

	if err := uc.revocations.Blacklist(ctx, valueobject.AccessToken, req.AccessToken); err != nil {
		return memberID, asAppError(err)
	}

	if req.RefreshToken != "" {
		err := uc.revocations.Blacklist(ctx, valueobject.RefreshToken, req.RefreshToken)
		if errors.Is(err, domainerr.ErrStoreUnavailable) {
			return memberID, err
		}
		if err != nil {
			uc.logger.Warn(ctx, "Ignoring unusable refresh token on sign out", map[string]interface{}{
				"member_id": memberID,
				"error":     err.Error(),
			})
		}
	}

	return memberID, nil
}

func (uc *TokenIssuer) finish(span trace.Span, operation string, err error) {
	uc.metrics.TokenOperation(operation, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, operation+" failed")
	}
}

func (uc *TokenIssuer) publish(ctx context.Context, event entity.AuthEvent) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, event); err != nil {
		uc.logger.Warn(ctx, "Auth event dropped", map[string]interface{}{
			"event_type": string(event.Type),
			"error":      err.Error(),
		})
	}
}

// asAppError keeps typed errors and turns anything else into an internal error.
func asAppError(err error) error {
	var appErr *domainerr.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return domainerr.Wrap(domainerr.ErrInternalServerError, "", err)
}
