package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/oily/oily-api/application/port/inbound"
	"github.com/oily/oily-api/application/port/outbound"
	"github.com/oily/oily-api/domain/entity"
	domainerr "github.com/oily/oily-api/domain/error"
	"github.com/oily/oily-api/domain/valueobject"
	"github.com/oily/oily-api/infrastructure/service/logger"
	"github.com/oily/oily-api/infrastructure/service/metrics"
)

// oauthPrincipal is either a member already linked to the social account or
// a guest seen for the first time.
type oauthPrincipal interface {
	strategy() string
}

type returningMember struct {
	member *entity.Member
}

type guestProfile struct {
	profile outbound.OAuthProfile
}

func (returningMember) strategy() string { return "returning_member" }
func (guestProfile) strategy() string    { return "new_member" }

// OAuthCompletionDispatcher finishes a social login once the identity
// provider has confirmed the user.
type OAuthCompletionDispatcher struct {
	members           outbound.MemberRepository
	nicknames         inbound.NicknameService
	issuer            inbound.TokenIssuer
	events            outbound.AuthEventPublisher
	metrics           *metrics.AuthMetrics
	logger            logger.Logger
	clientRedirectURI string
}

func NewOAuthCompletionDispatcher(
	members outbound.MemberRepository,
	nicknames inbound.NicknameService,
	issuer inbound.TokenIssuer,
	events outbound.AuthEventPublisher,
	authMetrics *metrics.AuthMetrics,
	log logger.Logger,
	clientRedirectURI string,
) *OAuthCompletionDispatcher {
	return &OAuthCompletionDispatcher{
		members:           members,
		nicknames:         nicknames,
		issuer:            issuer,
		events:            events,
		metrics:           authMetrics,
		logger:            log,
		clientRedirectURI: clientRedirectURI,
	}
}

var _ inbound.OAuthCompletionUseCase = (*OAuthCompletionDispatcher)(nil)

// Complete never returns a domain error: failures come back as
// *domainerr.OAuthError for the OAuth error redirect.
func (d *OAuthCompletionDispatcher) Complete(ctx context.Context, profile outbound.OAuthProfile) (*inbound.OAuthCompletion, error) {
	provider := profile.Provider.RegistrationID()

	principal, err := d.resolvePrincipal(ctx, profile)
	if err != nil {
		d.metrics.OAuthCompletion(provider, "unresolved", err)
		return nil, d.fail(ctx, profile, err)
	}

	var completion *inbound.OAuthCompletion
	switch p := principal.(type) {
	case returningMember:
		completion, err = d.completeReturning(ctx, p)
	case guestProfile:
		completion, err = d.completeGuest(ctx, p)
	default:
		err = domainerr.Wrap(domainerr.ErrInternalServerError, fmt.Sprintf("unhandled oauth principal %T", principal), nil)
		d.logger.Error(ctx, "No login completion strategy for principal", err, nil)
	}

	d.metrics.OAuthCompletion(provider, principal.strategy(), err)
	if err != nil {
		return nil, d.fail(ctx, profile, err)
	}
	return completion, nil
}

func (d *OAuthCompletionDispatcher) resolvePrincipal(ctx context.Context, profile outbound.OAuthProfile) (oauthPrincipal, error) {
	if profile.ProviderID == "" {
		return nil, domainerr.Wrap(domainerr.ErrIdentityProviderFailure, "missing provider id", nil)
	}

	member, err := d.members.FindBySocialLink(ctx, profile.Provider, profile.ProviderID)
	if errors.Is(err, outbound.ErrMemberNotFound) {
		return guestProfile{profile: profile}, nil
	}
	if err != nil {
		return nil, asAppError(err)
	}
	return returningMember{member: member}, nil
}

func (d *OAuthCompletionDispatcher) completeReturning(ctx context.Context, p returningMember) (*inbound.OAuthCompletion, error) {
	tokens, err := d.issuer.Issue(ctx, p.member, p.member.Authorities())
	if err != nil {
		return nil, err
	}

	d.publish(ctx, entity.EventMemberSignedIn, p.member.ID, "")
	return d.completion(p.member, tokens, false), nil
}

func (d *OAuthCompletionDispatcher) completeGuest(ctx context.Context, p guestProfile) (*inbound.OAuthCompletion, error) {
	nickname, err := d.nicknames.RandomNickname(ctx)
	if err != nil {
		return nil, err
	}

	member := entity.NewMember(uuid.NewString(), p.profile.Email, nickname, valueobject.RoleUser)
	social := entity.NewMemberSocial(member.ID, p.profile.Email, p.profile.Provider, p.profile.ProviderID)

	if err := d.members.Provision(ctx, member, social); err != nil {
		switch {
		case errors.Is(err, outbound.ErrNicknameTaken):
			return nil, domainerr.Wrap(domainerr.ErrDuplicateNickname, nickname, err)
		case errors.Is(err, outbound.ErrMemberAlreadyExists):
			return d.resolveProvisionConflict(ctx, p, err)
		default:
			return nil, asAppError(err)
		}
	}

	logger.LogAuthEvent(ctx, d.logger, "member_signed_up", member.ID, "", true, map[string]interface{}{
		"provider": string(p.profile.Provider),
	})

	tokens, err := d.issuer.Issue(ctx, member, member.Authorities())
	if err != nil {
		return nil, err
	}

	d.publish(ctx, entity.EventMemberSignedUp, member.ID, p.profile.Provider)
	return d.completion(member, tokens, true), nil
}

// resolveProvisionConflict handles a unique violation on sign-up. If the
// social link exists now, a concurrent callback created the member first and
// this login continues as a returning one. Otherwise the email belongs to
// another account.
func (d *OAuthCompletionDispatcher) resolveProvisionConflict(ctx context.Context, p guestProfile, cause error) (*inbound.OAuthCompletion, error) {
	member, err := d.members.FindBySocialLink(ctx, p.profile.Provider, p.profile.ProviderID)
	switch {
	case err == nil:
		d.logger.Info(ctx, "Concurrent sign-up resolved to existing member", map[string]interface{}{
			"member_id": member.ID,
			"provider":  string(p.profile.Provider),
		})
		return d.completeReturning(ctx, returningMember{member: member})
	case errors.Is(err, outbound.ErrMemberNotFound):
		return nil, domainerr.Wrap(domainerr.ErrDuplicateEmail, p.profile.Email, cause)
	default:
		return nil, asAppError(err)
	}
}

func (d *OAuthCompletionDispatcher) completion(member *entity.Member, tokens *valueobject.TokenPair, firstLogin bool) *inbound.OAuthCompletion {
	return &inbound.OAuthCompletion{
		Member:      member,
		Tokens:      tokens,
		FirstLogin:  firstLogin,
		RedirectURL: d.redirectURL(firstLogin),
	}
}

// redirectURL appends code=200&isFirstLogin=... to the client redirect URI.
func (d *OAuthCompletionDispatcher) redirectURL(firstLogin bool) string {
	target, err := url.Parse(d.clientRedirectURI)
	if err != nil {
		return d.clientRedirectURI
	}
	q := target.Query()
	q.Set("code", "200")
	q.Set("isFirstLogin", strconv.FormatBool(firstLogin))
	target.RawQuery = q.Encode()
	return target.String()
}

func (d *OAuthCompletionDispatcher) fail(ctx context.Context, profile outbound.OAuthProfile, err error) error {
	oauthErr := domainerr.ToOAuthError(err)
	d.logger.Error(ctx, "Social login completion failed", err, map[string]interface{}{
		"provider":    string(profile.Provider),
		"oauth_error": oauthErr.ErrorCode,
	})
	return oauthErr
}

func (d *OAuthCompletionDispatcher) publish(ctx context.Context, eventType entity.AuthEventType, memberID string, provider valueobject.SocialProvider) {
	if d.events == nil {
		return
	}
	event := entity.NewAuthEvent(eventType, memberID)
	event.Provider = provider
	if err := d.events.Publish(ctx, event); err != nil {
		d.logger.Warn(ctx, "Auth event dropped", map[string]interface{}{
			"event_type": string(eventType),
			"error":      err.Error(),
		})
	}
}
