package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/oily/oily-api/application/port/outbound"
	domainerr "github.com/oily/oily-api/domain/error"
	"github.com/oily/oily-api/domain/valueobject"
	"github.com/oily/oily-api/infrastructure/http/response"
	"github.com/oily/oily-api/infrastructure/service/logger"
	"github.com/oily/oily-api/infrastructure/service/metrics"
)

const bearerPrefix = "Bearer "

type principalKey struct{}

// Principal is the identity established for an authenticated request.
type Principal struct {
	MemberID    string
	Nickname    string
	Authorities valueobject.Authorities
	AccessToken string
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns nil for anonymous requests.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

type Decision int

const (
	DecisionAnonymous Decision = iota
	DecisionAuthenticated
	DecisionReject
)

func (d Decision) String() string {
	switch d {
	case DecisionAuthenticated:
		return "authenticated"
	case DecisionReject:
		return "reject"
	default:
		return "anonymous"
	}
}

// Outcome is the result of evaluating a single request.
type Outcome struct {
	Decision  Decision
	Reason    string
	Principal *Principal
	Err       error
}

type Authenticator struct {
	codec       outbound.TokenCodec
	revocations outbound.RevocationRegistry
	whitelist   *Whitelist
	metrics     *metrics.AuthMetrics
	logger      logger.Logger
}

func NewAuthenticator(codec outbound.TokenCodec, revocations outbound.RevocationRegistry, whitelist *Whitelist, authMetrics *metrics.AuthMetrics, log logger.Logger) *Authenticator {
	return &Authenticator{
		codec:       codec,
		revocations: revocations,
		whitelist:   whitelist,
		metrics:     authMetrics,
		logger:      log,
	}
}

// BearerToken reads the token from the Authorization header. Query
// parameters are never consulted.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// Evaluate decides how a request proceeds. Blacklist and whitelist are
// consulted on every call.
func (a *Authenticator) Evaluate(r *http.Request) Outcome {
	token := BearerToken(r)
	if token == "" {
		return Outcome{Decision: DecisionAnonymous, Reason: "no_token"}
	}

	whitelisted := a.whitelist.Allows(r.Method, r.URL.Path)

	claims, err := a.codec.Verify(token)
	if err == nil && len(claims.Authorities) == 0 {
		err = domainerr.Wrap(domainerr.ErrClaimMissing, "auth", nil)
	}
	if err != nil {
		return a.refuse(whitelisted, "invalid_token", err)
	}

	blacklisted, err := a.revocations.IsBlacklisted(r.Context(), valueobject.AccessToken, token)
	if err != nil {
		return Outcome{Decision: DecisionReject, Reason: "store_unavailable", Err: err}
	}
	if blacklisted {
		return a.refuse(whitelisted, "blacklisted", nil)
	}

	p := &Principal{
		MemberID:    claims.Subject,
		Authorities: claims.Authorities,
		AccessToken: token,
	}
	if claims.Member != nil {
		p.Nickname = claims.Member.Nickname
	}
	return Outcome{Decision: DecisionAuthenticated, Reason: "valid", Principal: p}
}

func (a *Authenticator) refuse(whitelisted bool, reason string, cause error) Outcome {
	if whitelisted {
		return Outcome{Decision: DecisionAnonymous, Reason: reason}
	}
	return Outcome{
		Decision: DecisionReject,
		Reason:   reason,
		Err:      domainerr.Wrap(domainerr.ErrInvalidCredential, reason, cause),
	}
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		outcome := a.Evaluate(r)
		a.metrics.AuthDecision(outcome.Decision.String(), outcome.Reason)

		switch outcome.Decision {
		case DecisionReject:
			if errors.Is(outcome.Err, domainerr.ErrStoreUnavailable) {
				a.logger.Error(ctx, "Blacklist lookup failed", outcome.Err, map[string]interface{}{
					"path": r.URL.Path,
				})
			} else {
				logger.LogSecurityEvent(ctx, a.logger, "token_rejected", "MEDIUM", map[string]interface{}{
					"path":   r.URL.Path,
					"method": r.Method,
					"reason": outcome.Reason,
					"ip":     getClientIP(r),
				})
			}
			response.Failure(w, outcome.Err)
			return
		case DecisionAuthenticated:
			ctx = WithPrincipal(ctx, outcome.Principal)
			ctx = logger.WithMemberID(ctx, outcome.Principal.MemberID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authorizer enforces identity on protected routes and ROLE_ADMIN on admin paths.
type Authorizer struct {
	whitelist  *Whitelist
	adminPaths *PathMatcher
}

func NewAuthorizer(whitelist *Whitelist, adminPaths *PathMatcher) *Authorizer {
	return &Authorizer{whitelist: whitelist, adminPaths: adminPaths}
}

func (z *Authorizer) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || z.whitelist.Allows(r.Method, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		principal := PrincipalFrom(r.Context())
		if principal == nil {
			response.Unauthorized(w)
			return
		}
		if z.adminPaths.Match(r.URL.Path) && !principal.Authorities.Has(valueobject.RoleAdmin) {
			response.Forbidden(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}
