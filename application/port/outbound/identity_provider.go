package outbound

import (
	"context"

	"github.com/oily/oily-api/domain/valueobject"
)

// OAuthProfile is what an external identity provider hands back after login.
type OAuthProfile struct {
	Provider   valueobject.SocialProvider
	ProviderID string
	Email      string
	Name       string
}

type IdentityProvider interface {
	Provider() valueobject.SocialProvider
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*OAuthProfile, error)
}

// OAuthStateStore keeps the anti-forgery state between authorize and callback.
type OAuthStateStore interface {
	Issue(ctx context.Context, provider valueobject.SocialProvider) (string, error)
	Consume(ctx context.Context, state string, provider valueobject.SocialProvider) error
}
