package oauth

import (
	"github.com/oily/oily-api/application/port/outbound"
	domainerr "github.com/oily/oily-api/domain/error"
	"github.com/oily/oily-api/domain/valueobject"
)

// Registry holds the identity providers that have credentials configured.
type Registry struct {
	providers map[valueobject.SocialProvider]outbound.IdentityProvider
}

func NewRegistry(providers ...outbound.IdentityProvider) *Registry {
	r := &Registry{providers: make(map[valueobject.SocialProvider]outbound.IdentityProvider, len(providers))}
	for _, p := range providers {
		r.providers[p.Provider()] = p
	}
	return r
}

// Lookup resolves a registration id such as "google".
func (r *Registry) Lookup(registrationID string) (outbound.IdentityProvider, error) {
	provider, err := valueobject.ParseSocialProvider(registrationID)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.ErrUnsupportedIdentityProvider, registrationID, err)
	}
	p, ok := r.providers[provider]
	if !ok {
		return nil, domainerr.Wrap(domainerr.ErrUnsupportedIdentityProvider, registrationID, nil)
	}
	return p, nil
}
