package oauth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/oily/oily-api/application/port/outbound"
	domainerr "github.com/oily/oily-api/domain/error"
	"github.com/oily/oily-api/domain/valueobject"
)

const defaultDisplayName = "user"

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	IssuerURL    string
}

// GoogleProvider runs the authorization code flow against Google and
// reads the profile from the verified ID token.
type GoogleProvider struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
}

func NewGoogleProvider(ctx context.Context, cfg GoogleConfig) (*GoogleProvider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC endpoints: %w", err)
	}

	endpoint := provider.Endpoint()
	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   endpoint.AuthURL,
			TokenURL:  endpoint.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	return newGoogleProvider(oauth2Config, provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})), nil
}

func newGoogleProvider(oauth2Config *oauth2.Config, verifier *oidc.IDTokenVerifier) *GoogleProvider {
	return &GoogleProvider{oauth2Config: oauth2Config, verifier: verifier}
}

func (p *GoogleProvider) Provider() valueobject.SocialProvider {
	return valueobject.ProviderGoogle
}

// AuthCodeURL always shows the account chooser.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

type googleClaims struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*outbound.OAuthProfile, error) {
	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.ErrIdentityProviderFailure, "code exchange", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, domainerr.Wrap(domainerr.ErrIdentityProviderFailure, "token response has no id_token", nil)
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.ErrIdentityProviderFailure, "id_token verification", err)
	}

	var claims googleClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, domainerr.Wrap(domainerr.ErrIdentityProviderFailure, "id_token claims", err)
	}

	name := claims.Name
	if name == "" {
		name = defaultDisplayName
	}
	return &outbound.OAuthProfile{
		Provider:   valueobject.ProviderGoogle,
		ProviderID: claims.Subject,
		Email:      claims.Email,
		Name:       name,
	}, nil
}
