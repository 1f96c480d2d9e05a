package handler

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/oily/oily-api/application/port/inbound"
	"github.com/oily/oily-api/application/port/outbound"
	domainerr "github.com/oily/oily-api/domain/error"
	"github.com/oily/oily-api/infrastructure/service/logger"
)

// ProviderLookup resolves a registration id from the URL to a provider.
type ProviderLookup interface {
	Lookup(registrationID string) (outbound.IdentityProvider, error)
}

type OAuthHandler struct {
	providers       ProviderLookup
	states          outbound.OAuthStateStore
	completion      inbound.OAuthCompletionUseCase
	cookies         *CookieWriter
	failureRedirect string
	logger          logger.Logger
}

func NewOAuthHandler(providers ProviderLookup, states outbound.OAuthStateStore, completion inbound.OAuthCompletionUseCase, cookies *CookieWriter, failureRedirect string, log logger.Logger) *OAuthHandler {
	return &OAuthHandler{
		providers:       providers,
		states:          states,
		completion:      completion,
		cookies:         cookies,
		failureRedirect: failureRedirect,
		logger:          log,
	}
}

// Authorize sends the browser to the provider's consent page.
func (h *OAuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	provider, err := h.providers.Lookup(mux.Vars(r)["provider"])
	if err != nil {
		h.fail(w, r, err)
		return
	}

	state, err := h.states.Issue(r.Context(), provider.Provider())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

// Callback finishes the authorization code flow and signs the member in.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	provider, err := h.providers.Lookup(mux.Vars(r)["provider"])
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if providerErr := query.Get("error"); providerErr != "" {
		h.fail(w, r, domainerr.Wrap(domainerr.ErrIdentityProviderFailure, providerErr, nil))
		return
	}

	if err := h.states.Consume(ctx, query.Get("state"), provider.Provider()); err != nil {
		h.fail(w, r, err)
		return
	}

	profile, err := provider.Exchange(ctx, query.Get("code"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	completion, err := h.completion.Complete(ctx, *profile)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	setBearer(w, completion.Tokens.AccessToken)
	h.cookies.SetRefreshToken(w, completion.Tokens.RefreshToken)
	http.Redirect(w, r, completion.RedirectURL, http.StatusFound)
}

func (h *OAuthHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	oauthErr := domainerr.ToOAuthError(err)
	h.logger.Warn(r.Context(), "Social login failed", map[string]interface{}{
		"provider":   mux.Vars(r)["provider"],
		"error_code": oauthErr.ErrorCode,
		"error":      err.Error(),
	})

	target, parseErr := url.Parse(h.failureRedirect)
	if parseErr != nil {
		http.Error(w, oauthErr.ErrorCode, http.StatusBadRequest)
		return
	}
	q := target.Query()
	q.Set("error", oauthErr.ErrorCode)
	q.Set("error_description", oauthErr.Description)
	target.RawQuery = q.Encode()

	http.Redirect(w, r, target.String(), http.StatusFound)
}
