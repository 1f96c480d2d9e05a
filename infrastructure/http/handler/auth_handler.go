package handler

import (
	"net/http"

	"github.com/oily/oily-api/application/port/inbound"
	domainerr "github.com/oily/oily-api/domain/error"
	"github.com/oily/oily-api/infrastructure/http/middleware"
	"github.com/oily/oily-api/infrastructure/http/response"
)

type AuthHandler struct {
	issuer  inbound.TokenIssuer
	cookies *CookieWriter
}

func NewAuthHandler(issuer inbound.TokenIssuer, cookies *CookieWriter) *AuthHandler {
	return &AuthHandler{
		issuer:  issuer,
		cookies: cookies,
	}
}

// Refresh rotates the pair presented in the refresh cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		response.Failure(w, domainerr.Wrap(domainerr.ErrInvalidCredential, "missing refresh cookie", err))
		return
	}

	tokens, err := h.issuer.Refresh(r.Context(), cookie.Value)
	if err != nil {
		response.Failure(w, err)
		return
	}

	setBearer(w, tokens.AccessToken)
	h.cookies.SetRefreshToken(w, tokens.RefreshToken)
	response.OK(w, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	req := inbound.SignOutRequest{AccessToken: middleware.BearerToken(r)}
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		req.RefreshToken = cookie.Value
	}

	if err := h.issuer.SignOut(r.Context(), req); err != nil {
		response.Failure(w, err)
		return
	}

	h.cookies.ClearRefreshToken(w)
	response.OK(w, nil)
}
