package handler

import (
	"net/http"
	"time"
)

const RefreshTokenCookie = "refreshToken"

// CookieWriter writes the refresh token cookie. Production cookies are
// Secure with SameSite=None so the front end can send them cross-site.
type CookieWriter struct {
	secure bool
	maxAge int
}

func NewCookieWriter(production bool, refreshTTL time.Duration) *CookieWriter {
	return &CookieWriter{secure: production, maxAge: int(refreshTTL.Seconds())}
}

func (c *CookieWriter) SetRefreshToken(w http.ResponseWriter, token string) {
	http.SetCookie(w, c.cookie(token, c.maxAge))
}

func (c *CookieWriter) ClearRefreshToken(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie("", -1))
}

func (c *CookieWriter) cookie(value string, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if c.secure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: sameSite,
		MaxAge:   maxAge,
	}
}

func setBearer(w http.ResponseWriter, accessToken string) {
	w.Header().Set("Authorization", "Bearer "+accessToken)
}
