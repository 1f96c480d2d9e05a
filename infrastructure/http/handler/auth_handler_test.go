package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oily/oily-api/application/port/inbound"
	domainerr "github.com/oily/oily-api/domain/error"
	"github.com/oily/oily-api/domain/entity"
	"github.com/oily/oily-api/domain/valueobject"
)

const refreshTTL = 14 * 24 * time.Hour

type mockTokenIssuer struct {
	mock.Mock
}

func (m *mockTokenIssuer) Issue(ctx context.Context, member *entity.Member, authorities valueobject.Authorities) (*valueobject.TokenPair, error) {
	args := m.Called(ctx, member, authorities)
	pair, _ := args.Get(0).(*valueobject.TokenPair)
	return pair, args.Error(1)
}

func (m *mockTokenIssuer) Refresh(ctx context.Context, refreshToken string) (*valueobject.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	pair, _ := args.Get(0).(*valueobject.TokenPair)
	return pair, args.Error(1)
}

func (m *mockTokenIssuer) SignOut(ctx context.Context, req inbound.SignOutRequest) error {
	return m.Called(ctx, req).Error(0)
}

func refreshCookieOf(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == RefreshTokenCookie {
			return c
		}
	}
	require.FailNow(t, "refresh cookie not set")
	return nil
}

func TestAuthHandler_Refresh(t *testing.T) {
	issuer := new(mockTokenIssuer)
	issuer.On("Refresh", mock.Anything, "rt-old").
		Return(valueobject.NewTokenPair("at-new", "rt-new"), nil)
	h := NewAuthHandler(issuer, NewCookieWriter(false, refreshTTL))

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "rt-old"})
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bearer at-new", rec.Header().Get("Authorization"))
	assert.Contains(t, rec.Body.String(), `"isSuccess":true`)

	cookie := refreshCookieOf(t, rec)
	assert.Equal(t, "rt-new", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 1209600, cookie.MaxAge)
	issuer.AssertExpectations(t)
}

func TestAuthHandler_RefreshProductionCookie(t *testing.T) {
	issuer := new(mockTokenIssuer)
	issuer.On("Refresh", mock.Anything, "rt-old").
		Return(valueobject.NewTokenPair("at-new", "rt-new"), nil)
	h := NewAuthHandler(issuer, NewCookieWriter(true, refreshTTL))

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "rt-old"})
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	cookie := refreshCookieOf(t, rec)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
}

func TestAuthHandler_RefreshFailures(t *testing.T) {
	t.Run("missing cookie", func(t *testing.T) {
		issuer := new(mockTokenIssuer)
		h := NewAuthHandler(issuer, NewCookieWriter(false, refreshTTL))

		rec := httptest.NewRecorder()
		h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		issuer.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
	})

	t.Run("replayed token", func(t *testing.T) {
		issuer := new(mockTokenIssuer)
		issuer.On("Refresh", mock.Anything, "rt-used").Return(nil, domainerr.ErrInvalidCredential)
		h := NewAuthHandler(issuer, NewCookieWriter(false, refreshTTL))

		req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "rt-used"})
		rec := httptest.NewRecorder()
		h.Refresh(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Header().Get("Authorization"))
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("store outage", func(t *testing.T) {
		issuer := new(mockTokenIssuer)
		issuer.On("Refresh", mock.Anything, "rt").
			Return(nil, domainerr.StoreUnavailable("get", errors.New("connection refused")))
		h := NewAuthHandler(issuer, NewCookieWriter(false, refreshTTL))

		req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "rt"})
		rec := httptest.NewRecorder()
		h.Refresh(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	issuer := new(mockTokenIssuer)
	issuer.On("SignOut", mock.Anything, inbound.SignOutRequest{AccessToken: "at", RefreshToken: "rt"}).Return(nil)
	h := NewAuthHandler(issuer, NewCookieWriter(false, refreshTTL))

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer at")
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "rt"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "refreshToken=;")
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
	issuer.AssertExpectations(t)
}

func TestAuthHandler_LogoutWithoutToken(t *testing.T) {
	issuer := new(mockTokenIssuer)
	issuer.On("SignOut", mock.Anything, inbound.SignOutRequest{}).Return(domainerr.ErrAuthenticationRequired)
	h := NewAuthHandler(issuer, NewCookieWriter(false, refreshTTL))

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}
