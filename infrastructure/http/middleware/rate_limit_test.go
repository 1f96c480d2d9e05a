package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/oily/oily-api/infrastructure/service/logger"
)

type mockRateLimitService struct {
	mock.Mock
}

func (m *mockRateLimitService) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *mockRateLimitService) Increment(ctx context.Context, key string, window time.Duration) error {
	return m.Called(ctx, key, window).Error(0)
}

func (m *mockRateLimitService) Block(ctx context.Context, key string, duration time.Duration, reason string) error {
	return m.Called(ctx, key, duration, reason).Error(0)
}

func (m *mockRateLimitService) IsBlocked(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockRateLimitService) GetAttempts(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

var testRateLimits = RateLimitConfig{
	Refresh:       RateLimitPolicy{Attempts: 30, Window: time.Hour},
	OAuth:         RateLimitPolicy{Attempts: 20, Window: 15 * time.Minute},
	General:       RateLimitPolicy{Attempts: 100, Window: time.Minute},
	BlockDuration: 15 * time.Minute,
}

func serveRateLimited(svc *mockRateLimitService, method, path string) *httptest.ResponseRecorder {
	mw := NewRateLimitMiddleware(svc, testRateLimits, logger.NewNopLogger())
	handler := mw.RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_Allowed(t *testing.T) {
	svc := new(mockRateLimitService)
	svc.On("IsBlocked", mock.Anything, "refresh:ip:10.0.0.1").Return(false, nil)
	svc.On("CheckLimit", mock.Anything, "refresh:ip:10.0.0.1", 30, time.Hour).Return(true, nil)

	rec := serveRateLimited(svc, http.MethodPost, "/v1/auth/refresh")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	svc.AssertExpectations(t)
}

func TestRateLimit_ExceededBlocks(t *testing.T) {
	svc := new(mockRateLimitService)
	svc.On("IsBlocked", mock.Anything, "oauth:ip:10.0.0.1").Return(false, nil)
	svc.On("CheckLimit", mock.Anything, "oauth:ip:10.0.0.1", 20, 15*time.Minute).Return(false, nil)
	svc.On("Block", mock.Anything, "oauth:ip:10.0.0.1", 15*time.Minute, "Rate limit exceeded").Return(nil)

	rec := serveRateLimited(svc, http.MethodGet, "/oauth2/authorization/google")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":429`)
	svc.AssertExpectations(t)
}

func TestRateLimit_Blocked(t *testing.T) {
	svc := new(mockRateLimitService)
	svc.On("IsBlocked", mock.Anything, "general:ip:10.0.0.1").Return(true, nil)

	rec := serveRateLimited(svc, http.MethodGet, "/v1/member/me")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	svc.AssertNotCalled(t, "CheckLimit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	svc := new(mockRateLimitService)
	svc.On("IsBlocked", mock.Anything, "general:ip:10.0.0.1").Return(false, errors.New("redis down"))
	svc.On("CheckLimit", mock.Anything, "general:ip:10.0.0.1", 100, time.Minute).Return(false, errors.New("redis down"))

	rec := serveRateLimited(svc, http.MethodGet, "/v1/member/me")

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.2:4000"
	assert.Equal(t, "192.168.1.2", getClientIP(req))

	req.Header.Set("X-Real-IP", "172.16.0.9")
	assert.Equal(t, "172.16.0.9", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", getClientIP(req))
}
