package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oily/oily-api/application/port/inbound"
	domainerr "github.com/oily/oily-api/domain/error"
	"github.com/oily/oily-api/infrastructure/http/response"
	"github.com/oily/oily-api/infrastructure/service/logger"
)

// RateLimitPolicy is the attempts/window pair applied to one class of routes.
type RateLimitPolicy struct {
	Attempts int
	Window   time.Duration
}

type RateLimitConfig struct {
	Refresh       RateLimitPolicy
	OAuth         RateLimitPolicy
	General       RateLimitPolicy
	BlockDuration time.Duration
}

type RateLimitMiddleware struct {
	rateLimitService inbound.RateLimitService
	config           RateLimitConfig
	logger           logger.Logger
}

func NewRateLimitMiddleware(rateLimitService inbound.RateLimitService, config RateLimitConfig, logger logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		rateLimitService: rateLimitService,
		config:           config,
		logger:           logger,
	}
}

func (m *RateLimitMiddleware) policyFor(path, clientIP string) (string, RateLimitPolicy) {
	switch {
	case strings.HasPrefix(path, "/v1/auth/refresh"):
		return "refresh:ip:" + clientIP, m.config.Refresh
	case strings.HasPrefix(path, "/oauth2/") || strings.HasPrefix(path, "/login/oauth2/"):
		return "oauth:ip:" + clientIP, m.config.OAuth
	default:
		return "general:ip:" + clientIP, m.config.General
	}
}

func (m *RateLimitMiddleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.rateLimitService == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		clientIP := getClientIP(r)
		key, policy := m.policyFor(r.URL.Path, clientIP)

		isBlocked, err := m.rateLimitService.IsBlocked(ctx, key)
		if err != nil {
			// fail open
			m.logger.Error(ctx, "Failed to check block status", err, map[string]interface{}{
				"ip":  clientIP,
				"key": key,
			})
		}
		if isBlocked {
			logger.LogSecurityEvent(ctx, m.logger, "rate_limit_blocked", "MEDIUM", map[string]interface{}{
				"ip":        clientIP,
				"path":      r.URL.Path,
				"key":       key,
				"userAgent": r.UserAgent(),
			})
			m.reject(w)
			return
		}

		allowed, err := m.rateLimitService.CheckLimit(ctx, key, policy.Attempts, policy.Window)
		if err != nil {
			m.logger.Error(ctx, "Failed to check rate limit", err, map[string]interface{}{
				"ip":  clientIP,
				"key": key,
			})
			allowed = true
		}

		if !allowed {
			if err := m.rateLimitService.Block(ctx, key, m.config.BlockDuration, "Rate limit exceeded"); err != nil {
				m.logger.Error(ctx, "Failed to block IP", err, map[string]interface{}{
					"ip":  clientIP,
					"key": key,
				})
			}

			logger.LogSecurityEvent(ctx, m.logger, "rate_limit_exceeded", "HIGH", map[string]interface{}{
				"ip":        clientIP,
				"path":      r.URL.Path,
				"key":       key,
				"limit":     policy.Attempts,
				"userAgent": r.UserAgent(),
			})
			m.reject(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) reject(w http.ResponseWriter) {
	w.Header().Set("Retry-After", strconv.Itoa(int(m.config.BlockDuration.Seconds())))
	response.Failure(w, domainerr.ErrRateLimitExceeded)
}

// getClientIP extracts client IP from request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
