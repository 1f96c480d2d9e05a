package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oily/oily-api/infrastructure/http/handler"
	"github.com/oily/oily-api/infrastructure/http/middleware"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	OAuth   *handler.OAuthHandler
	Member  *handler.MemberHandler
	Health  *handler.HealthHandler
	Metrics http.Handler
}

type Middlewares struct {
	Authenticator *middleware.Authenticator
	Authorizer    *middleware.Authorizer
	RateLimit     *middleware.RateLimitMiddleware
	Observer      mux.MiddlewareFunc
}

// New registers every route. Middleware order: correlation id, request
// observation, rate limiting, authentication, then authorization.
func New(h Handlers, m Middlewares) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.CorrelationIDMiddleware)
	if m.Observer != nil {
		r.Use(m.Observer)
	}
	if m.RateLimit != nil {
		r.Use(m.RateLimit.RateLimit)
	}
	r.Use(m.Authenticator.Authenticate, m.Authorizer.Authorize)

	r.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics).Methods(http.MethodGet)
	}

	r.HandleFunc("/oauth2/authorization/{provider}", h.OAuth.Authorize).Methods(http.MethodGet)
	r.HandleFunc("/login/oauth2/code/{provider}", h.OAuth.Callback).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/auth/refresh", h.Auth.Refresh).Methods(http.MethodPost)
	v1.HandleFunc("/auth/logout", h.Auth.Logout).Methods(http.MethodPost)
	v1.HandleFunc("/member/me", h.Member.Me).Methods(http.MethodGet)
	v1.HandleFunc("/member/me", h.Member.UpdateNickname).Methods(http.MethodPatch)
	v1.HandleFunc("/admin/members/{memberId}", h.Member.Lookup).Methods(http.MethodGet)

	return r
}
