package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AuthMetrics groups the service's Prometheus collectors. A nil *AuthMetrics
// is valid and records nothing.
type AuthMetrics struct {
	registry *prometheus.Registry

	tokenOperations  *prometheus.CounterVec
	authDecisions    *prometheus.CounterVec
	oauthCompletions *prometheus.CounterVec
	repositoryCalls  *prometheus.CounterVec
	repositoryTime   *prometheus.HistogramVec
	httpDuration     *prometheus.HistogramVec
}

func NewAuthMetrics() *AuthMetrics {
	m := &AuthMetrics{
		registry: prometheus.NewRegistry(),
		tokenOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_token_operations_total",
				Help: "Token issuer operations by outcome",
			},
			[]string{"operation", "status"},
		),
		authDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_request_decisions_total",
				Help: "Per-request authentication decisions",
			},
			[]string{"decision", "reason"},
		),
		oauthCompletions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_oauth_completions_total",
				Help: "Social login completions by strategy and outcome",
			},
			[]string{"provider", "strategy", "status"},
		),
		repositoryCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repository_calls_total",
				Help: "Total number of repository method calls",
			},
			[]string{"method", "status"},
		),
		repositoryTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "repository_duration_seconds",
				Help:    "Duration of repository method calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	m.registry.MustRegister(
		m.tokenOperations,
		m.authDecisions,
		m.oauthCompletions,
		m.repositoryCalls,
		m.repositoryTime,
		m.httpDuration,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *AuthMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *AuthMetrics) TokenOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.tokenOperations.WithLabelValues(operation, statusLabel(err)).Inc()
}

func (m *AuthMetrics) AuthDecision(decision, reason string) {
	if m == nil {
		return
	}
	m.authDecisions.WithLabelValues(decision, reason).Inc()
}

func (m *AuthMetrics) OAuthCompletion(provider, strategy string, err error) {
	if m == nil {
		return
	}
	m.oauthCompletions.WithLabelValues(provider, strategy, statusLabel(err)).Inc()
}

func (m *AuthMetrics) RepositoryCall(method string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.repositoryCalls.WithLabelValues(method, statusLabel(err)).Inc()
	m.repositoryTime.WithLabelValues(method).Observe(time.Since(started).Seconds())
}

func (m *AuthMetrics) HTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
