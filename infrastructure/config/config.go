package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	Environment string
	ServerHost  string
	ServerPort  string

	DatabaseURL string
	RedisURL    string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	LogLevel  string
	LogFormat string

	RateLimitEnabled         bool
	RateLimitRefreshAttempts int
	RateLimitRefreshWindow   time.Duration
	RateLimitOAuthAttempts   int
	RateLimitOAuthWindow     time.Duration
	RateLimitGeneralAttempts int
	RateLimitGeneralWindow   time.Duration
	RateLimitBlockDuration   time.Duration

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	GoogleClientID       string
	GoogleClientSecret   string
	GoogleIssuerURL      string
	OAuthRedirectBaseURL string
	OAuthClientRedirect  string
	OAuthFailureRedirect string
	OAuthStateTTL        time.Duration

	KafkaBrokers   []string
	KafkaAuthTopic string

	OTLPEndpoint      string
	OTLPInsecure      bool
	TraceSamplingRate float64

	SecurityConfigPath string
	Security           *SecurityPolicy
}

var (
	ErrMissingDatabaseURL    = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret      = errors.New("JWT_SECRET is required")
	ErrInvalidTokenTTL       = errors.New("token TTLs must be positive and access TTL shorter than refresh TTL")
	ErrMissingClientRedirect = errors.New("OAUTH2_CLIENT_REDIRECT_URI is required when a social provider is configured")
)

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName: getEnvOrDefault("SERVICE_NAME", "oily-api"),
		Environment: getEnvOrDefault("ENV", "development"),
		ServerHost:  getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
		ServerPort:  getEnvOrDefault("SERVER_PORT", "8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  getEnvOrDefaultDuration("JWT_ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTokenTTL: getEnvOrDefaultDuration("JWT_REFRESH_TOKEN_TTL", 14*24*time.Hour),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),

		RateLimitEnabled:         getEnvOrDefaultBool("RATE_LIMIT_ENABLED", true),
		RateLimitRefreshAttempts: getEnvOrDefaultInt("RATE_LIMIT_REFRESH_ATTEMPTS", 30),
		RateLimitRefreshWindow:   getEnvOrDefaultDuration("RATE_LIMIT_REFRESH_WINDOW", time.Hour),
		RateLimitOAuthAttempts:   getEnvOrDefaultInt("RATE_LIMIT_OAUTH_ATTEMPTS", 20),
		RateLimitOAuthWindow:     getEnvOrDefaultDuration("RATE_LIMIT_OAUTH_WINDOW", 15*time.Minute),
		RateLimitGeneralAttempts: getEnvOrDefaultInt("RATE_LIMIT_GENERAL_ATTEMPTS", 100),
		RateLimitGeneralWindow:   getEnvOrDefaultDuration("RATE_LIMIT_GENERAL_WINDOW", time.Minute),
		RateLimitBlockDuration:   getEnvOrDefaultDuration("RATE_LIMIT_BLOCK_DURATION", 15*time.Minute),

		CORSAllowedOrigins:   splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		CORSAllowCredentials: getEnvOrDefaultBool("CORS_ALLOW_CREDENTIALS", true),

		GoogleClientID:       os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:   os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleIssuerURL:      getEnvOrDefault("GOOGLE_ISSUER_URL", "https://accounts.google.com"),
		OAuthRedirectBaseURL: getEnvOrDefault("OAUTH2_REDIRECT_BASE_URL", "http://localhost:8080/login/oauth2/code"),
		OAuthClientRedirect:  os.Getenv("OAUTH2_CLIENT_REDIRECT_URI"),
		OAuthFailureRedirect: os.Getenv("OAUTH2_FAILURE_REDIRECT_URI"),
		OAuthStateTTL:        getEnvOrDefaultDuration("OAUTH2_STATE_TTL", 10*time.Minute),

		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaAuthTopic: getEnvOrDefault("KAFKA_AUTH_TOPIC", "oily.auth-events"),

		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:      getEnvOrDefaultBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		TraceSamplingRate: getEnvOrDefaultFloat("OTEL_TRACES_SAMPLER_ARG", 1.0),

		SecurityConfigPath: getEnvOrDefault("SECURITY_CONFIG_PATH", "config/security.yaml"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	policy, err := LoadSecurityPolicy(cfg.SecurityConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.Security = policy

	return cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.AccessTokenTTL >= c.RefreshTokenTTL {
		return ErrInvalidTokenTTL
	}
	if c.GoogleEnabled() && c.OAuthClientRedirect == "" {
		return ErrMissingClientRedirect
	}
	if c.OAuthFailureRedirect == "" {
		c.OAuthFailureRedirect = c.OAuthClientRedirect
	}
	return nil
}

func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// getEnvOrDefaultDuration accepts plain seconds or a Go duration string.
func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * time.Second
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return d
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}
