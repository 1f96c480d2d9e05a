package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/oily/oily-api/application/port/outbound"
	"github.com/oily/oily-api/application/usecase"
	"github.com/oily/oily-api/infrastructure/adapter/kafka"
	"github.com/oily/oily-api/infrastructure/adapter/postgres"
	redisstore "github.com/oily/oily-api/infrastructure/adapter/redis"
	"github.com/oily/oily-api/infrastructure/config"
	"github.com/oily/oily-api/infrastructure/http/handler"
	"github.com/oily/oily-api/infrastructure/http/middleware"
	"github.com/oily/oily-api/infrastructure/http/router"
	"github.com/oily/oily-api/infrastructure/service/jwt"
	"github.com/oily/oily-api/infrastructure/service/logger"
	"github.com/oily/oily-api/infrastructure/service/metrics"
	"github.com/oily/oily-api/infrastructure/service/oauth"
	"github.com/oily/oily-api/infrastructure/service/ratelimit"
	"github.com/oily/oily-api/infrastructure/service/session"
	"github.com/oily/oily-api/infrastructure/service/tracing"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: cfg.ServiceName,
	})
	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"env":  cfg.Environment,
		"addr": cfg.Addr(),
	})

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		ServiceName:  cfg.ServiceName,
		Environment:  cfg.Environment,
		Endpoint:     cfg.OTLPEndpoint,
		Insecure:     cfg.OTLPInsecure,
		SamplingRate: cfg.TraceSamplingRate,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		structuredLogger.Error(ctx, "Failed to ping database", err, nil)
		log.Fatalf("Failed to ping database: %v", err)
	}
	structuredLogger.Info(ctx, "Database connection established", nil)

	redisClient, err := redisstore.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to connect to Redis", err, nil)
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	structuredLogger.Info(ctx, "Redis connection established", nil)

	authMetrics := metrics.NewAuthMetrics()

	codec, err := jwt.NewJWTService(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("Failed to initialize JWT service: %v", err)
	}

	store := redisstore.NewSessionStore(redisClient)
	ledger := session.NewRefreshLedger(store, codec, cfg.RefreshTokenTTL)
	revocations := session.NewRevocationRegistry(store, codec)
	members := postgres.NewMemberRepository(db, authMetrics)

	var events outbound.AuthEventPublisher = kafka.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		events = kafka.NewAuthEventPublisher(cfg.KafkaBrokers, cfg.KafkaAuthTopic, structuredLogger)
		structuredLogger.Info(ctx, "Auth events published to Kafka", map[string]interface{}{
			"brokers": cfg.KafkaBrokers,
			"topic":   cfg.KafkaAuthTopic,
		})
	}
	defer events.Close()

	issuer := usecase.NewTokenIssuer(codec, ledger, revocations, members, events, authMetrics, structuredLogger, cfg.AccessTokenTTL)
	nicknames := usecase.NewNicknameService(members)
	memberUseCase := usecase.NewMemberUseCase(members, structuredLogger)
	completion := usecase.NewOAuthCompletionDispatcher(members, nicknames, issuer, events, authMetrics, structuredLogger, cfg.OAuthClientRedirect)

	var providers []outbound.IdentityProvider
	if cfg.GoogleEnabled() {
		google, err := oauth.NewGoogleProvider(ctx, oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.OAuthRedirectBaseURL + "/google",
			IssuerURL:    cfg.GoogleIssuerURL,
		})
		if err != nil {
			log.Fatalf("Failed to initialize Google provider: %v", err)
		}
		providers = append(providers, google)
	} else {
		structuredLogger.Warn(ctx, "No social login provider configured", nil)
	}
	states := oauth.NewStateStore(store, cfg.OAuthStateTTL)

	whitelist, err := middleware.NewWhitelist(cfg.Security.Whitelist)
	if err != nil {
		log.Fatalf("Invalid security whitelist: %v", err)
	}
	adminPaths, err := middleware.NewPathMatcher(cfg.Security.AdminPaths)
	if err != nil {
		log.Fatalf("Invalid admin paths: %v", err)
	}

	rateLimitService := ratelimit.NewRateLimitService(ratelimit.RateLimitConfig{Enabled: cfg.RateLimitEnabled}, redisClient, structuredLogger)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(rateLimitService, middleware.RateLimitConfig{
		Refresh:       middleware.RateLimitPolicy{Attempts: cfg.RateLimitRefreshAttempts, Window: cfg.RateLimitRefreshWindow},
		OAuth:         middleware.RateLimitPolicy{Attempts: cfg.RateLimitOAuthAttempts, Window: cfg.RateLimitOAuthWindow},
		General:       middleware.RateLimitPolicy{Attempts: cfg.RateLimitGeneralAttempts, Window: cfg.RateLimitGeneralWindow},
		BlockDuration: cfg.RateLimitBlockDuration,
	}, structuredLogger)

	cookies := handler.NewCookieWriter(cfg.IsProduction(), cfg.RefreshTokenTTL)
	r := router.New(router.Handlers{
		Auth:   handler.NewAuthHandler(issuer, cookies),
		OAuth:  handler.NewOAuthHandler(oauth.NewRegistry(providers...), states, completion, cookies, cfg.OAuthFailureRedirect, structuredLogger),
		Member: handler.NewMemberHandler(memberUseCase),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": members,
			"redis":    store,
		}),
		Metrics: authMetrics.Handler(),
	}, router.Middlewares{
		Authenticator: middleware.NewAuthenticator(codec, revocations, whitelist, authMetrics, structuredLogger),
		Authorizer:    middleware.NewAuthorizer(whitelist, adminPaths),
		RateLimit:     rateLimitMiddleware,
		Observer:      middleware.RequestObserver(authMetrics, structuredLogger),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           middleware.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials)(r),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		structuredLogger.Info(ctx, "Server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	structuredLogger.Info(ctx, "Shutting down server", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "Server forced to shutdown", err, nil)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "Failed to flush traces", err, nil)
	}
	structuredLogger.Info(ctx, "Server exited", nil)
}
