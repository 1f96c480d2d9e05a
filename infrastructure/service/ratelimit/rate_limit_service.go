package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/oily/oily-api/application/port/inbound"
	"github.com/oily/oily-api/infrastructure/service/logger"
)

const (
	counterPrefix = "ratelimit:"
	blockedPrefix = "ratelimit:blocked:"
)

// rateLimitService is a fixed-window counter on Redis.
type rateLimitService struct {
	redisClient redis.UniversalClient
	logger      logger.Logger
}

type RateLimitConfig struct {
	Enabled bool
}

func NewRateLimitService(config RateLimitConfig, redisClient redis.UniversalClient, log logger.Logger) inbound.RateLimitService {
	if !config.Enabled || redisClient == nil {
		log.Info(context.Background(), "Rate limiting disabled", nil)
		return &noopRateLimitService{}
	}

	return &rateLimitService{
		redisClient: redisClient,
		logger:      log,
	}
}

// CheckLimit counts this attempt and reports whether the window still has room.
func (s *rateLimitService) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := s.incr(ctx, key, window)
	if err != nil {
		return false, err
	}

	return count <= int64(limit), nil
}

func (s *rateLimitService) Increment(ctx context.Context, key string, window time.Duration) error {
	_, err := s.incr(ctx, key, window)
	return err
}

func (s *rateLimitService) incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := s.redisClient.Incr(ctx, counterPrefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment rate limit: %w", err)
	}
	// first hit opens the window
	if count == 1 {
		if err := s.redisClient.Expire(ctx, counterPrefix+key, window).Err(); err != nil {
			return 0, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}
	return count, nil
}

func (s *rateLimitService) Block(ctx context.Context, key string, duration time.Duration, reason string) error {
	blockData := map[string]interface{}{
		"reason":         reason,
		"blocked_at":     time.Now().Unix(),
		"duration":       duration.Seconds(),
		"correlation_id": logger.CorrelationID(ctx),
	}

	pipeline := s.redisClient.TxPipeline()
	pipeline.HSet(ctx, blockedPrefix+key, blockData)
	pipeline.Expire(ctx, blockedPrefix+key, duration)

	if _, err := pipeline.Exec(ctx); err != nil {
		return fmt.Errorf("failed to block key: %w", err)
	}

	s.logger.Warn(ctx, "Key blocked due to rate limit exceeded", map[string]interface{}{
		"key":      key,
		"duration": duration.String(),
		"reason":   reason,
	})
	return nil
}

func (s *rateLimitService) IsBlocked(ctx context.Context, key string) (bool, error) {
	exists, err := s.redisClient.Exists(ctx, blockedPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check block status: %w", err)
	}
	return exists > 0, nil
}

func (s *rateLimitService) GetAttempts(ctx context.Context, key string) (int, error) {
	count, err := s.redisClient.Get(ctx, counterPrefix+key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get attempts: %w", err)
	}
	return count, nil
}

type noopRateLimitService struct{}

func (n *noopRateLimitService) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return true, nil
}

func (n *noopRateLimitService) Increment(ctx context.Context, key string, window time.Duration) error {
	return nil
}

func (n *noopRateLimitService) Block(ctx context.Context, key string, duration time.Duration, reason string) error {
	return nil
}

func (n *noopRateLimitService) IsBlocked(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func (n *noopRateLimitService) GetAttempts(ctx context.Context, key string) (int, error) {
	return 0, nil
}
