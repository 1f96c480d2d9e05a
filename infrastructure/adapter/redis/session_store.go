package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/oily/oily-api/application/port/outbound"
	domainerr "github.com/oily/oily-api/domain/error"
)

// compareAndDeleteScript deletes every key in KEYS when KEYS[1] holds ARGV[1].
var compareAndDeleteScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', unpack(KEYS))
end
return 0
`)

// SessionStore implements outbound.SessionStore on Redis. Every error other
// than a missing key is reported as ErrStoreUnavailable.
type SessionStore struct {
	client redis.UniversalClient
}

// NewClient parses a redis:// URL and checks the connection.
func NewClient(ctx context.Context, redisURL string) (redis.UniversalClient, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return domainerr.StoreUnavailable("set", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", outbound.ErrSessionKeyNotFound
	}
	if err != nil {
		return "", domainerr.StoreUnavailable("get", err)
	}
	return value, nil
}

func (s *SessionStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, domainerr.StoreUnavailable("exists", err)
	}
	return n > 0, nil
}

func (s *SessionStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return domainerr.StoreUnavailable("delete", err)
	}
	return nil
}

// CompareAndDelete runs as a single script so two callers presenting the
// same expected value cannot both succeed.
func (s *SessionStore) CompareAndDelete(ctx context.Context, key, expected string, alsoDelete ...string) (bool, error) {
	keys := append([]string{key}, alsoDelete...)
	deleted, err := compareAndDeleteScript.Run(ctx, s.client, keys, expected).Int()
	if err != nil {
		return false, domainerr.StoreUnavailable("compare_and_delete", err)
	}
	return deleted > 0, nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return domainerr.StoreUnavailable("ping", err)
	}
	return nil
}
