package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"studyspace-api/config"

	"github.com/redis/go-redis/v9"
)

// CacheService wraps Redis for response caching, session revocation and
// the live-update pub/sub channel. A nil client means Redis was
// unreachable at startup; every method degrades to a no-op so the API
// keeps serving from Postgres alone.
type CacheService struct {
	client *redis.Client
}

func NewCacheService(cfg config.RedisConfig) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Redis often comes up after the API in compose setups, so retry
	// for a short while before falling back to degraded mode.
	var lastErr error
	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		lastErr = client.Ping(ctx).Err()
		cancel()
		if lastErr == nil {
			return &CacheService{client: client}, nil
		}
		log.Printf("Redis ping attempt %d/5 failed: %v", i+1, lastErr)
		time.Sleep(2 * time.Second)
	}

	return &CacheService{client: nil}, fmt.Errorf("redis ping failed after 5 attempts: %w", lastErr)
}

func (s *CacheService) Available() bool {
	return s.client != nil
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if s.client == nil {
		return redis.Nil
	}
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Delete(ctx context.Context, key string) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, key).Err()
}

func (s *CacheService) Publish(ctx context.Context, channel string, message interface{}) error {
	if s.client == nil {
		return nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, channel, data).Err()
}

func (s *CacheService) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	if s.client == nil {
		return nil
	}
	return s.client.Subscribe(ctx, channel)
}

// revokedKeyPrefix namespaces the session denylist entries.
const revokedKeyPrefix = "revoked:"

// RevokeSession denylists a session JTI. The TTL should be the token's
// remaining lifetime; after that the signature check rejects it anyway.
func (s *CacheService) RevokeSession(ctx context.Context, jti string, ttl time.Duration) error {
	return s.Set(ctx, revokedKeyPrefix+jti, true, ttl)
}

// SessionRevoked reports whether a JTI has been denylisted. With Redis down
// it reports false and the token stands on its signature alone.
func (s *CacheService) SessionRevoked(ctx context.Context, jti string) bool {
	var revoked bool
	_ = s.Get(ctx, revokedKeyPrefix+jti, &revoked)
	return revoked
}

func (s *CacheService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
