package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/riskwatch/risk-engine/pkg/apperrors"
	"github.com/riskwatch/risk-engine/pkg/config"
	"github.com/riskwatch/risk-engine/pkg/models"
)

// keyPrefix namespaces risk-engine entries in a shared Redis instance.
const keyPrefix = "risk:"

// NewRedisClient creates a Redis client from configuration and verifies the
// connection. Returns nil if Redis is not configured (host is empty).
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// RedisCache is the Redis-backed ProfileCache. Profiles are stored as JSON
// snapshots; Redis TTL and the profile's own expires_at are both enforced,
// the latter lazily on read so a shortened TTL policy takes effect without
// touching stored entries.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewRedisCache wraps a connected Redis client as a ProfileCache.
func NewRedisCache(client *redis.Client, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		logger: logger.Named("redis-cache"),
		now:    time.Now,
	}
}

// Get implements ProfileCache.
func (c *RedisCache) Get(ctx context.Context, key string) (*models.CompanyRiskProfile, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", apperrors.ErrCacheUnavailable, key, err)
	}

	var profile models.CompanyRiskProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		// A corrupt entry reads as a miss; the next Put overwrites it.
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, apperrors.ErrNotFound
	}

	if profile.Expired(c.now()) {
		return nil, apperrors.ErrNotFound
	}

	return &profile, nil
}

// Put implements ProfileCache with whole-entry replacement.
func (c *RedisCache) Put(ctx context.Context, key string, profile *models.CompanyRiskProfile, ttl time.Duration) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: put %s: %v", apperrors.ErrCacheUnavailable, key, err)
	}
	return nil
}

var _ ProfileCache = (*RedisCache)(nil)
