// Package cache provides a Redis read-through cache for the jurisdiction
// hierarchy. Beat ancestor chains change rarely (administrative restructures
// only), so a short TTL keeps reads cheap without an invalidation protocol.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"visitation-service/internal/config"
	"visitation-service/internal/models"
)

const beatPathKeyPrefix = "hierarchy:beat:"

// PathReader resolves a beat's ancestor chain from the source of truth.
type PathReader interface {
	BeatPath(ctx context.Context, beatID uuid.UUID) (*models.BeatPath, error)
}

// HierarchyCache caches beat ancestor chains in Redis in front of a
// PathReader. Cache failures degrade to direct reads.
type HierarchyCache struct {
	client *redis.Client
	source PathReader
	ttl    time.Duration
	logger *zap.Logger
}

// NewHierarchyCache connects to Redis and wraps the given source.
func NewHierarchyCache(cfg config.RedisConfig, source PathReader, logger *zap.Logger) (*HierarchyCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.Database,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to redis")
	}

	return &HierarchyCache{
		client: client,
		source: source,
		ttl:    cfg.HierarchyTTL,
		logger: logger.Named("hierarchy-cache"),
	}, nil
}

// BeatPath returns the ancestor chain for a beat, reading through the cache.
func (c *HierarchyCache) BeatPath(ctx context.Context, beatID uuid.UUID) (*models.BeatPath, error) {
	key := beatPathKeyPrefix + beatID.String()

	cached, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var path models.BeatPath
		if err := json.Unmarshal(cached, &path); err == nil {
			return &path, nil
		}
		c.logger.Warn("Discarding corrupt cache entry", zap.String("key", key))
	} else if err != redis.Nil {
		c.logger.Warn("Cache read failed, falling back to database",
			zap.String("key", key), zap.Error(err))
	}

	path, err := c.source.BeatPath(ctx, beatID)
	if err != nil {
		return nil, err
	}
	if path == nil {
		return nil, nil
	}

	if payload, err := json.Marshal(path); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return path, nil
}

// Invalidate drops a beat's cached path after an administrative change.
func (c *HierarchyCache) Invalidate(ctx context.Context, beatID uuid.UUID) error {
	key := beatPathKeyPrefix + beatID.String()
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, "failed to invalidate cache entry")
	}
	return nil
}

// Health verifies the Redis connection.
func (c *HierarchyCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (c *HierarchyCache) Close() error {
	return c.client.Close()
}
