// Package cache holds the Redis-backed class list cache.
//
// Invalidation bumps a generation counter instead of deleting keys. A reader
// records the generation before it queries the database and stores its result
// under that generation, so a result computed before a write can never be
// served after it. When the counter cannot be bumped the cache stops serving
// until a later bump succeeds.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/config"
	"github.com/stemsi/minilms-backend/internal/model"
)

// ClassList caches the default class page in Redis.
type ClassList struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger

	// pending is set while an invalidation has not reached Redis.
	pending atomic.Bool
}

// NewClassList creates a new ClassList cache.
func NewClassList(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *ClassList {
	return &ClassList{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "class_cache").Logger(),
	}
}

// Get returns the cached page for the current generation. The token is empty
// when Redis could not be reached, which makes the following Set a no-op.
func (c *ClassList) Get(ctx context.Context) ([]model.Class, string, bool) {
	if c.pending.Swap(false) {
		if err := c.bump(ctx); err != nil {
			c.pending.Store(true)
			c.log.Warn().Err(err).Msg("Class list cache still awaiting invalidation")
			return nil, "", false
		}
	}

	gen, err := c.rdb.Get(ctx, config.CacheKey.ClassListGenerationKey()).Result()
	if errors.Is(err, redis.Nil) {
		gen = "0"
	} else if err != nil {
		c.log.Warn().Err(err).Msg("Failed to read class list generation")
		return nil, "", false
	}

	raw, err := c.rdb.Get(ctx, config.CacheKey.ClassListKey(gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to read class list")
		return nil, gen, false
	}

	var classes []model.Class
	if err := json.Unmarshal(raw, &classes); err != nil {
		c.log.Warn().Err(err).Msg("Discarding undecodable class list")
		return nil, gen, false
	}
	return classes, gen, true
}

// Set stores classes under the generation returned by Get.
func (c *ClassList) Set(ctx context.Context, token string, classes []model.Class) {
	if token == "" {
		return
	}
	raw, err := json.Marshal(classes)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to encode class list")
		return
	}
	if err := c.rdb.Set(ctx, config.CacheKey.ClassListKey(token), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("Failed to store class list")
	}
}

// Invalidate starts a new generation. Entries of older generations expire on
// their own. If the bump fails the current entry is dropped where possible
// and Get bypasses the cache until the bump is retried successfully.
func (c *ClassList) Invalidate(ctx context.Context) {
	err := c.bump(ctx)
	if err == nil {
		return
	}
	c.pending.Store(true)
	c.log.Error().Err(err).Msg("Failed to invalidate class list cache")

	gen, err := c.rdb.Get(ctx, config.CacheKey.ClassListGenerationKey()).Result()
	if errors.Is(err, redis.Nil) {
		gen = "0"
	} else if err != nil {
		return
	}
	if err := c.rdb.Del(ctx, config.CacheKey.ClassListKey(gen)).Err(); err != nil {
		c.log.Warn().Err(err).Msg("Failed to drop class list")
	}
}

func (c *ClassList) bump(ctx context.Context) error {
	return c.rdb.Incr(ctx, config.CacheKey.ClassListGenerationKey()).Err()
}

// Noop is used when no Redis is configured.
type Noop struct{}

func (Noop) Get(context.Context) ([]model.Class, string, bool) { return nil, "", false }

func (Noop) Set(context.Context, string, []model.Class) {}

func (Noop) Invalidate(context.Context) {}
