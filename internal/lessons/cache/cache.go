// Package cache is the Redis-backed lesson cache. Identical requests within
// the TTL are served from Redis, and singleflight collapses concurrent misses
// for the same key into one pipeline run. Invalidation is pattern-based and
// driven by cache-invalidate events from the indexer.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/assembler"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/lessons"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/config"
	pkgredis "github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/redis"
)

const keyPrefix = "lesson:"

type LessonCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New(client *pkgredis.Client, cfg config.RedisConfig) *LessonCache {
	return &LessonCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "lesson-cache"),
	}
}

func (c *LessonCache) Get(ctx context.Context, req *lessons.Request) (*assembler.Lesson, bool) {
	key := c.buildKey(req)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if pkgredis.IsNilError(err) {
			c.misses.Add(1)
			return nil, false
		}
		c.logger.Error("cache get failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	var lesson assembler.Lesson
	if err := json.Unmarshal([]byte(data), &lesson); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "topic", req.Topic, "key", key)
	return &lesson, true
}

func (c *LessonCache) Set(ctx context.Context, req *lessons.Request, lesson *assembler.Lesson) {
	// Degraded lessons are not cached: the next request should retry the
	// store rather than pin the fallback for a full TTL.
	if lesson.Degraded {
		return
	}
	key := c.buildKey(req)
	data, err := json.Marshal(lesson)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached lesson for req, or runs computeFn exactly
// once per key across concurrent callers and caches the result. The bool
// reports whether the lesson came from cache.
func (c *LessonCache) GetOrCompute(
	ctx context.Context,
	req *lessons.Request,
	computeFn func() (*assembler.Lesson, error),
) (*assembler.Lesson, bool, error) {
	if lesson, ok := c.Get(ctx, req); ok {
		return lesson, true, nil
	}
	key := c.buildKey(req)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if lesson, ok := c.Get(ctx, req); ok {
			return lesson, nil
		}
		lesson, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, req, lesson)
		return lesson, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*assembler.Lesson), false, nil
}

// Invalidate deletes every cached lesson. Called when the curriculum corpus
// changes.
func (c *LessonCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating lesson cache: %w", err)
	}
	c.logger.Info("lesson cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *LessonCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *LessonCache) buildKey(req *lessons.Request) string {
	raw := fmt.Sprintf("%s|%d|%s|%s|limit=%d",
		strings.ToLower(strings.TrimSpace(req.Subject)),
		req.Grade,
		strings.ToLower(strings.TrimSpace(req.Topic)),
		strings.ToLower(strings.TrimSpace(req.SpecificFocus)),
		req.Limit,
	)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
