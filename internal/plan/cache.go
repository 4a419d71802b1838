package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fitcore/internal/logger"
)

// Cache is a short-TTL read-through cache for plan reference data. Plans are
// near-static; entitlement checks read them on every request. Stale reads are
// acceptable within the TTL, and plan edits must call Invalidate.
type Cache struct {
	redis *redis.Client
	repo  Repository
	ttl   time.Duration
}

func NewCache(rdb *redis.Client, repo Repository, ttl time.Duration) *Cache {
	return &Cache{redis: rdb, repo: repo, ttl: ttl}
}

func cacheKey(id int) string {
	return fmt.Sprintf("plan:%d", id)
}

func (c *Cache) Get(ctx context.Context, id int) (*Plan, error) {
	if c.redis != nil {
		data, err := c.redis.Get(ctx, cacheKey(id)).Bytes()
		if err == nil {
			var p Plan
			if err := json.Unmarshal(data, &p); err == nil {
				return &p, nil
			}
			// corrupt entry, fall through to the store
			logger.Debug("plan cache: dropping unreadable entry", "plan_id", id)
			c.redis.Del(ctx, cacheKey(id))
		}
	}

	p, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.redis != nil {
		if data, err := json.Marshal(p); err == nil {
			if err := c.redis.Set(ctx, cacheKey(id), data, c.ttl).Err(); err != nil {
				logger.Debug("plan cache: set failed", "plan_id", id, "error", err)
			}
		}
	}
	return p, nil
}

func (c *Cache) Invalidate(ctx context.Context, id int) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, cacheKey(id)).Err(); err != nil {
		logger.Error("plan cache: invalidate failed", "plan_id", id, "error", err)
	}
}
