package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const reviewBadgePrefix = "freight:review_badge:v1"

// ReviewBadgeCache keeps the per-organization count of loads awaiting manual
// review. A nil client turns every call into a miss or a no-op.
type ReviewBadgeCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewReviewBadgeCache(client *redis.Client, ttl time.Duration) *ReviewBadgeCache {
	return &ReviewBadgeCache{redis: client, ttl: ttl}
}

func (c *ReviewBadgeCache) Get(ctx context.Context, organizationID uuid.UUID) (int64, bool, error) {
	if c == nil || c.redis == nil {
		return 0, false, nil
	}
	raw, err := c.redis.Get(ctx, c.key(organizationID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read review badge: %w", err)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse review badge %q: %w", raw, err)
	}
	return n, true, nil
}

func (c *ReviewBadgeCache) Set(ctx context.Context, organizationID uuid.UUID, count int64) error {
	if c == nil || c.redis == nil {
		return nil
	}
	if err := c.redis.Set(ctx, c.key(organizationID), count, c.ttl).Err(); err != nil {
		return fmt.Errorf("write review badge: %w", err)
	}
	return nil
}

func (c *ReviewBadgeCache) Invalidate(ctx context.Context, organizationID uuid.UUID) error {
	if c == nil || c.redis == nil {
		return nil
	}
	if err := c.redis.Del(ctx, c.key(organizationID)).Err(); err != nil {
		return fmt.Errorf("invalidate review badge: %w", err)
	}
	return nil
}

func (c *ReviewBadgeCache) key(organizationID uuid.UUID) string {
	return fmt.Sprintf("%s:{%s}", reviewBadgePrefix, organizationID.String())
}
