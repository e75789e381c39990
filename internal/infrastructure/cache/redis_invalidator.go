package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultInvalidationChannel is where invalidated keys are announced so that
// other instances can drop their local copies
const DefaultInvalidationChannel = "printmarket:cache:invalidate"

// invalidationClient is the subset of the Redis API the invalidator needs
type invalidationClient interface {
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisCacheInvalidator deletes read-model cache entries after a payment
// state change and announces the keys on a Pub/Sub channel
type RedisCacheInvalidator struct {
	client  invalidationClient
	channel string
	logger  *zap.Logger
}

// NewRedisCacheInvalidator creates an invalidator on a shared client
func NewRedisCacheInvalidator(client invalidationClient, channel string, logger *zap.Logger) *RedisCacheInvalidator {
	if channel == "" {
		channel = DefaultInvalidationChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCacheInvalidator{client: client, channel: channel, logger: logger}
}

// Invalidate removes keys. A failed announcement is logged; a failed delete
// is returned to the caller.
func (i *RedisCacheInvalidator) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	removed, err := i.client.Del(ctx, keys...).Result()
	if err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	if err := i.client.Publish(ctx, i.channel, strings.Join(keys, ",")).Err(); err != nil {
		i.logger.Warn("failed to publish cache invalidation",
			zap.String("channel", i.channel),
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
	i.logger.Debug("cache keys invalidated",
		zap.Strings("keys", keys),
		zap.Int64("removed", removed),
	)
	return nil
}

// NoopCacheInvalidator is used when Redis is disabled
type NoopCacheInvalidator struct {
	logger *zap.Logger
}

// NewNoopCacheInvalidator creates an invalidator that only logs
func NewNoopCacheInvalidator(logger *zap.Logger) *NoopCacheInvalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoopCacheInvalidator{logger: logger}
}

// Invalidate logs the keys and does nothing else
func (n *NoopCacheInvalidator) Invalidate(_ context.Context, keys ...string) error {
	n.logger.Debug("cache disabled, skipping invalidation", zap.Strings("keys", keys))
	return nil
}
