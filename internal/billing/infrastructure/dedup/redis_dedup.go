// Package dedup tracks processed webhook event ids so notification emails are
// sent at most once per event, despite the provider's at-least-once delivery.
package dedup

import (
	"context"
	"log/slog"
	"time"

	"github.com/cerberoai/cerbero/internal/billing/application"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cerbero:billing:event:"

// RedisDedup records event ids in Redis with a TTL. A Redis outage fails
// open: the event is treated as first delivery, trading a possible duplicate
// email for never silently dropping one.
type RedisDedup struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisDedup creates a dedup store. TTL defaults to 72h, comfortably past
// the provider's retry window.
func NewRedisDedup(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisDedup {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisDedup{client: client, ttl: ttl, logger: logger}
}

// FirstDelivery reports whether the event id has not been seen before,
// recording it atomically.
func (d *RedisDedup) FirstDelivery(ctx context.Context, eventID string) bool {
	first, err := d.client.SetNX(ctx, keyPrefix+eventID, 1, d.ttl).Result()
	if err != nil {
		d.logger.Warn("event dedup check failed, assuming first delivery",
			"event_id", eventID,
			"error", err,
		)
		return true
	}
	return first
}

// NoopDedup treats every delivery as the first. Used when Redis is not
// configured.
type NoopDedup struct{}

// FirstDelivery always reports true.
func (NoopDedup) FirstDelivery(context.Context, string) bool { return true }

var (
	_ application.EventDedup = (*RedisDedup)(nil)
	_ application.EventDedup = NoopDedup{}
)
