package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"golang-fii-analyzer/internal/entity"
	"golang-fii-analyzer/pkg/logger"
	redisPkg "golang-fii-analyzer/pkg/redis"

	redis "github.com/redis/go-redis/v9"
)

const redisKeyAlertTrigger = "fii_alert_trigger:%s"

// TriggerCache damps repeated notifications for the same rule: a trigger seen
// again within the cache window is only re-sent when the observed value moved
// past the resend threshold.
type TriggerCache interface {
	ShouldNotify(ctx context.Context, trigger entity.AlertTrigger) bool
	MarkNotified(ctx context.Context, trigger entity.AlertTrigger)
}

// NewRedisTriggerCache creates a Redis-backed trigger cache.
func NewRedisTriggerCache(client *redisPkg.Client, cacheDuration time.Duration, resendThresholdPercent float64, log *logger.Logger) TriggerCache {
	return &redisTriggerCache{
		client:                 client,
		cacheDuration:          cacheDuration,
		resendThresholdPercent: resendThresholdPercent,
		logger:                 log,
	}
}

type redisTriggerCache struct {
	client                 *redisPkg.Client
	cacheDuration          time.Duration
	resendThresholdPercent float64
	logger                 *logger.Logger
}

// ShouldNotify reports whether this trigger should produce a notification. A
// cache read failure errs on the side of notifying.
func (c *redisTriggerCache) ShouldNotify(ctx context.Context, trigger entity.AlertTrigger) bool {
	key := fmt.Sprintf(redisKeyAlertTrigger, trigger.Alert.ID)
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Error("Failed to read trigger cache", logger.ErrorField(err),
				logger.StringField("alert_id", trigger.Alert.ID))
		}
		return true
	}

	lastValue, err := strconv.ParseFloat(raw, 64)
	if err != nil || lastValue == 0 {
		return true
	}

	percentChange := math.Abs(trigger.CurrentValue-lastValue) / math.Abs(lastValue) * 100
	return percentChange >= c.resendThresholdPercent
}

// MarkNotified records the notified value for the cache window.
func (c *redisTriggerCache) MarkNotified(ctx context.Context, trigger entity.AlertTrigger) {
	key := fmt.Sprintf(redisKeyAlertTrigger, trigger.Alert.ID)
	if err := c.client.Set(ctx, key, trigger.CurrentValue, c.cacheDuration).Err(); err != nil {
		c.logger.Error("Failed to write trigger cache", logger.ErrorField(err),
			logger.StringField("alert_id", trigger.Alert.ID))
	}
}

// NoopTriggerCache always notifies. Used when Redis is not configured.
type NoopTriggerCache struct{}

// ShouldNotify always reports true.
func (NoopTriggerCache) ShouldNotify(context.Context, entity.AlertTrigger) bool { return true }

// MarkNotified does nothing.
func (NoopTriggerCache) MarkNotified(context.Context, entity.AlertTrigger) {}
