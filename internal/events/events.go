// Package events announces pipeline milestones to other services.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Event types
const (
	EmailClassified = "email.classified"
	DraftCreated    = "draft.created"
	DraftSent       = "draft.sent"
	DraftArchived   = "draft.archived"
	BatchCompleted  = "batch.completed"
)

// Event is one published notification
type Event struct {
	Type   string         `json:"type"`
	UserID uint           `json:"user_id"`
	Data   map[string]any `json:"data,omitempty"`
	At     time.Time      `json:"at"`
}

// Publisher delivers events. Delivery is best effort and never fails the caller.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher publishes events as JSON on a Redis channel
type RedisPublisher struct {
	rdb     redisPublisher
	channel string
}

// NewRedisPublisher creates a publisher on the given channel
func NewRedisPublisher(rdb redisPublisher, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// Publish sends the event, logging failures
func (p *RedisPublisher) Publish(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		logrus.WithError(err).WithField("type", e.Type).Warn("Failed to encode event")
		return
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		logrus.WithError(err).WithField("type", e.Type).Warn("Failed to publish event")
	}
}

// Noop discards events
type Noop struct{}

// Publish does nothing
func (Noop) Publish(context.Context, Event) {}
