package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"advertisement-service/internal/infrastructure/metrics"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type EventType string

const (
	AdvertisementCreated EventType = "advertisement.created"
	AdvertisementUpdated EventType = "advertisement.updated"
	AdvertisementDeleted EventType = "advertisement.deleted"
)

type Event struct {
	ID              string    `json:"id"`
	Type            EventType `json:"type"`
	AdvertisementID int64     `json:"advertisement_id"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func NewEvent(eventType EventType, advertisementID int64) Event {
	return Event{
		ID:              uuid.NewString(),
		Type:            eventType,
		AdvertisementID: advertisementID,
		OccurredAt:      time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type publishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type RedisPublisher struct {
	client  publishClient
	channel string
	metrics *metrics.EventMetrics
}

func NewRedisPublisher(client *redis.Client, channel string, metrics *metrics.EventMetrics) Publisher {
	return newRedisPublisher(client, channel, metrics)
}

func newRedisPublisher(client publishClient, channel string, metrics *metrics.EventMetrics) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		metrics: metrics,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	status := "success"
	defer func() {
		p.metrics.Published.WithLabelValues(string(event.Type), status).Inc()
	}()

	payload, err := json.Marshal(event)
	if err != nil {
		status = "error"
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		status = "error"
		return fmt.Errorf("failed to publish %s to %s: %w", event.Type, p.channel, err)
	}
	return nil
}

// NopPublisher drops every event. Used when Redis is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
