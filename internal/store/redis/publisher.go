package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
)

// Envelope is the message published for each event.
type Envelope struct {
	ID        string       `json:"id"`
	Host      string       `json:"host,omitempty"`
	EmittedAt time.Time    `json:"emitted_at"`
	Event     domain.Event `json:"event"`
}

// Publisher sends monitor events to a Redis pub/sub channel.
type Publisher struct {
	client  *redis.Client
	store   *Store
	channel string
	host    string
	now     func() time.Time
}

// NewPublisher creates a publisher. store may be nil; when set, it receives
// the per-type event counters.
func NewPublisher(client *redis.Client, store *Store, channel, host string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{
		client:  client,
		store:   store,
		channel: channel,
		host:    host,
		now:     time.Now,
	}
}

// Channel returns the channel events are published on
func (p *Publisher) Channel() string { return p.channel }

// NewEnvelope wraps ev with a fresh id.
func (p *Publisher) NewEnvelope(ev domain.Event) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Host:      p.host,
		EmittedAt: p.now().UTC(),
		Event:     ev,
	}
}

func (p *Publisher) Publish(ctx context.Context, ev domain.Event) error {
	data, err := json.Marshal(p.NewEnvelope(ev))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if p.store != nil {
		return p.store.IncrementEventCount(ctx, ev.Type)
	}
	return nil
}
