// Package events publishes change notifications for resource and file
// mutations. Publishing is best-effort: a broker outage never fails the
// request that triggered the event, and a nil Bus is a no-op.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/life-master/apiserver/config"
	"github.com/life-master/apiserver/types"
)

// Event is a single change notification.
type Event struct {
	// Type names the change, e.g. "category.created" or "file.deleted".
	Type string `json:"type"`

	// OwnerID is the user whose data changed.
	OwnerID int64 `json:"ownerId"`

	// EntityType is the resource kind involved.
	EntityType types.Kind `json:"entityType"`

	// EntityID is the id of the changed row.
	EntityID int64 `json:"entityId"`

	// At is the time the event was emitted.
	At time.Time `json:"at"`
}

// Backend is a broker-agnostic publisher.
type Backend interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Bus serializes events and hands them to the configured backend.
type Bus struct {
	backend Backend
	topic   string
}

// New selects and constructs the backend named in config. An empty backend
// name yields a nil Bus, which publishes nothing.
func New(ctx context.Context, cfg config.EventsConfig) (*Bus, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := NewRabbitMQClient(cfg)
		if err != nil {
			return nil, err
		}
		return NewBus(backend, cfg.Topic), nil
	case "pubsub":
		backend, err := NewPubSubClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewBus(backend, cfg.Topic), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// NewBus constructs a Bus publishing to the given topic.
func NewBus(backend Backend, topic string) *Bus {
	return &Bus{backend: backend, topic: topic}
}

// Publish emits one event. Safe to call on a nil Bus.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	if b == nil || b.backend == nil {
		return nil
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = b.backend.Publish(ctx, b.topic, data, map[string]string{"type": event.Type})
	return err
}

// Close closes the underlying backend. Safe to call on a nil Bus.
func (b *Bus) Close() error {
	if b == nil || b.backend == nil {
		return nil
	}
	return b.backend.Close()
}
