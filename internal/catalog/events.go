package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// ChangeEvent is broadcast after a catalog mutation succeeds.
type ChangeEvent struct {
	Type       enums.CatalogEventType `json:"type"`
	ProductID  string                 `json:"product_id,omitempty"`
	Product    *Product               `json:"product,omitempty"`
	Count      int                    `json:"count,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// EventPublisher delivers change events to downstream consumers.
type EventPublisher interface {
	PublishChange(ctx context.Context, event ChangeEvent) error
}

type jsonPublisher interface {
	PublishJSON(ctx context.Context, topic string, attrs map[string]string, payload any) (string, error)
	CatalogTopic() string
}

// PubSubPublisher publishes change events as JSON messages on the catalog topic.
type PubSubPublisher struct {
	client jsonPublisher
}

func NewPubSubPublisher(client jsonPublisher) (*PubSubPublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client required")
	}
	if client.CatalogTopic() == "" {
		return nil, fmt.Errorf("catalog topic required")
	}
	return &PubSubPublisher{client: client}, nil
}

func (p *PubSubPublisher) PublishChange(ctx context.Context, event ChangeEvent) error {
	attrs := map[string]string{"event_type": event.Type.String()}
	if event.ProductID != "" {
		attrs["product_id"] = event.ProductID
	}
	if _, err := p.client.PublishJSON(ctx, p.client.CatalogTopic(), attrs, event); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}
