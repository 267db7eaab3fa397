// Package events publishes subscription domain events.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/mealplan/pkg/telemetry/correlation"
)

const (
	SubscriptionCreated            = "subscription.created"
	SubscriptionActivated          = "subscription.activated"
	SubscriptionScheduleUpdated    = "subscription.schedule_updated"
	SubscriptionEntryStatusUpdated = "subscription.entry_status_updated"
	SubscriptionStatusUpdated      = "subscription.status_updated"
	SubscriptionExpired            = "subscription.expired"
)

// Envelope is the wire format of every event.
type Envelope struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	OccurredAt    time.Time         `json:"occurred_at"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Data          json.RawMessage   `json:"data"`
}

// Publisher delivers events. Callers treat failures as best effort.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

func NewEnvelope(ctx context.Context, eventType string, data any, now time.Time) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	meta := correlation.Metadata(ctx)
	cid := meta["correlation_id"]
	delete(meta, "correlation_id")
	if len(meta) == 0 {
		meta = nil
	}
	return Envelope{
		ID:            ulid.Make().String(),
		Type:          eventType,
		OccurredAt:    now.UTC(),
		CorrelationID: cid,
		Metadata:      meta,
		Data:          raw,
	}, nil
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
