package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Routing keys for tenant audit events.
const (
	RoutingKeyAutopilotToggled    = "autopilot.toggled"
	RoutingKeySubscriptionChanged = "billing.subscription.changed"
)

// AuditEvent is the payload published for a tenant state change.
type AuditEvent struct {
	Event      string         `json:"event"`
	Email      string         `json:"email,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// Emitter publishes audit events, swallowing failures. Audit delivery never
// gates the request that produced the change.
type Emitter struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewEmitter creates an emitter over a publisher. A nil publisher yields an
// emitter that drops everything.
func NewEmitter(publisher Publisher, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{publisher: publisher, logger: logger}
}

// Emit publishes an audit event. Marshal or publish failures are logged only.
func (e *Emitter) Emit(ctx context.Context, routingKey, email string, fields map[string]any) {
	if e == nil || e.publisher == nil {
		return
	}

	payload, err := json.Marshal(AuditEvent{
		Event:      routingKey,
		Email:      email,
		OccurredAt: time.Now().UTC(),
		Fields:     fields,
	})
	if err != nil {
		e.logger.Error("failed to marshal audit event", "routing_key", routingKey, "error", err)
		return
	}

	if err := e.publisher.Publish(ctx, routingKey, payload); err != nil {
		e.logger.Warn("audit event publish failed", "routing_key", routingKey, "error", err)
	}
}
