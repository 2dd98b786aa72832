package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of auditable event
type EventType string

const (
	EventDeliveryEnqueued    EventType = "DELIVERY_ENQUEUED"
	EventDeliveryReplayed    EventType = "DELIVERY_REPLAYED"
	EventDeliveryCancelled   EventType = "DELIVERY_CANCELLED"
	EventSubscriptionCreated EventType = "SUBSCRIPTION_CREATED"
	EventSubscriptionDeleted EventType = "SUBSCRIPTION_DELETED"
)

// Event represents an auditable change to a tenant's delivery state
type Event struct {
	ID             uuid.UUID         `json:"id"`
	Timestamp      time.Time         `json:"timestamp"`
	TenantID       uuid.UUID         `json:"tenant_id"`
	EventType      EventType         `json:"event_type"`
	DeliveryID     string            `json:"delivery_id,omitempty"`
	SubscriptionID string            `json:"subscription_id,omitempty"`
	WebhookEvent   string            `json:"webhook_event,omitempty"`
	Success        bool              `json:"success"`
	Error          string            `json:"error,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	IPAddress      string            `json:"ip_address,omitempty"`
	UserAgent      string            `json:"user_agent,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a new audit logger using slog
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(event.EventType)),
		)
		return err
	}

	l.logger.InfoContext(ctx, "audit_event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.String("tenant_id", event.TenantID.String()),
		slog.String("delivery_id", event.DeliveryID),
		slog.Bool("success", event.Success),
		slog.String("event_data", string(eventJSON)),
	)

	return nil
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

// Log does nothing and returns nil
func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
