package webhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus is the lifecycle state of a delivery record.
type DeliveryStatus string

const (
	StatusPending    DeliveryStatus = "pending"
	StatusInProgress DeliveryStatus = "in_progress"
	StatusSuccess    DeliveryStatus = "success"
	StatusFailed     DeliveryStatus = "failed"
	StatusCancelled  DeliveryStatus = "cancelled"
)

// IsTerminal reports whether the status permits no further transitions.
// Terminal records are never reselected by the scheduler.
func (s DeliveryStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

// Subscription is a tenant's registration of an endpoint plus the event
// types it wants. Owned by the management surface; the delivery core only
// reads it.
type Subscription struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Name        string    `json:"name"`
	TargetURL   string    `json:"target_url"`
	Secret      string    `json:"-"`
	EventTypes  []string  `json:"event_types"`
	IsActive    bool      `json:"is_active"`
	MaxAttempts *int      `json:"max_attempts,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AcceptsEvent reports whether the subscription wants eventType.
// An empty list means all events.
func (s *Subscription) AcceptsEvent(eventType string) bool {
	if len(s.EventTypes) == 0 {
		return true
	}
	for _, et := range s.EventTypes {
		if et == eventType {
			return true
		}
	}
	return false
}

// Delivery is one notification owed to one subscription for one event.
// The ID doubles as the caller-supplied idempotency key. Everything except
// the mutable delivery-state fields is immutable after creation.
type Delivery struct {
	ID             uuid.UUID      `json:"id"`
	TenantID       uuid.UUID      `json:"tenant_id"`
	SubscriptionID uuid.UUID      `json:"subscription_id"`
	EventType      string         `json:"event_type"`
	Payload        []byte         `json:"payload"`
	Status         DeliveryStatus `json:"status"`
	AttemptCount   int            `json:"attempt_count"`
	MaxAttempts    int            `json:"max_attempts"`
	NextAttemptAt  *time.Time     `json:"next_attempt_at,omitempty"`
	LastAttemptAt  *time.Time     `json:"last_attempt_at,omitempty"`
	LastError      string         `json:"last_error,omitempty"`
	Version        int            `json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// EventPayload is the envelope producers marshal into Delivery.Payload.
// The delivery core treats the payload as opaque bytes; this type exists
// for the enqueue surface and for consumers decoding what we send.
type EventPayload struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// DeliveryStore is the persistence contract of the delivery record store.
// Update is conditional on the stored version and must return
// domain.ErrDeliveryConflict when the version no longer matches; that
// compare-and-swap is the only concurrency-control mechanism in the
// subsystem. On success the implementation bumps d.Version to the newly
// stored value so the caller can chain further conditional updates.
type DeliveryStore interface {
	Create(ctx context.Context, d *Delivery) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Delivery, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Delivery, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*Delivery, error)
	Update(ctx context.Context, d *Delivery, expectedVersion int) error
}

// SubscriptionStore resolves subscriptions for dispatch.
type SubscriptionStore interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Subscription, error)
}
