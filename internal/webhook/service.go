package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deploywatch/deploywatch/internal/domain"
)

// ServiceConfig carries the externally configured delivery knobs.
type ServiceConfig struct {
	// MaxAttempts is the global attempt budget; subscriptions may override
	// it with their own value.
	MaxAttempts int
	// BatchSize caps how many due deliveries one tick picks up.
	BatchSize int
	// Concurrency bounds in-flight attempts within a tick.
	Concurrency int
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxAttempts: 5,
		BatchSize:   50,
		Concurrency: 8,
	}
}

// Service is the single entry point to the delivery subsystem. The
// event-producing side enqueues through it, the scheduler drains due work
// through it, and operators cancel and flush through it.
type Service struct {
	deliveries    DeliveryStore
	subscriptions SubscriptionStore
	dispatcher    *Dispatcher
	logger        *slog.Logger
	cfg           ServiceConfig
}

func NewService(deliveries DeliveryStore, subscriptions SubscriptionStore, dispatcher *Dispatcher, logger *slog.Logger, cfg ServiceConfig) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultServiceConfig().MaxAttempts
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultServiceConfig().BatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultServiceConfig().Concurrency
	}

	return &Service{
		deliveries:    deliveries,
		subscriptions: subscriptions,
		dispatcher:    dispatcher,
		logger:        logger,
		cfg:           cfg,
	}
}

// Enqueue creates a pending delivery and makes one immediate attempt.
//
// The idempotency key becomes the delivery ID: enqueuing the same key twice
// returns the already stored record without a second outbound call, so
// producers may safely retry event publication.
func (s *Service) Enqueue(ctx context.Context, tenantID, subscriptionID uuid.UUID, eventType string, payload []byte, idempotencyKey uuid.UUID) (*Delivery, error) {
	sub, err := s.subscriptions.GetByID(ctx, tenantID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !sub.IsActive {
		return nil, domain.ErrSubscriptionInactive
	}
	if !sub.AcceptsEvent(eventType) {
		return nil, domain.ErrEventTypeNotAccepted
	}

	maxAttempts := s.cfg.MaxAttempts
	if sub.MaxAttempts != nil && *sub.MaxAttempts > 0 {
		maxAttempts = *sub.MaxAttempts
	}

	now := time.Now().UTC()
	delivery := &Delivery{
		ID:             idempotencyKey,
		TenantID:       tenantID,
		SubscriptionID: subscriptionID,
		EventType:      eventType,
		Payload:        payload,
		Status:         StatusPending,
		MaxAttempts:    maxAttempts,
		NextAttemptAt:  &now,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.deliveries.Create(ctx, delivery)
	if errors.Is(err, domain.ErrDeliveryExists) {
		// Duplicate enqueue is success, not an error.
		existing, getErr := s.deliveries.GetByID(ctx, tenantID, idempotencyKey)
		if getErr != nil {
			return nil, getErr
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create delivery: %w", err)
	}

	// Best-effort immediate attempt. A failure here is already recorded on
	// the row and picked up by the scheduler; it never fails the enqueue.
	// Detached from the request context: a caller hanging up mid-attempt
	// must not strand the record in in_progress.
	if err := s.dispatcher.Attempt(context.WithoutCancel(ctx), delivery, sub); err != nil && !errors.Is(err, domain.ErrDeliveryConflict) {
		s.logger.Warn("immediate delivery attempt errored",
			"delivery_id", delivery.ID,
			"tenant_id", tenantID,
			"error", err,
		)
	}

	return delivery, nil
}

// RetryPending processes one batch of due deliveries: one scheduler tick,
// also invoked directly for an operator-triggered flush. Returns how many
// records were picked up.
func (s *Service) RetryPending(ctx context.Context) (int, error) {
	due, err := s.deliveries.ListDue(ctx, time.Now().UTC(), s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list due deliveries: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	sem := make(chan struct{}, s.cfg.Concurrency)
	var wg sync.WaitGroup

	for _, delivery := range due {
		sem <- struct{}{}
		wg.Add(1)

		go func(del *Delivery) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				// One poisoned record must not take down the batch.
				if r := recover(); r != nil {
					s.logger.Error("panic while processing delivery",
						"delivery_id", del.ID,
						"tenant_id", del.TenantID,
						"panic", r,
					)
				}
			}()

			s.processDue(ctx, del)
		}(delivery)
	}

	wg.Wait()
	return len(due), nil
}

// processDue re-attempts one due delivery. Subscription gone or deactivated
// means the delivery is cancelled without a network call.
func (s *Service) processDue(ctx context.Context, del *Delivery) {
	sub, err := s.subscriptions.GetByID(ctx, del.TenantID, del.SubscriptionID)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		s.cancelOrphaned(ctx, del, "subscription deleted")
		return
	}
	if err != nil {
		s.logger.Error("resolve subscription",
			"delivery_id", del.ID,
			"subscription_id", del.SubscriptionID,
			"error", err,
		)
		return
	}
	if !sub.IsActive {
		s.cancelOrphaned(ctx, del, "subscription deactivated")
		return
	}

	err = s.dispatcher.Attempt(ctx, del, sub)
	switch {
	case errors.Is(err, domain.ErrDeliveryConflict):
		s.logger.Debug("delivery already claimed by another worker", "delivery_id", del.ID)
	case err != nil:
		s.logger.Error("delivery attempt errored",
			"delivery_id", del.ID,
			"tenant_id", del.TenantID,
			"error", err,
		)
	}
}

// cancelOrphaned moves a delivery whose subscription vanished to cancelled.
// A conflict means someone else already transitioned it; nothing to do.
func (s *Service) cancelOrphaned(ctx context.Context, del *Delivery, reason string) {
	del.Status = StatusCancelled
	del.NextAttemptAt = nil
	del.LastError = reason

	err := s.deliveries.Update(ctx, del, del.Version)
	if err != nil && !errors.Is(err, domain.ErrDeliveryConflict) {
		s.logger.Error("cancel orphaned delivery",
			"delivery_id", del.ID,
			"error", err,
		)
		return
	}

	s.logger.Info("delivery cancelled",
		"delivery_id", del.ID,
		"tenant_id", del.TenantID,
		"reason", reason,
	)
}

// Cancel is the administrative cancellation: pending or in-progress
// deliveries move to cancelled and leave the retry schedule. Cancelling an
// already cancelled delivery is a no-op; success and failed are final.
func (s *Service) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*Delivery, error) {
	delivery, err := s.deliveries.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if delivery.Status == StatusCancelled {
		return delivery, nil
	}
	if delivery.Status.IsTerminal() {
		return nil, domain.ErrDeliveryNotCancellable
	}

	delivery.Status = StatusCancelled
	delivery.NextAttemptAt = nil
	delivery.LastError = "cancelled by operator"

	if err := s.deliveries.Update(ctx, delivery, delivery.Version); err != nil {
		return nil, err
	}

	s.logger.Info("delivery cancelled",
		"delivery_id", delivery.ID,
		"tenant_id", tenantID,
		"reason", "operator request",
	)

	return delivery, nil
}

// Get returns one delivery for audit queries.
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Delivery, error) {
	return s.deliveries.GetByID(ctx, tenantID, id)
}

// List returns a tenant's recent deliveries, newest first.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]*Delivery, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.deliveries.ListByTenant(ctx, tenantID, limit)
}
