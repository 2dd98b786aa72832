package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/deploywatch/deploywatch/internal/api/middleware"
	"github.com/deploywatch/deploywatch/internal/audit"
	"github.com/deploywatch/deploywatch/internal/domain"
	"github.com/deploywatch/deploywatch/internal/webhook"
)

// DeliveryService interface for the delivery subsystem
type DeliveryService interface {
	Enqueue(ctx context.Context, tenantID, subscriptionID uuid.UUID, eventType string, payload []byte, idempotencyKey uuid.UUID) (*webhook.Delivery, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*webhook.Delivery, error)
	List(ctx context.Context, tenantID uuid.UUID, limit int) ([]*webhook.Delivery, error)
	Cancel(ctx context.Context, tenantID, id uuid.UUID) (*webhook.Delivery, error)
}

// DeliveryHandler handles delivery-related requests
type DeliveryHandler struct {
	service     DeliveryService
	auditLogger audit.Logger
	logger      *slog.Logger
}

func NewDeliveryHandler(service DeliveryService, auditLogger audit.Logger, logger *slog.Logger) *DeliveryHandler {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &DeliveryHandler{
		service:     service,
		auditLogger: auditLogger,
		logger:      logger,
	}
}

func (h *DeliveryHandler) logAudit(c *fiber.Ctx, event audit.Event) {
	event.IPAddress = c.IP()
	event.UserAgent = c.Get(fiber.HeaderUserAgent)
	_ = h.auditLogger.Log(c.Context(), event)
}

// EnqueueRequest is the body for POST /v1/deliveries. The idempotency key
// doubles as the delivery ID: resubmitting the same key returns the
// original record.
type EnqueueRequest struct {
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	IdempotencyKey uuid.UUID       `json:"idempotency_key"`
}

// DeliveryResponse is the wire form of a delivery record
type DeliveryResponse struct {
	ID             uuid.UUID       `json:"id"`
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Status         string          `json:"status"`
	AttemptCount   int             `json:"attempt_count"`
	MaxAttempts    int             `json:"max_attempts"`
	NextAttemptAt  *string         `json:"next_attempt_at,omitempty"`
	LastAttemptAt  *string         `json:"last_attempt_at,omitempty"`
	LastError      string          `json:"last_error,omitempty"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at"`
}

func toDeliveryResponse(d *webhook.Delivery, includePayload bool) DeliveryResponse {
	resp := DeliveryResponse{
		ID:             d.ID,
		SubscriptionID: d.SubscriptionID,
		EventType:      d.EventType,
		Status:         string(d.Status),
		AttemptCount:   d.AttemptCount,
		MaxAttempts:    d.MaxAttempts,
		LastError:      d.LastError,
		CreatedAt:      d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      d.UpdatedAt.Format(time.RFC3339),
	}
	if includePayload {
		resp.Payload = d.Payload
	}
	if d.NextAttemptAt != nil {
		s := d.NextAttemptAt.Format(time.RFC3339)
		resp.NextAttemptAt = &s
	}
	if d.LastAttemptAt != nil {
		s := d.LastAttemptAt.Format(time.RFC3339)
		resp.LastAttemptAt = &s
	}
	return resp
}

// Enqueue POST /v1/deliveries - enqueue a webhook delivery
func (h *DeliveryHandler) Enqueue(c *fiber.Ctx) error {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		return err
	}

	var req EnqueueRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	if req.SubscriptionID == uuid.Nil {
		return domain.ErrValidationFailed.WithError(errors.New("subscription_id is required"))
	}
	if req.EventType == "" {
		return domain.ErrValidationFailed.WithError(errors.New("event_type is required"))
	}
	if req.IdempotencyKey == uuid.Nil {
		return domain.ErrValidationFailed.WithError(errors.New("idempotency_key is required"))
	}
	if len(req.Payload) == 0 {
		return domain.ErrValidationFailed.WithError(errors.New("payload is required"))
	}

	start := time.Now().UTC()
	delivery, err := h.service.Enqueue(c.Context(), tenantID, req.SubscriptionID, req.EventType, req.Payload, req.IdempotencyKey)
	if err != nil {
		return err
	}

	eventType := audit.EventDeliveryEnqueued
	if delivery.CreatedAt.Before(start) {
		// An existing record came back for this idempotency key.
		eventType = audit.EventDeliveryReplayed
	}
	h.logAudit(c, audit.Event{
		TenantID:       tenantID,
		EventType:      eventType,
		DeliveryID:     delivery.ID.String(),
		SubscriptionID: req.SubscriptionID.String(),
		WebhookEvent:   req.EventType,
		Success:        true,
	})

	h.logger.Info("delivery enqueued",
		"delivery_id", delivery.ID,
		"tenant_id", tenantID,
		"event_type", req.EventType,
	)

	return c.Status(fiber.StatusCreated).JSON(toDeliveryResponse(delivery, true))
}

// Get GET /v1/deliveries/:id - fetch one delivery record
func (h *DeliveryHandler) Get(c *fiber.Ctx) error {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrValidationFailed.WithError(errors.New("invalid delivery ID"))
	}

	delivery, err := h.service.Get(c.Context(), tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(toDeliveryResponse(delivery, true))
}

// List GET /v1/deliveries - list recent deliveries for the tenant
func (h *DeliveryHandler) List(c *fiber.Ctx) error {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return domain.ErrValidationFailed.WithError(errors.New("limit must be an integer"))
		}
	}

	deliveries, err := h.service.List(c.Context(), tenantID, limit)
	if err != nil {
		return err
	}

	response := make([]DeliveryResponse, 0, len(deliveries))
	for _, d := range deliveries {
		response = append(response, toDeliveryResponse(d, false))
	}

	return c.JSON(fiber.Map{
		"deliveries": response,
	})
}

// Cancel POST /v1/deliveries/:id/cancel - cancel a pending delivery
func (h *DeliveryHandler) Cancel(c *fiber.Ctx) error {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrValidationFailed.WithError(errors.New("invalid delivery ID"))
	}

	delivery, err := h.service.Cancel(c.Context(), tenantID, id)
	if err != nil {
		h.logAudit(c, audit.Event{
			TenantID:   tenantID,
			EventType:  audit.EventDeliveryCancelled,
			DeliveryID: id.String(),
			Success:    false,
			Error:      err.Error(),
		})
		return err
	}

	h.logAudit(c, audit.Event{
		TenantID:       tenantID,
		EventType:      audit.EventDeliveryCancelled,
		DeliveryID:     delivery.ID.String(),
		SubscriptionID: delivery.SubscriptionID.String(),
		WebhookEvent:   delivery.EventType,
		Success:        true,
	})

	h.logger.Info("delivery cancelled",
		"delivery_id", delivery.ID,
		"tenant_id", tenantID,
	)

	return c.JSON(toDeliveryResponse(delivery, false))
}
