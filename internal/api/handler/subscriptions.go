package handler

import (
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/deploywatch/deploywatch/internal/api/middleware"
	"github.com/deploywatch/deploywatch/internal/audit"
	"github.com/deploywatch/deploywatch/internal/domain"
	"github.com/deploywatch/deploywatch/internal/repository"
	"github.com/deploywatch/deploywatch/internal/webhook"
)

// SubscriptionHandler handles webhook subscription management
type SubscriptionHandler struct {
	repo        repository.SubscriptionRepositoryInterface
	auditLogger audit.Logger
	logger      *slog.Logger
}

func NewSubscriptionHandler(repo repository.SubscriptionRepositoryInterface, auditLogger audit.Logger, logger *slog.Logger) *SubscriptionHandler {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &SubscriptionHandler{
		repo:        repo,
		auditLogger: auditLogger,
		logger:      logger,
	}
}

func (h *SubscriptionHandler) logAudit(c *fiber.Ctx, event audit.Event) {
	event.IPAddress = c.IP()
	event.UserAgent = c.Get(fiber.HeaderUserAgent)
	_ = h.auditLogger.Log(c.Context(), event)
}

type CreateSubscriptionRequest struct {
	Name        string   `json:"name"`
	TargetURL   string   `json:"target_url"`
	EventTypes  []string `json:"event_types"`
	MaxAttempts *int     `json:"max_attempts,omitempty"`
}

type SubscriptionResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	TargetURL   string    `json:"target_url"`
	EventTypes  []string  `json:"event_types"`
	IsActive    bool      `json:"is_active"`
	MaxAttempts *int      `json:"max_attempts,omitempty"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}

func toSubscriptionResponse(s *webhook.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:          s.ID,
		Name:        s.Name,
		TargetURL:   s.TargetURL,
		EventTypes:  s.EventTypes,
		IsActive:    s.IsActive,
		MaxAttempts: s.MaxAttempts,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt.Format(time.RFC3339),
	}
}

// List GET /v1/subscriptions
func (h *SubscriptionHandler) List(c *fiber.Ctx) error {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		return err
	}

	subs, err := h.repo.ListByTenant(c.Context(), tenantID)
	if err != nil {
		return err
	}

	response := make([]SubscriptionResponse, 0, len(subs))
	for _, s := range subs {
		response = append(response, toSubscriptionResponse(s))
	}

	return c.JSON(fiber.Map{
		"subscriptions": response,
	})
}

// Create POST /v1/subscriptions. The signing secret is generated here and
// returned exactly once; only its value on the subscription row is ever
// used again.
func (h *SubscriptionHandler) Create(c *fiber.Ctx) error {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		return err
	}

	var req CreateSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	if err := validateSubscriptionRequest(&req); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	secret, err := domain.GenerateWebhookSecret()
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}

	sub := &webhook.Subscription{
		TenantID:    tenantID,
		Name:        req.Name,
		TargetURL:   req.TargetURL,
		Secret:      secret,
		EventTypes:  req.EventTypes,
		IsActive:    true,
		MaxAttempts: req.MaxAttempts,
	}

	if err := h.repo.Create(c.Context(), sub); err != nil {
		return err
	}

	h.logAudit(c, audit.Event{
		TenantID:       tenantID,
		EventType:      audit.EventSubscriptionCreated,
		SubscriptionID: sub.ID.String(),
		Success:        true,
		Metadata:       map[string]string{"name": sub.Name},
	})

	h.logger.Info("subscription created",
		"subscription_id", sub.ID,
		"tenant_id", tenantID,
		"name", sub.Name,
	)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"subscription": toSubscriptionResponse(sub),
		"secret":       secret,
	})
}

// Delete DELETE /v1/subscriptions/:id
func (h *SubscriptionHandler) Delete(c *fiber.Ctx) error {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrValidationFailed.WithError(errors.New("invalid subscription ID"))
	}

	if err := h.repo.Delete(c.Context(), tenantID, id); err != nil {
		return err
	}

	h.logAudit(c, audit.Event{
		TenantID:       tenantID,
		EventType:      audit.EventSubscriptionDeleted,
		SubscriptionID: id.String(),
		Success:        true,
	})

	h.logger.Info("subscription deleted",
		"subscription_id", id,
		"tenant_id", tenantID,
	)

	return c.Status(fiber.StatusNoContent).Send(nil)
}

func validateSubscriptionRequest(req *CreateSubscriptionRequest) error {
	if len(req.Name) < 3 || len(req.Name) > 255 {
		return errors.New("name must be between 3 and 255 characters")
	}

	u, err := url.Parse(req.TargetURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("target_url must be a valid http(s) URL")
	}

	if req.MaxAttempts != nil && (*req.MaxAttempts < 1 || *req.MaxAttempts > 20) {
		return errors.New("max_attempts must be between 1 and 20")
	}

	return nil
}
