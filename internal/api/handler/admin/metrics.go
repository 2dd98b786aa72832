package admin

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/deploywatch/deploywatch/internal/admin"
	"github.com/deploywatch/deploywatch/internal/domain"
)

// MetricsHandler serves the operator reporting endpoints
type MetricsHandler struct {
	service admin.ServiceInterface
	logger  *slog.Logger
}

func NewMetricsHandler(service admin.ServiceInterface, logger *slog.Logger) *MetricsHandler {
	return &MetricsHandler{
		service: service,
		logger:  logger,
	}
}

// parseMetricsParams extracts common query parameters for metrics endpoints
func parseMetricsParams(c *fiber.Ctx) admin.MetricsParams {
	params := admin.MetricsParams{
		Interval: c.Query("interval", "day"),
		Limit:    c.QueryInt("limit", 100),
		Offset:   c.QueryInt("offset", 0),
	}

	if start := c.Query("start_date"); start != "" {
		if t, err := time.Parse(time.RFC3339, start); err == nil {
			params.StartDate = t
		}
	}
	if end := c.Query("end_date"); end != "" {
		if t, err := time.Parse(time.RFC3339, end); err == nil {
			params.EndDate = t
		}
	}

	return params
}

// GetDeliveryMetrics GET /v1/admin/tenants/:id/metrics
func (h *MetricsHandler) GetDeliveryMetrics(c *fiber.Ctx) error {
	tenantID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrValidationFailed.WithError(errors.New("invalid tenant ID"))
	}

	params := parseMetricsParams(c)
	params.Normalize()

	metrics, err := h.service.GetDeliveryMetrics(c.Context(), tenantID, params)
	if err != nil {
		h.logger.Error("failed to get delivery metrics", "tenant_id", tenantID, "error", err)
		return domain.ErrInternal.WithError(err)
	}

	return c.JSON(admin.MetricsResponse{
		Data: metrics,
		Meta: admin.ResponseMeta{
			TenantID: tenantID.String(),
			Period: admin.Period{
				Start: params.StartDate.Format(time.RFC3339),
				End:   params.EndDate.Format(time.RFC3339),
			},
			GeneratedAt: time.Now().UTC(),
		},
	})
}

// GetQueueHealth GET /v1/admin/queue
func (h *MetricsHandler) GetQueueHealth(c *fiber.Ctx) error {
	health, err := h.service.GetQueueHealth(c.Context())
	if err != nil {
		h.logger.Error("failed to get queue health", "error", err)
		return domain.ErrInternal.WithError(err)
	}

	return c.JSON(health)
}

// ListTenants GET /v1/admin/tenants
func (h *MetricsHandler) ListTenants(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	tenants, err := h.service.ListTenants(c.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list tenants", "error", err)
		return domain.ErrInternal.WithError(err)
	}

	return c.JSON(fiber.Map{
		"tenants": tenants,
	})
}
