package admin

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/deploywatch/deploywatch/internal/domain"
)

// RetryFlusher drains due deliveries on demand
type RetryFlusher interface {
	RetryPending(ctx context.Context) (int, error)
}

// RetriesHandler exposes the manual flush used during incident response,
// when an operator wants due work drained now instead of at the next tick.
type RetriesHandler struct {
	service RetryFlusher
	logger  *slog.Logger
}

func NewRetriesHandler(service RetryFlusher, logger *slog.Logger) *RetriesHandler {
	return &RetriesHandler{
		service: service,
		logger:  logger,
	}
}

// Flush POST /v1/admin/retries/flush
func (h *RetriesHandler) Flush(c *fiber.Ctx) error {
	// Detached from the request context so a closed connection does not
	// abandon attempts mid-flight.
	processed, err := h.service.RetryPending(context.WithoutCancel(c.Context()))
	if err != nil {
		h.logger.Error("manual retry flush failed", "error", err)
		return domain.ErrInternal.WithError(err)
	}

	h.logger.Info("manual retry flush", "processed", processed)

	return c.JSON(fiber.Map{
		"processed": processed,
	})
}
