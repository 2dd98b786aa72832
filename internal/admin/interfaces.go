package admin

import (
	"context"

	"github.com/google/uuid"
)

// ServiceInterface defines the interface for operator reporting
type ServiceInterface interface {
	GetDeliveryMetrics(ctx context.Context, tenantID uuid.UUID, params MetricsParams) (*DeliveryMetrics, error)
	GetQueueHealth(ctx context.Context) (*QueueHealth, error)
	ListTenants(ctx context.Context, limit, offset int) ([]TenantOverview, error)
}
