package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/deploywatch/deploywatch/internal/domain"
	"github.com/deploywatch/deploywatch/internal/webhook"
)

// APIKeyRepositoryInterface defines operations for API key data access
type APIKeyRepositoryInterface interface {
	GetByHash(ctx context.Context, hash string) (*domain.APIKey, error)
	Create(ctx context.Context, key *domain.APIKey) error
	UpdateLastUsed(ctx context.Context, keyID uuid.UUID) error
	Revoke(ctx context.Context, tenantID, keyID uuid.UUID) error
}

// TenantRepositoryInterface defines operations for tenant data access
type TenantRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	GetByAPIKeyHash(ctx context.Context, hash string) (*domain.Tenant, error)
	Create(ctx context.Context, tenant *domain.Tenant) error
}

// SubscriptionRepositoryInterface defines operations for webhook
// subscription data access. The delivery core only reads; writes belong to
// the registration surface.
type SubscriptionRepositoryInterface interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*webhook.Subscription, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*webhook.Subscription, error)
	Create(ctx context.Context, sub *webhook.Subscription) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// DeliveryRepositoryInterface is the persisted delivery record store.
type DeliveryRepositoryInterface interface {
	Create(ctx context.Context, d *webhook.Delivery) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*webhook.Delivery, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*webhook.Delivery, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*webhook.Delivery, error)
	Update(ctx context.Context, d *webhook.Delivery, expectedVersion int) error
}
