package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/deploywatch/deploywatch/internal/domain"
)

type TenantRepository struct {
	pool PgxPool
}

func NewTenantRepository(pool PgxPool) *TenantRepository {
	return &TenantRepository{pool: pool}
}

func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	query := `
		SELECT id, name, slug, is_active, plan, settings, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`

	var tenant domain.Tenant
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Slug,
		&tenant.IsActive,
		&tenant.Plan,
		&tenant.Settings,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant by id: %w", err)
	}

	return &tenant, nil
}

func (r *TenantRepository) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*domain.Tenant, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.is_active, t.plan, t.settings, t.created_at, t.updated_at
		FROM tenants t
		INNER JOIN api_keys ak ON ak.tenant_id = t.id
		WHERE ak.key_hash = $1 AND ak.is_active = true AND t.is_active = true
	`

	var tenant domain.Tenant
	err := r.pool.QueryRow(ctx, query, apiKeyHash).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Slug,
		&tenant.IsActive,
		&tenant.Plan,
		&tenant.Settings,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant by api key: %w", err)
	}

	return &tenant, nil
}

func (r *TenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	if err := tenant.Validate(); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}

	query := `
		INSERT INTO tenants (id, name, slug, is_active, plan, settings)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		tenant.ID, tenant.Name, tenant.Slug, tenant.IsActive, tenant.Plan, tenant.Settings,
	).Scan(&tenant.CreatedAt, &tenant.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}

	return nil
}
