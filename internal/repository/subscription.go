package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/deploywatch/deploywatch/internal/domain"
	"github.com/deploywatch/deploywatch/internal/webhook"
)

type SubscriptionRepository struct {
	pool PgxPool
}

func NewSubscriptionRepository(pool PgxPool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

const subscriptionColumns = `id, tenant_id, name, target_url, secret, event_types, is_active, max_attempts, created_at, updated_at`

func (r *SubscriptionRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*webhook.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM webhook_subscriptions
		WHERE tenant_id = $1 AND id = $2
	`

	sub, err := r.scanSubscription(r.pool.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	return sub, nil
}

func (r *SubscriptionRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*webhook.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM webhook_subscriptions
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*webhook.Subscription
	for rows.Next() {
		sub, err := r.scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *webhook.Subscription) error {
	eventTypesJSON, err := json.Marshal(sub.EventTypes)
	if err != nil {
		return fmt.Errorf("marshal event types: %w", err)
	}

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}

	query := `
		INSERT INTO webhook_subscriptions (id, tenant_id, name, target_url, secret, event_types, is_active, max_attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err = r.pool.QueryRow(ctx, query,
		sub.ID, sub.TenantID, sub.Name, sub.TargetURL,
		sub.Secret, eventTypesJSON, sub.IsActive, sub.MaxAttempts,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}

	return nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM webhook_subscriptions WHERE tenant_id = $1 AND id = $2`

	result, err := r.pool.Exec(ctx, query, tenantID, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrSubscriptionNotFound
	}

	return nil
}

// scanSubscription reads one row; event_types is stored as JSONB.
func (r *SubscriptionRepository) scanSubscription(row pgx.Row) (*webhook.Subscription, error) {
	var sub webhook.Subscription
	var eventTypesJSON []byte

	err := row.Scan(
		&sub.ID, &sub.TenantID, &sub.Name, &sub.TargetURL, &sub.Secret,
		&eventTypesJSON, &sub.IsActive, &sub.MaxAttempts,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(eventTypesJSON, &sub.EventTypes); err != nil {
		return nil, fmt.Errorf("unmarshal event types: %w", err)
	}

	return &sub, nil
}
