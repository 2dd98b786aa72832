package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/deploywatch/deploywatch/internal/domain"
	"github.com/deploywatch/deploywatch/internal/webhook"
)

// DeliveryRepository is the delivery record store. All state transitions go
// through the version-conditional Update; there is no unconditional write
// path for delivery state.
type DeliveryRepository struct {
	pool PgxPool
}

func NewDeliveryRepository(pool PgxPool) *DeliveryRepository {
	return &DeliveryRepository{pool: pool}
}

const deliveryColumns = `id, tenant_id, subscription_id, event_type, payload, status, attempt_count, max_attempts, next_attempt_at, last_attempt_at, last_error, version, created_at, updated_at`

// Create persists a new record. The ID is the caller-supplied idempotency
// key; a duplicate returns domain.ErrDeliveryExists so the facade can treat
// repeat enqueues as success.
func (r *DeliveryRepository) Create(ctx context.Context, d *webhook.Delivery) error {
	query := `
		INSERT INTO webhook_deliveries (id, tenant_id, subscription_id, event_type, payload, status, attempt_count, max_attempts, next_attempt_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		d.ID, d.TenantID, d.SubscriptionID, d.EventType, d.Payload,
		string(d.Status), d.AttemptCount, d.MaxAttempts, d.NextAttemptAt, d.Version,
	).Scan(&d.CreatedAt, &d.UpdatedAt)

	if isUniqueViolation(err) {
		return domain.ErrDeliveryExists
	}
	if err != nil {
		return fmt.Errorf("create delivery: %w", err)
	}

	return nil
}

func (r *DeliveryRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*webhook.Delivery, error) {
	query := `
		SELECT ` + deliveryColumns + `
		FROM webhook_deliveries
		WHERE tenant_id = $1 AND id = $2
	`

	d, err := r.scanDelivery(r.pool.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDeliveryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get delivery: %w", err)
	}

	return d, nil
}

// ListDue selects pending records whose next attempt is due, oldest first.
// It crosses tenant boundaries: the scheduler is one global loop and each
// row carries its own tenant_id for downstream routing.
func (r *DeliveryRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*webhook.Delivery, error) {
	query := `
		SELECT ` + deliveryColumns + `
		FROM webhook_deliveries
		WHERE status = 'pending' AND next_attempt_at <= $1
		ORDER BY next_attempt_at ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due deliveries: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *DeliveryRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*webhook.Delivery, error) {
	query := `
		SELECT ` + deliveryColumns + `
		FROM webhook_deliveries
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// Update writes the mutable delivery-state fields, conditional on the
// stored version. Zero rows affected means another worker got there first:
// domain.ErrDeliveryConflict, and the caller abandons its attempt. On
// success d.Version is advanced to the stored value.
func (r *DeliveryRepository) Update(ctx context.Context, d *webhook.Delivery, expectedVersion int) error {
	query := `
		UPDATE webhook_deliveries
		SET status = $1,
		    attempt_count = $2,
		    next_attempt_at = $3,
		    last_attempt_at = $4,
		    last_error = $5,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $6 AND version = $7
	`

	result, err := r.pool.Exec(ctx, query,
		string(d.Status), d.AttemptCount, d.NextAttemptAt, d.LastAttemptAt, d.LastError,
		d.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update delivery: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrDeliveryConflict
	}

	d.Version = expectedVersion + 1
	return nil
}

func (r *DeliveryRepository) collect(rows pgx.Rows) ([]*webhook.Delivery, error) {
	var deliveries []*webhook.Delivery
	for rows.Next() {
		d, err := r.scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

func (r *DeliveryRepository) scanDelivery(row pgx.Row) (*webhook.Delivery, error) {
	var d webhook.Delivery
	var status string
	var lastError *string

	err := row.Scan(
		&d.ID, &d.TenantID, &d.SubscriptionID, &d.EventType, &d.Payload,
		&status, &d.AttemptCount, &d.MaxAttempts,
		&d.NextAttemptAt, &d.LastAttemptAt, &lastError,
		&d.Version, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Status = webhook.DeliveryStatus(status)
	if lastError != nil {
		d.LastError = *lastError
	}

	return &d, nil
}
