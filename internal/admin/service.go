package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/deploywatch/deploywatch/internal/repository"
)

// Service handles operator-facing reporting over the delivery tables.
type Service struct {
	db     repository.PgxPool
	logger *slog.Logger
}

// NewService creates a new admin service
func NewService(db repository.PgxPool, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
	}
}

// GetDeliveryMetrics retrieves delivery statistics for one tenant
func (s *Service) GetDeliveryMetrics(ctx context.Context, tenantID uuid.UUID, params MetricsParams) (*DeliveryMetrics, error) {
	params.Normalize()

	var total int64
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM webhook_deliveries
		WHERE tenant_id = $1
	`, tenantID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: failed to count deliveries: %w", tenantID, err)
	}

	byStatus, err := s.countBy(ctx, tenantID, "status")
	if err != nil {
		return nil, err
	}

	byEventType, err := s.countBy(ctx, tenantID, "event_type")
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT
			date_trunc($1, created_at) as period,
			COUNT(*) as total,
			COUNT(*) FILTER (WHERE status = 'success') as succeeded,
			COUNT(*) FILTER (WHERE status = 'failed') as failed,
			COUNT(*) FILTER (WHERE status = 'cancelled') as cancelled
		FROM webhook_deliveries
		WHERE tenant_id = $2
		  AND created_at BETWEEN $3 AND $4
		GROUP BY period
		ORDER BY period ASC
		LIMIT $5 OFFSET $6
	`, params.Interval, tenantID, params.StartDate, params.EndDate, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: failed to query delivery timeline: %w", tenantID, err)
	}
	defer rows.Close()

	timeline := make([]DeliveryTimeline, 0)
	for rows.Next() {
		var entry DeliveryTimeline
		var period interface{}
		err := rows.Scan(&period, &entry.Total, &entry.Succeeded, &entry.Failed, &entry.Cancelled)
		if err != nil {
			return nil, fmt.Errorf("tenant %s: failed to scan delivery timeline: %w", tenantID, err)
		}
		entry.Period = fmt.Sprint(period)
		timeline = append(timeline, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("tenant %s: delivery timeline iteration error: %w", tenantID, err)
	}

	return &DeliveryMetrics{
		TotalDeliveries: total,
		ByStatus:        byStatus,
		ByEventType:     byEventType,
		Timeline:        timeline,
	}, nil
}

func (s *Service) countBy(ctx context.Context, tenantID uuid.UUID, column string) (map[string]int64, error) {
	// column is one of two fixed identifiers chosen by the caller, never
	// user input.
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*)
		FROM webhook_deliveries
		WHERE tenant_id = $1
		GROUP BY %s
	`, column, column)

	rows, err := s.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: failed to count by %s: %w", tenantID, column, err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("tenant %s: failed to scan %s counts: %w", tenantID, column, err)
		}
		counts[key] = count
	}

	return counts, rows.Err()
}

// GetQueueHealth retrieves a system-wide snapshot of the retry queue.
// Overdue means pending with a due time already in the past; a growing
// overdue count under a healthy scheduler points at slow endpoints or an
// undersized worker pool.
func (s *Service) GetQueueHealth(ctx context.Context) (*QueueHealth, error) {
	var health QueueHealth
	err := s.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending') as pending,
			COUNT(*) FILTER (WHERE status = 'pending' AND next_attempt_at <= NOW()) as overdue,
			COUNT(*) FILTER (WHERE status = 'in_progress') as in_progress,
			MIN(next_attempt_at) FILTER (WHERE status = 'pending') as oldest_due
		FROM webhook_deliveries
	`).Scan(&health.Pending, &health.Overdue, &health.InProgress, &health.OldestDue)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue health: %w", err)
	}

	return &health, nil
}

// ListTenants retrieves all tenants with summary delivery counts
func (s *Service) ListTenants(ctx context.Context, limit, offset int) ([]TenantOverview, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
		SELECT
			t.id, t.name, t.slug, t.plan, t.is_active, t.created_at,
			COUNT(d.id) as total,
			COUNT(d.id) FILTER (WHERE d.status = 'success') as succeeded,
			COUNT(d.id) FILTER (WHERE d.status = 'failed') as failed,
			COUNT(d.id) FILTER (WHERE d.status = 'pending') as pending
		FROM tenants t
		LEFT JOIN webhook_deliveries d ON d.tenant_id = t.id
		GROUP BY t.id, t.name, t.slug, t.plan, t.is_active, t.created_at
		ORDER BY t.created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	tenants := make([]TenantOverview, 0)
	for rows.Next() {
		var t TenantOverview
		var id uuid.UUID
		err := rows.Scan(
			&id, &t.Name, &t.Slug, &t.Plan, &t.IsActive, &t.CreatedAt,
			&t.Deliveries.Total, &t.Deliveries.Succeeded, &t.Deliveries.Failed, &t.Deliveries.Pending,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant overview: %w", err)
		}
		t.ID = id.String()
		tenants = append(tenants, t)
	}

	return tenants, rows.Err()
}
