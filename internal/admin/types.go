package admin

import "time"

// MetricsParams holds query parameters for metrics endpoints
type MetricsParams struct {
	StartDate time.Time
	EndDate   time.Time
	Interval  string // hour, day, week, month
	Limit     int
	Offset    int
}

var validIntervals = map[string]bool{
	"hour":  true,
	"day":   true,
	"week":  true,
	"month": true,
}

// Normalize clamps parameters and fills defaults for anything missing.
func (p *MetricsParams) Normalize() {
	if !validIntervals[p.Interval] {
		p.Interval = "day"
	}
	if p.EndDate.IsZero() {
		p.EndDate = time.Now()
	}
	if p.StartDate.IsZero() {
		p.StartDate = p.EndDate.AddDate(0, 0, -30)
	}
	if p.Limit <= 0 || p.Limit > 500 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// MetricsResponse is the standard response wrapper for metrics endpoints
type MetricsResponse struct {
	Data interface{}  `json:"data"`
	Meta ResponseMeta `json:"meta"`
}

// ResponseMeta contains metadata about the metrics response
type ResponseMeta struct {
	TenantID    string    `json:"tenant_id,omitempty"`
	Period      Period    `json:"period"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Period represents a time period
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DeliveryMetrics contains per-tenant webhook delivery statistics
type DeliveryMetrics struct {
	TotalDeliveries int64              `json:"total_deliveries"`
	ByStatus        map[string]int64   `json:"by_status"`
	ByEventType     map[string]int64   `json:"by_event_type"`
	Timeline        []DeliveryTimeline `json:"timeline"`
}

// DeliveryTimeline represents a timeline entry for delivery metrics
type DeliveryTimeline struct {
	Period    string `json:"period"`
	Total     int64  `json:"total"`
	Succeeded int64  `json:"succeeded"`
	Failed    int64  `json:"failed"`
	Cancelled int64  `json:"cancelled"`
}

// QueueHealth is a system-wide snapshot of the retry queue
type QueueHealth struct {
	Pending    int64      `json:"pending"`
	Overdue    int64      `json:"overdue"`
	InProgress int64      `json:"in_progress"`
	OldestDue  *time.Time `json:"oldest_due,omitempty"`
}

// TenantOverview represents a tenant with summary delivery counts
type TenantOverview struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Slug       string          `json:"slug"`
	Plan       string          `json:"plan"`
	IsActive   bool            `json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
	Deliveries DeliverySummary `json:"deliveries"`
}

// DeliverySummary contains aggregated delivery counts for a tenant
type DeliverySummary struct {
	Total     int64 `json:"total"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Pending   int64 `json:"pending"`
}
