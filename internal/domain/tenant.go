package domain

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Plan types
const (
	PlanStarter    = "starter"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

var (
	validPlans = map[string]bool{
		PlanStarter:    true,
		PlanPro:        true,
		PlanEnterprise: true,
	}

	slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Tenant represents a B2B customer of the platform. All deliveries and
// subscriptions hang off a tenant, never cross it.
type Tenant struct {
	ID        uuid.UUID              `json:"id"`
	Name      string                 `json:"name"`
	Slug      string                 `json:"slug"`
	IsActive  bool                   `json:"is_active"`
	Plan      string                 `json:"plan"`
	Settings  map[string]interface{} `json:"settings,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// TenantSettings holds per-tenant webhook tuning
type TenantSettings struct {
	WebhookMaxAttempts int `json:"webhook_max_attempts"`
	WebhookRateLimit   int `json:"webhook_rate_limit"`
}

// DefaultTenantSettings returns default settings
func DefaultTenantSettings() TenantSettings {
	return TenantSettings{
		WebhookMaxAttempts: 5,
		WebhookRateLimit:   1000,
	}
}

// GetSettings returns typed tenant settings with defaults for missing values
func (t *Tenant) GetSettings() TenantSettings {
	defaults := DefaultTenantSettings()

	if t.Settings == nil {
		return defaults
	}

	// JSON numbers decode as float64
	if v, ok := t.Settings["webhook_max_attempts"].(float64); ok {
		defaults.WebhookMaxAttempts = int(v)
	}
	if v, ok := t.Settings["webhook_rate_limit"].(float64); ok {
		defaults.WebhookRateLimit = int(v)
	}

	return defaults
}

// Validate checks tenant fields
func (t *Tenant) Validate() error {
	if t.Name == "" {
		return errors.New("tenant name cannot be empty")
	}

	if t.Slug == "" {
		return errors.New("tenant slug cannot be empty")
	}

	if !slugRegex.MatchString(t.Slug) {
		return errors.New("tenant slug must contain only lowercase letters, numbers and hyphens")
	}

	if !validPlans[t.Plan] {
		return errors.New("invalid plan type")
	}

	return nil
}

// IsValidPlan reports whether plan is a known plan type
func IsValidPlan(plan string) bool {
	return validPlans[plan]
}
