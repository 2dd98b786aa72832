package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// DeliveryResponse represents a webhook delivery record
type DeliveryResponse struct {
	ID             string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	SubscriptionID string `json:"subscription_id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	EventType      string `json:"event_type" example:"deployment.completed"`
	Payload        string `json:"payload,omitempty" example:"{\"deployment_id\":\"dep-42\"}"`
	Status         string `json:"status" example:"pending"`
	AttemptCount   int    `json:"attempt_count" example:"0"`
	MaxAttempts    int    `json:"max_attempts" example:"8"`
	NextAttemptAt  string `json:"next_attempt_at,omitempty" example:"2024-01-01T00:00:30Z"`
	LastAttemptAt  string `json:"last_attempt_at,omitempty" example:""`
	LastError      string `json:"last_error,omitempty" example:""`
	CreatedAt      string `json:"created_at" example:"2024-01-01T00:00:00Z"`
	UpdatedAt      string `json:"updated_at" example:"2024-01-01T00:00:00Z"`
}

// DeliveryListResponse represents a page of delivery records
type DeliveryListResponse struct {
	Deliveries []DeliveryResponse `json:"deliveries"`
}

// CancelDeliveryResponse represents the result of cancelling a delivery
type CancelDeliveryResponse struct {
	ID     string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status string `json:"status" example:"cancelled"`
}

// EnqueueDeliveryRequest represents the enqueue request body
type EnqueueDeliveryRequest struct {
	SubscriptionID string `json:"subscription_id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	EventType      string `json:"event_type" example:"deployment.completed"`
	Payload        string `json:"payload" example:"{\"deployment_id\":\"dep-42\"}"`
	IdempotencyKey string `json:"idempotency_key" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// SubscriptionResponse represents a webhook subscription
type SubscriptionResponse struct {
	ID          string   `json:"id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	Name        string   `json:"name" example:"production-slack-notifier"`
	TargetURL   string   `json:"target_url" example:"https://hooks.example.com/deploys"`
	EventTypes  []string `json:"event_types" example:"deployment.completed,deployment.failed"`
	MaxAttempts int      `json:"max_attempts" example:"8"`
	IsActive    bool     `json:"is_active" example:"true"`
	CreatedAt   string   `json:"created_at" example:"2024-01-01T00:00:00Z"`
}

// CreateSubscriptionRequest represents the subscription creation body
type CreateSubscriptionRequest struct {
	Name        string   `json:"name" example:"production-slack-notifier"`
	TargetURL   string   `json:"target_url" example:"https://hooks.example.com/deploys"`
	EventTypes  []string `json:"event_types" example:"deployment.completed,deployment.failed"`
	MaxAttempts int      `json:"max_attempts" example:"8"`
}

// CreateSubscriptionResponse includes the signing secret, returned only once
type CreateSubscriptionResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
	Secret       string               `json:"secret" example:"whsec_c2VjcmV0LXNpZ25pbmcta2V5"`
}

// SubscriptionListResponse represents the tenant's subscriptions
type SubscriptionListResponse struct {
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

// Admin Types

// DeliveryTimelinePoint represents one bucket of the delivery timeline
type DeliveryTimelinePoint struct {
	Period    string `json:"period" example:"2024-01-01"`
	Total     int64  `json:"total" example:"120"`
	Succeeded int64  `json:"succeeded" example:"110"`
	Failed    int64  `json:"failed" example:"8"`
	Cancelled int64  `json:"cancelled" example:"2"`
}

// DeliveryMetricsData contains delivery metrics for a tenant
type DeliveryMetricsData struct {
	TotalDeliveries int64                   `json:"total_deliveries" example:"1204"`
	ByStatus        map[string]int64        `json:"by_status"`
	ByEventType     map[string]int64        `json:"by_event_type"`
	Timeline        []DeliveryTimelinePoint `json:"timeline"`
}

// MetricsPeriod describes the reporting window
type MetricsPeriod struct {
	StartDate string `json:"start_date" example:"2024-01-01T00:00:00Z"`
	EndDate   string `json:"end_date" example:"2024-01-31T23:59:59Z"`
	Interval  string `json:"interval" example:"day"`
}

// MetricsMeta describes pagination of timeline buckets
type MetricsMeta struct {
	Limit  int `json:"limit" example:"100"`
	Offset int `json:"offset" example:"0"`
}

// DeliveryMetricsResponse wraps tenant delivery metrics
type DeliveryMetricsResponse struct {
	Data   DeliveryMetricsData `json:"data"`
	Period MetricsPeriod       `json:"period"`
	Meta   MetricsMeta         `json:"meta"`
}

// QueueHealthResponse represents the global delivery queue state
type QueueHealthResponse struct {
	Pending    int64  `json:"pending" example:"37"`
	Overdue    int64  `json:"overdue" example:"4"`
	InProgress int64  `json:"in_progress" example:"2"`
	OldestDue  string `json:"oldest_due,omitempty" example:"2024-01-01T00:00:00Z"`
}

// TenantOverviewResponse represents one tenant in the admin listing
type TenantOverviewResponse struct {
	ID              string `json:"id" example:"a1b2c3d4-e5f6-7890-abcd-ef1234567890"`
	Name            string `json:"name" example:"Acme Corp"`
	Plan            string `json:"plan" example:"pro"`
	IsActive        bool   `json:"is_active" example:"true"`
	Subscriptions   int64  `json:"subscriptions" example:"3"`
	TotalDeliveries int64  `json:"total_deliveries" example:"1204"`
}

// TenantListResponse represents the admin tenant listing
type TenantListResponse struct {
	Tenants []TenantOverviewResponse `json:"tenants"`
}

// FlushRetriesResponse represents the result of a manual retry flush
type FlushRetriesResponse struct {
	Processed int `json:"processed" example:"12"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version" example:"0.1.0"`
}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Deploywatch Webhook API",
		Version:     "v1.0.0",
		Description: "Webhook delivery and retry subsystem for deployment event notifications with multi-tenancy support",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// Deliveries endpoints

		// POST /v1/deliveries - Enqueue Delivery
		endpoint.New(
			endpoint.POST,
			"/deliveries",
			endpoint.WithTags("Deliveries"),
			endpoint.WithSummary("Enqueue a webhook delivery"),
			endpoint.WithDescription("Enqueues a deployment event for delivery to the given subscription. The idempotency_key makes repeated enqueues of the same event safe: replays return the existing delivery."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DeliveryResponse{}, "201", "Delivery enqueued successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "SUBSCRIPTION_NOT_FOUND", Message: "Webhook subscription not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "SUBSCRIPTION_INACTIVE", Message: "Webhook subscription is inactive"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "EVENT_TYPE_NOT_ACCEPTED", Message: "Subscription does not accept this event type"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// GET /v1/deliveries - List Deliveries
		endpoint.New(
			endpoint.GET,
			"/deliveries",
			endpoint.WithTags("Deliveries"),
			endpoint.WithSummary("List recent deliveries"),
			endpoint.WithDescription("Lists the tenant's deliveries ordered by creation time, newest first. Payloads are omitted from list responses."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum records to return (default 50, max 200)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DeliveryListResponse{}, "200", "Deliveries retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// GET /v1/deliveries/{id} - Get Delivery
		endpoint.New(
			endpoint.GET,
			"/deliveries/{id}",
			endpoint.WithTags("Deliveries"),
			endpoint.WithSummary("Get a delivery by ID"),
			endpoint.WithDescription("Returns the full delivery record including payload, attempt history fields and current status."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Delivery UUID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DeliveryResponse{}, "200", "Delivery retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Invalid delivery ID"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "DELIVERY_NOT_FOUND", Message: "Webhook delivery not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/deliveries/{id}/cancel - Cancel Delivery
		endpoint.New(
			endpoint.POST,
			"/deliveries/{id}/cancel",
			endpoint.WithTags("Deliveries"),
			endpoint.WithSummary("Cancel a pending delivery"),
			endpoint.WithDescription("Cancels a delivery that has not yet reached a terminal state. Deliveries already succeeded, failed or cancelled cannot be cancelled again."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Delivery UUID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CancelDeliveryResponse{}, "200", "Delivery cancelled successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Invalid delivery ID"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "DELIVERY_NOT_FOUND", Message: "Webhook delivery not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "DELIVERY_NOT_CANCELLABLE", Message: "Delivery has already reached a terminal state"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// Subscriptions endpoints

		// POST /v1/subscriptions - Create Subscription
		endpoint.New(
			endpoint.POST,
			"/subscriptions",
			endpoint.WithTags("Subscriptions"),
			endpoint.WithSummary("Create a webhook subscription"),
			endpoint.WithDescription("Creates a webhook subscription for the tenant. The signing secret is returned only in this response and cannot be retrieved later."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CreateSubscriptionResponse{}, "201", "Subscription created successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// GET /v1/subscriptions - List Subscriptions
		endpoint.New(
			endpoint.GET,
			"/subscriptions",
			endpoint.WithTags("Subscriptions"),
			endpoint.WithSummary("List webhook subscriptions"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SubscriptionListResponse{}, "200", "Subscriptions retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// DELETE /v1/subscriptions/{id} - Delete Subscription
		endpoint.New(
			endpoint.DELETE,
			"/subscriptions/{id}",
			endpoint.WithTags("Subscriptions"),
			endpoint.WithSummary("Delete a webhook subscription"),
			endpoint.WithDescription("Deletes the subscription. Pending deliveries already enqueued for it keep running until they reach a terminal state."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Subscription UUID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Subscription deleted successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Invalid subscription ID"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "SUBSCRIPTION_NOT_FOUND", Message: "Webhook subscription not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// Admin endpoints

		// GET /v1/admin/tenants - List Tenants
		endpoint.New(
			endpoint.GET,
			"/admin/tenants",
			endpoint.WithTags("Admin"),
			endpoint.WithSummary("List tenants with delivery totals"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum tenants to return (default 50, max 200)")),
				parameter.IntParam("offset", parameter.Query, parameter.WithDescription("Pagination offset")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(TenantListResponse{}, "200", "Tenants retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing token"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "FORBIDDEN", Message: "Operator role required"}, "403", "Forbidden"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"BearerAuth": {}}}),
		),

		// GET /v1/admin/tenants/{id}/metrics - Tenant Delivery Metrics
		endpoint.New(
			endpoint.GET,
			"/admin/tenants/{id}/metrics",
			endpoint.WithTags("Admin"),
			endpoint.WithSummary("Get delivery metrics for a tenant"),
			endpoint.WithDescription("Returns delivery counts by status and event type plus a timeline bucketed by the requested interval."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Tenant UUID")),
				parameter.StrParam("start_date", parameter.Query, parameter.WithDescription("Window start in RFC3339 (default 30 days ago)")),
				parameter.StrParam("end_date", parameter.Query, parameter.WithDescription("Window end in RFC3339 (default now)")),
				parameter.StrParam("interval", parameter.Query, parameter.WithDescription("Timeline bucket: hour, day, week or month (default day)")),
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum timeline buckets (default 100, max 500)")),
				parameter.IntParam("offset", parameter.Query, parameter.WithDescription("Timeline pagination offset")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DeliveryMetricsResponse{}, "200", "Metrics retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Invalid tenant ID"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing token"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "FORBIDDEN", Message: "Operator role required"}, "403", "Forbidden"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"BearerAuth": {}}}),
		),

		// GET /v1/admin/queue - Queue Health
		endpoint.New(
			endpoint.GET,
			"/admin/queue",
			endpoint.WithTags("Admin"),
			endpoint.WithSummary("Get delivery queue health"),
			endpoint.WithDescription("Returns cross-tenant queue depth: pending deliveries, overdue deliveries past their next attempt time, in-progress attempts and the oldest due timestamp."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(QueueHealthResponse{}, "200", "Queue health retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing token"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "FORBIDDEN", Message: "Operator role required"}, "403", "Forbidden"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"BearerAuth": {}}}),
		),

		// POST /v1/admin/retries/flush - Flush Due Retries
		endpoint.New(
			endpoint.POST,
			"/admin/retries/flush",
			endpoint.WithTags("Admin"),
			endpoint.WithSummary("Process due deliveries immediately"),
			endpoint.WithDescription("Runs one scheduler pass synchronously, attempting every delivery whose next attempt time has passed, and returns the number processed."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FlushRetriesResponse{}, "200", "Flush completed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing token"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "FORBIDDEN", Message: "Operator role required"}, "403", "Forbidden"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"BearerAuth": {}}}),
		),

		// Health endpoints

		// GET /health - Health Check
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness check"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is healthy"),
			}),
		),

		// GET /ready - Readiness Check
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness check"),
			endpoint.WithDescription("Verifies database connectivity."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is ready"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{Status: "unavailable"}, "503", "Service Unavailable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
