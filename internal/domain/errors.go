package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid or missing API key",
		StatusCode: 401,
	}

	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "Access denied",
		StatusCode: 403,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrTenantNotFound = &AppError{
		Code:       "TENANT_NOT_FOUND",
		Message:    "Tenant not found",
		StatusCode: 404,
	}

	ErrTenantInactive = &AppError{
		Code:       "TENANT_INACTIVE",
		Message:    "Tenant account is inactive",
		StatusCode: 403,
	}

	ErrAPIKeyRevoked = &AppError{
		Code:       "API_KEY_REVOKED",
		Message:    "API key has been revoked",
		StatusCode: 401,
	}

	ErrSubscriptionNotFound = &AppError{
		Code:       "SUBSCRIPTION_NOT_FOUND",
		Message:    "Webhook subscription not found",
		StatusCode: 404,
	}

	ErrSubscriptionInactive = &AppError{
		Code:       "SUBSCRIPTION_INACTIVE",
		Message:    "Webhook subscription is inactive",
		StatusCode: 409,
	}

	ErrDeliveryNotFound = &AppError{
		Code:       "DELIVERY_NOT_FOUND",
		Message:    "Webhook delivery not found",
		StatusCode: 404,
	}

	// ErrDeliveryExists signals a duplicate idempotency key. The delivery
	// service absorbs it on enqueue, so it only surfaces to callers that
	// hit the store directly.
	ErrDeliveryExists = &AppError{
		Code:       "DELIVERY_ALREADY_EXISTS",
		Message:    "A delivery with this idempotency key already exists",
		StatusCode: 409,
	}

	// ErrDeliveryConflict means a conditional update lost the race against
	// another worker. The losing side abandons its attempt.
	ErrDeliveryConflict = &AppError{
		Code:       "DELIVERY_CONFLICT",
		Message:    "Delivery was modified by another worker",
		StatusCode: 409,
	}

	ErrDeliveryNotCancellable = &AppError{
		Code:       "DELIVERY_NOT_CANCELLABLE",
		Message:    "Delivery has already reached a terminal state",
		StatusCode: 409,
	}

	ErrEventTypeNotAccepted = &AppError{
		Code:       "EVENT_TYPE_NOT_ACCEPTED",
		Message:    "Subscription does not accept this event type",
		StatusCode: 422,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}
)
