package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/deploywatch/deploywatch/internal/api/middleware"
	"github.com/deploywatch/deploywatch/internal/audit"
	"github.com/deploywatch/deploywatch/internal/domain"
	"github.com/deploywatch/deploywatch/internal/webhook"
)

// MockSubscriptionRepo is a mock implementation of SubscriptionRepositoryInterface
type MockSubscriptionRepo struct {
	mock.Mock
}

func (m *MockSubscriptionRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*webhook.Subscription, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhook.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*webhook.Subscription, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*webhook.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepo) Create(ctx context.Context, sub *webhook.Subscription) error {
	args := m.Called(ctx, sub)
	if args.Error(0) == nil && sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockSubscriptionRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func subscriptionTestApp(repo *MockSubscriptionRepo, tenantID uuid.UUID) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(slog.New(slog.DiscardHandler)),
	})

	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalTenantID, tenantID)
		return c.Next()
	})

	h := NewSubscriptionHandler(repo, &audit.NoOpLogger{}, slog.New(slog.DiscardHandler))
	app.Post("/v1/subscriptions", h.Create)
	app.Get("/v1/subscriptions", h.List)
	app.Delete("/v1/subscriptions/:id", h.Delete)

	return app
}

func intptr(n int) *int { return &n }

func sampleSubscription(tenantID uuid.UUID) *webhook.Subscription {
	now := time.Now()
	return &webhook.Subscription{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Name:       "production-notifier",
		TargetURL:  "https://hooks.example.com/deploys",
		Secret:     "whsec_test",
		EventTypes: []string{"deployment.completed", "deployment.failed"},
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestSubscriptionHandler_Create(t *testing.T) {
	tenantID := uuid.New()

	t.Run("valid request returns subscription with secret", func(t *testing.T) {
		repo := new(MockSubscriptionRepo)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(s *webhook.Subscription) bool {
			return s.TenantID == tenantID && s.Name == "production-notifier" && s.IsActive && s.Secret != ""
		})).Return(nil)

		app := subscriptionTestApp(repo, tenantID)

		body, _ := json.Marshal(CreateSubscriptionRequest{
			Name:       "production-notifier",
			TargetURL:  "https://hooks.example.com/deploys",
			EventTypes: []string{"deployment.completed"},
		})
		req := httptest.NewRequest("POST", "/v1/subscriptions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

		respBody, _ := io.ReadAll(resp.Body)
		var result struct {
			Subscription SubscriptionResponse `json:"subscription"`
			Secret       string               `json:"secret"`
		}
		require.NoError(t, json.Unmarshal(respBody, &result))
		assert.Equal(t, "production-notifier", result.Subscription.Name)
		assert.True(t, result.Subscription.IsActive)
		assert.NotEmpty(t, result.Secret)

		repo.AssertExpectations(t)
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name string
			req  CreateSubscriptionRequest
		}{
			{
				name: "name too short",
				req: CreateSubscriptionRequest{
					Name:       "ab",
					TargetURL:  "https://hooks.example.com/deploys",
					EventTypes: []string{"deployment.completed"},
				},
			},
			{
				name: "invalid target url",
				req: CreateSubscriptionRequest{
					Name:       "production-notifier",
					TargetURL:  "not-a-url",
					EventTypes: []string{"deployment.completed"},
				},
			},
			{
				name: "ftp scheme rejected",
				req: CreateSubscriptionRequest{
					Name:       "production-notifier",
					TargetURL:  "ftp://hooks.example.com/deploys",
					EventTypes: []string{"deployment.completed"},
				},
			},
			{
				name: "max attempts out of range",
				req: CreateSubscriptionRequest{
					Name:        "production-notifier",
					TargetURL:   "https://hooks.example.com/deploys",
					EventTypes:  []string{"deployment.completed"},
					MaxAttempts: intptr(0),
				},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := new(MockSubscriptionRepo)
				app := subscriptionTestApp(repo, tenantID)

				body, _ := json.Marshal(tt.req)
				req := httptest.NewRequest("POST", "/v1/subscriptions", bytes.NewReader(body))
				req.Header.Set("Content-Type", "application/json")

				resp, err := app.Test(req)
				require.NoError(t, err)
				assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

				repo.AssertNotCalled(t, "Create")
			})
		}
	})
}

func TestSubscriptionHandler_List(t *testing.T) {
	tenantID := uuid.New()

	t.Run("returns tenant subscriptions", func(t *testing.T) {
		subs := []*webhook.Subscription{sampleSubscription(tenantID), sampleSubscription(tenantID)}

		repo := new(MockSubscriptionRepo)
		repo.On("ListByTenant", mock.Anything, tenantID).Return(subs, nil)

		app := subscriptionTestApp(repo, tenantID)

		req := httptest.NewRequest("GET", "/v1/subscriptions", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		respBody, _ := io.ReadAll(resp.Body)
		var result struct {
			Subscriptions []SubscriptionResponse `json:"subscriptions"`
		}
		require.NoError(t, json.Unmarshal(respBody, &result))
		assert.Len(t, result.Subscriptions, 2)

		repo.AssertExpectations(t)
	})

	t.Run("empty list", func(t *testing.T) {
		repo := new(MockSubscriptionRepo)
		repo.On("ListByTenant", mock.Anything, tenantID).Return([]*webhook.Subscription{}, nil)

		app := subscriptionTestApp(repo, tenantID)

		req := httptest.NewRequest("GET", "/v1/subscriptions", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		respBody, _ := io.ReadAll(resp.Body)
		var result struct {
			Subscriptions []SubscriptionResponse `json:"subscriptions"`
		}
		require.NoError(t, json.Unmarshal(respBody, &result))
		assert.Empty(t, result.Subscriptions)
	})
}

func TestSubscriptionHandler_Delete(t *testing.T) {
	tenantID := uuid.New()
	subID := uuid.New()

	t.Run("deletes existing subscription", func(t *testing.T) {
		repo := new(MockSubscriptionRepo)
		repo.On("Delete", mock.Anything, tenantID, subID).Return(nil)

		app := subscriptionTestApp(repo, tenantID)

		req := httptest.NewRequest("DELETE", "/v1/subscriptions/"+subID.String(), nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

		repo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockSubscriptionRepo)
		repo.On("Delete", mock.Anything, tenantID, subID).Return(domain.ErrSubscriptionNotFound)

		app := subscriptionTestApp(repo, tenantID)

		req := httptest.NewRequest("DELETE", "/v1/subscriptions/"+subID.String(), nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed id", func(t *testing.T) {
		repo := new(MockSubscriptionRepo)
		app := subscriptionTestApp(repo, tenantID)

		req := httptest.NewRequest("DELETE", "/v1/subscriptions/not-a-uuid", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

		repo.AssertNotCalled(t, "Delete")
	})
}
