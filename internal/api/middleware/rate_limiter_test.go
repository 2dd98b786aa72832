package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/deploywatch/deploywatch/internal/domain"
)

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		tenantID := uuid.New()

		config := RateLimiterConfig{
			Max:    5,
			Window: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return tenantID.String()
			},
		}

		rl := NewRateLimiter(config)
		defer rl.Stop()

		app := fiber.New()
		app.Use(rl.Handler())
		app.Get("/test", func(c *fiber.Ctx) error {
			return c.SendString("OK")
		})

		for i := 0; i < 5; i++ {
			req := httptest.NewRequest("GET", "/test", nil)
			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, "OK", string(body))
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		tenantID := uuid.New()

		config := RateLimiterConfig{
			Max:    2,
			Window: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return tenantID.String()
			},
		}

		rl := NewRateLimiter(config)
		defer rl.Stop()

		app := fiber.New(fiber.Config{
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return c.Status(429).JSON(fiber.Map{"error": "rate limit"})
			},
		})
		app.Use(rl.Handler())
		app.Get("/test", func(c *fiber.Ctx) error {
			return c.SendString("OK")
		})

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest("GET", "/test", nil)
			resp, _ := app.Test(req)
			assert.Equal(t, 200, resp.StatusCode)
		}

		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)
		assert.Equal(t, 429, resp.StatusCode)
	})

	t.Run("different tenants have separate limits", func(t *testing.T) {
		var currentTenant string

		config := RateLimiterConfig{
			Max:    2,
			Window: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return currentTenant
			},
		}

		rl := NewRateLimiter(config)
		defer rl.Stop()

		app := fiber.New(fiber.Config{
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return c.Status(429).JSON(fiber.Map{"error": "rate limit"})
			},
		})
		app.Use(rl.Handler())
		app.Get("/test", func(c *fiber.Ctx) error {
			return c.SendString("OK")
		})

		currentTenant = "tenant-a"
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest("GET", "/test", nil)
			resp, _ := app.Test(req)
			assert.Equal(t, 200, resp.StatusCode)
		}

		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)
		assert.Equal(t, 429, resp.StatusCode)

		currentTenant = "tenant-b"
		req = httptest.NewRequest("GET", "/test", nil)
		resp, _ = app.Test(req)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("rate limit headers are set", func(t *testing.T) {
		tenantID := uuid.New()

		config := RateLimiterConfig{
			Max:    10,
			Window: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return tenantID.String()
			},
		}

		rl := NewRateLimiter(config)
		defer rl.Stop()

		app := fiber.New()
		app.Use(rl.Handler())
		app.Get("/test", func(c *fiber.Ctx) error {
			return c.SendString("OK")
		})

		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		assert.NoError(t, err)
		assert.Equal(t, "10", resp.Header.Get("X-RateLimit-Limit"))
		assert.Equal(t, "9", resp.Header.Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Reset"))
	})

	t.Run("anonymous requests bypass limiting", func(t *testing.T) {
		rl := NewRateLimiter(RateLimiterConfig{Max: 1, Window: time.Minute})
		defer rl.Stop()

		app := fiber.New()
		app.Use(rl.Handler())
		app.Get("/test", func(c *fiber.Ctx) error {
			return c.SendString("OK")
		})

		// No tenant in context: all requests pass through
		for i := 0; i < 3; i++ {
			resp, _ := app.Test(httptest.NewRequest("GET", "/test", nil))
			assert.Equal(t, 200, resp.StatusCode)
		}
	})

	t.Run("tenant setting overrides default max", func(t *testing.T) {
		tenantID := uuid.New()
		tenant := &domain.Tenant{
			ID:       tenantID,
			IsActive: true,
			Settings: map[string]interface{}{"webhook_rate_limit": float64(2)},
		}

		rl := NewRateLimiter(RateLimiterConfig{Max: 100, Window: time.Minute})
		defer rl.Stop()

		app := fiber.New(fiber.Config{
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return c.Status(429).JSON(fiber.Map{"error": "rate limit"})
			},
		})
		app.Use(func(c *fiber.Ctx) error {
			c.Locals(LocalTenantID, tenantID)
			c.Locals(LocalTenant, tenant)
			return c.Next()
		})
		app.Use(rl.Handler())
		app.Get("/test", func(c *fiber.Ctx) error {
			return c.SendString("OK")
		})

		for i := 0; i < 2; i++ {
			resp, _ := app.Test(httptest.NewRequest("GET", "/test", nil))
			assert.Equal(t, 200, resp.StatusCode)
		}

		resp, _ := app.Test(httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, 429, resp.StatusCode)
		assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	})
}

func TestIntToString(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{1, "1"},
		{42, "42"},
		{1000, "1000"},
		{-7, "-7"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, intToString(tt.in))
	}
}
