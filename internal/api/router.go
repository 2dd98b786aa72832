package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/deploywatch/deploywatch/internal/admin"
	"github.com/deploywatch/deploywatch/internal/api/docs"
	"github.com/deploywatch/deploywatch/internal/api/handler"
	adminHandler "github.com/deploywatch/deploywatch/internal/api/handler/admin"
	"github.com/deploywatch/deploywatch/internal/api/middleware"
	"github.com/deploywatch/deploywatch/internal/audit"
	"github.com/deploywatch/deploywatch/internal/config"
	"github.com/deploywatch/deploywatch/internal/repository"
	"github.com/deploywatch/deploywatch/internal/webhook"
)

type Dependencies struct {
	TenantRepo       *repository.TenantRepository
	APIKeyRepo       *repository.APIKeyRepository
	SubscriptionRepo *repository.SubscriptionRepository
	DeliveryRepo     *repository.DeliveryRepository
	LastUsedWorker   *middleware.LastUsedWorker
	DB               *pgxpool.Pool
	Config           *config.Config
}

type Router struct {
	app             *fiber.App
	logger          *slog.Logger
	deps            *Dependencies
	rateLimiter     *middleware.RateLimiter
	scheduler       *webhook.Scheduler
	cancelScheduler context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Deploywatch Webhook API",
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints (no auth required)
	var pinger handler.Pinger
	if r.deps != nil && r.deps.DB != nil {
		pinger = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(pinger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// API v1 group with authentication
	v1 := r.app.Group("/v1")

	// Only configure authenticated routes if dependencies were provided
	if r.deps != nil {
		cfg := r.deps.Config
		if cfg == nil {
			cfg = &config.Config{}
		}

		// Delivery pipeline: dispatcher makes attempts, the service owns the
		// state machine, the scheduler drains due retries in the background.
		dispatcher := webhook.NewDispatcher(r.deps.DeliveryRepo, r.logger, cfg.RequestTimeout, webhook.BackoffConfig{
			Base:   cfg.BaseBackoff,
			Max:    cfg.MaxBackoff,
			Jitter: webhook.DefaultBackoff().Jitter,
		})
		webhookService := webhook.NewService(r.deps.DeliveryRepo, r.deps.SubscriptionRepo, dispatcher, r.logger, webhook.ServiceConfig{
			MaxAttempts: cfg.MaxAttempts,
			BatchSize:   cfg.BatchSize,
			Concurrency: cfg.DeliveryConcurrency,
		})

		r.scheduler = webhook.NewScheduler(webhookService, r.logger, cfg.RetryInterval)
		ctx, cancel := context.WithCancel(context.Background())
		r.cancelScheduler = cancel
		go r.scheduler.Run(ctx)

		// Auth middleware
		authDeps := middleware.AuthDependencies{
			TenantRepo:     r.deps.TenantRepo,
			APIKeyRepo:     r.deps.APIKeyRepo,
			Logger:         r.logger,
			LastUsedWorker: r.deps.LastUsedWorker,
		}
		v1.Use(middleware.Auth(authDeps))

		// Rate limiting (per tenant) - must come after auth to have tenant context
		r.rateLimiter = middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
		v1.Use(r.rateLimiter.Handler())

		// Audit trail for tenant-visible state changes
		auditLogger := audit.NewSlogLogger(r.logger)

		// Delivery routes
		deliveryHandler := handler.NewDeliveryHandler(webhookService, auditLogger, r.logger)
		v1.Post("/deliveries", deliveryHandler.Enqueue)
		v1.Get("/deliveries", deliveryHandler.List)
		v1.Get("/deliveries/:id", deliveryHandler.Get)
		v1.Post("/deliveries/:id/cancel", deliveryHandler.Cancel)

		// Subscription routes
		subscriptionHandler := handler.NewSubscriptionHandler(r.deps.SubscriptionRepo, auditLogger, r.logger)
		v1.Post("/subscriptions", subscriptionHandler.Create)
		v1.Get("/subscriptions", subscriptionHandler.List)
		v1.Delete("/subscriptions/:id", subscriptionHandler.Delete)

		// Operator routes (JWT auth)
		r.setupOperatorRoutes(v1, webhookService, cfg)
	}
}

func (r *Router) setupOperatorRoutes(v1Group fiber.Router, webhookService *webhook.Service, cfg *config.Config) {
	adminService := admin.NewService(r.deps.DB, r.logger)

	jwtService := admin.NewJWTService(
		cfg.AdminJWTSecret,
		"deploywatch-api",
		24*time.Hour,
	)

	adminGroup := v1Group.Group("/admin")
	adminGroup.Use(middleware.OperatorAuth(middleware.OperatorAuthDependencies{
		JWTService: jwtService,
		Logger:     r.logger,
	}))

	metricsHandler := adminHandler.NewMetricsHandler(adminService, r.logger)
	retriesHandler := adminHandler.NewRetriesHandler(webhookService, r.logger)

	// Tenant routes
	adminGroup.Get("/tenants", metricsHandler.ListTenants)
	adminGroup.Get("/tenants/:id/metrics", metricsHandler.GetDeliveryMetrics)

	// Queue routes
	adminGroup.Get("/queue", metricsHandler.GetQueueHealth)
	adminGroup.Post("/retries/flush", retriesHandler.Flush)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop retry scheduler
	if r.cancelScheduler != nil {
		r.cancelScheduler()
	}
	if r.scheduler != nil {
		r.scheduler.Stop()
	}

	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
