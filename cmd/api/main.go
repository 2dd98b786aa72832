package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deploywatch/deploywatch/internal/api"
	"github.com/deploywatch/deploywatch/internal/api/middleware"
	"github.com/deploywatch/deploywatch/internal/config"
	"github.com/deploywatch/deploywatch/internal/database"
	"github.com/deploywatch/deploywatch/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting deploywatch webhook API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
	)

	// Connect to database
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Repositories
	tenantRepo := repository.NewTenantRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)
	subscriptionRepo := repository.NewSubscriptionRepository(pool)
	deliveryRepo := repository.NewDeliveryRepository(pool)

	// Background worker batching last_used_at updates
	lastUsedWorker := middleware.NewLastUsedWorker(apiKeyRepo, logger, middleware.DefaultLastUsedWorkerConfig())
	lastUsedWorker.Start()
	defer lastUsedWorker.Stop()

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		TenantRepo:       tenantRepo,
		APIKeyRepo:       apiKeyRepo,
		SubscriptionRepo: subscriptionRepo,
		DeliveryRepo:     deliveryRepo,
		LastUsedWorker:   lastUsedWorker,
		DB:               pool,
		Config:           cfg,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}
