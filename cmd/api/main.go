package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ironware/internal/config"
	"ironware/internal/database"
	"ironware/internal/handler"
	"ironware/internal/repository"
	"ironware/internal/router"
	"ironware/internal/service"
	"ironware/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting ironware API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Apply schema migrations
	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize the Redis session store
	sessions, err := session.NewRedisStore(ctx, cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer sessions.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	stockRepo := repository.NewStockRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	warehouseRepo := repository.NewWarehouseRepository(pool, logger)

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	cartService := service.NewCartService(cartRepo, stockRepo, productRepo, couponRepo, logger)
	couponService := service.NewCouponService(couponRepo, cartRepo, logger)
	orderService := service.NewOrderService(orderRepo, cartRepo, stockRepo, couponRepo, logger)
	warehouseService := service.NewWarehouseService(orderRepo, warehouseRepo, stockRepo, productRepo, logger)

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService, logger)
	cartHandler := handler.NewCartHandler(cartService, couponService, sessions, logger)
	orderHandler := handler.NewOrderHandler(orderService, sessions, logger)
	warehouseHandler := handler.NewWarehouseHandler(warehouseService, orderService, logger)

	// Initialize router
	mux := router.New(
		productHandler, cartHandler, orderHandler, warehouseHandler,
		cfg.Auth.APIKey, cfg.Redis.TTL(), logger,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
