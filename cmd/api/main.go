package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/internal/payment"
	"storefront/internal/promo"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
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
	logger.Info().Msg("starting storefront API server")

	// Money is rendered as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	promoRepo := repository.NewPromoRepository(pool, logger)

	if err := importPromos(ctx, cfg, promoRepo, logger); err != nil {
		return fmt.Errorf("failed to import promo catalog: %w", err)
	}

	trackingCache, closeCache := newTrackingCache(ctx, cfg, logger)
	defer closeCache()

	// Guest notifications
	senders := notify.NewSendersFromConfig(cfg.Notify, logger)
	executor, closeTransport, err := newExecutor(ctx, cfg.Notify, senders, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notifications: %w", err)
	}
	defer closeTransport()
	dispatcher := notify.NewDispatcher(executor, senders.Channels(), logger)

	gateways := payment.NewDefaultRegistry(cfg.Payment, logger)
	evaluator := promo.NewEvaluator(promoRepo, logger)

	// Initialize services
	checkoutService := service.NewCheckoutService(orderRepo, productRepo, promoRepo, evaluator, gateways, dispatcher, cfg.Payment.Currency, logger)
	statusService := service.NewStatusService(orderRepo, trackingCache, logger)
	trackingService := service.NewTrackingService(orderRepo, trackingCache, cfg.Tracking.EstimateDays, logger)
	paymentService := service.NewPaymentService(orderRepo, gateways, cfg.Payment.Currency, logger)
	notificationService := service.NewNotificationService(orderRepo, dispatcher, logger)

	// Initialize router
	mux := router.New(router.Handlers{
		Orders:   handler.NewOrderHandler(checkoutService, trackingService, notificationService, logger),
		Vendor:   handler.NewVendorHandler(statusService, logger),
		Promos:   handler.NewPromoHandler(evaluator, logger),
		Payments: handler.NewPaymentHandler(paymentService, logger),
		Health:   handler.NewHealthHandler(pool, logger),
	}, middleware.AuthConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		JWTIssuer: cfg.Auth.JWTIssuer,
		APIKey:    cfg.Auth.APIKey,
	}, logger)

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

		// Drain queued notifications after the last request has finished
		if err := executor.Close(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("notification queue not drained before shutdown")
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// importPromos upserts the configured promo catalogs, reading each from S3
// first when enabled and falling back to the local file system.
func importPromos(ctx context.Context, cfg *config.Config, store promo.Upserter, logger zerolog.Logger) error {
	if len(cfg.Promo.CatalogFiles) == 0 {
		logger.Info().Msg("no promo catalog files configured, skipping import")
		return nil
	}

	fileLoader := promo.NewFileLoader(logger)

	var s3Loader promo.Loader
	if cfg.S3.Enabled {
		var err error
		s3Loader, err = promo.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		}
	} else {
		logger.Info().Msg("using local file system for promo catalogs (S3 disabled)")
	}

	loader := promo.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, cfg.S3.Enabled, logger)

	count, err := promo.NewImporter(loader, store, logger).Import(ctx, cfg.Promo.CatalogFiles)
	if err != nil {
		return err
	}

	logger.Info().Int("promo_codes", count).Msg("promo catalog imported")
	return nil
}

// newTrackingCache connects to Redis when configured. The service runs
// uncached if Redis is absent or unreachable.
func newTrackingCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (cache.TrackingCache, func()) {
	if cfg.Redis.Addr == "" {
		logger.Info().Msg("tracking cache disabled (no Redis address)")
		return cache.NewNop(), func() {}
	}

	client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("tracking cache unavailable, continuing without it")
		return cache.NewNop(), func() {}
	}

	logger.Info().Str("addr", cfg.Redis.Addr).Msg("tracking cache connected")
	return cache.NewRedisTrackingCache(client, cfg.Tracking.CacheTTL, logger), func() {
		if err := client.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close redis client")
		}
	}
}

// newExecutor builds the notification executor for the configured backend.
// With AMQP the process also consumes the queue it publishes to.
func newExecutor(ctx context.Context, cfg config.NotifyConfig, senders notify.Senders, logger zerolog.Logger) (notify.Executor, func(), error) {
	retry := notify.DefaultRetryPolicy()
	retry.MaxRetries = uint64(cfg.MaxRetries)

	if cfg.Backend != "amqp" {
		executor := notify.NewPoolExecutor(senders, notify.PoolConfig{
			Workers:   cfg.Workers,
			QueueSize: cfg.QueueSize,
			Retry:     retry,
		}, logger)
		return executor, func() {}, nil
	}

	client, err := notify.DialAMQP(cfg.AMQPURL, cfg.Queue, logger)
	if err != nil {
		return nil, nil, err
	}

	consumer := notify.NewConsumer(client.Channel(), client.Queue, senders, retry, logger)
	go func() {
		if err := consumer.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("notification consumer stopped")
		}
	}()

	closeClient := func() {
		if err := client.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close AMQP connection")
		}
	}
	return notify.NewAMQPExecutor(client.Channel(), client.Queue, logger), closeClient, nil
}
