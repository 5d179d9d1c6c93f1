package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travel-checkout/internal/cache"
	"travel-checkout/internal/catalog"
	"travel-checkout/internal/config"
	"travel-checkout/internal/coupon"
	"travel-checkout/internal/database"
	"travel-checkout/internal/events"
	"travel-checkout/internal/handler"
	"travel-checkout/internal/jobs"
	"travel-checkout/internal/pricing"
	"travel-checkout/internal/repository"
	"travel-checkout/internal/router"
	"travel-checkout/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting travel-checkout API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database.ConnectionString(), cfg.Database.MigrationsPath, logger); err != nil {
			return err
		}
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	catalogRepo := repository.NewCatalogRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	outboxRepo := repository.NewOutboxRepository(pool, logger)

	itemCache, closeCache := newCache(ctx, cfg.Redis, logger)
	defer closeCache()

	producer, err := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.MockMode, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize kafka producer: %w", err)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close kafka producer")
		}
	}()

	relay := events.NewRelay(outboxRepo, producer, cfg.Jobs.OutboxBatchSize, logger)
	scheduler, err := jobs.NewScheduler(jobs.Config{
		OutboxInterval:       cfg.Jobs.OutboxInterval,
		CouponExpiryInterval: cfg.Jobs.CouponExpiryInterval,
	}, relay, couponRepo, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize jobs: %w", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("failed to stop jobs")
		}
	}()

	registry := catalog.NewDefaultRegistry(catalogRepo)
	catalogService := service.NewCatalogService(registry, catalogRepo, itemCache, logger)
	cartService := service.NewCartService(registry, cartRepo, logger)
	couponService := service.NewCouponService(couponRepo, logger)
	assembler := service.NewAssembler(
		orderRepo, cartRepo, userRepo, outboxRepo,
		service.NewOrderNumberGenerator(nil), cfg.Kafka.Topic, logger,
	)
	orderService := service.NewOrderService(
		pricing.NewEngine(registry, cartRepo, logger),
		coupon.NewEvaluator(couponRepo, userRepo, time.Now, logger),
		assembler,
		orderRepo, couponRepo, outboxRepo,
		registry, catalogService,
		service.OrderServiceConfig{
			Topic:                cfg.Kafka.Topic,
			RestoreStockOnCancel: cfg.Checkout.RestoreStockOnCancel,
		},
		logger,
	)

	validate := handler.NewValidator()
	mux := router.New(router.Handlers{
		Orders:  handler.NewOrderHandler(orderService, validate, logger),
		Cart:    handler.NewCartHandler(cartService, couponService, validate, logger),
		Catalog: handler.NewCatalogHandler(catalogService, logger),
	}, router.Options{
		APIKey:            cfg.Auth.APIKey,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newCache connects the Redis catalog cache, or returns a cache that always
// misses when Redis is disabled or unreachable.
func newCache(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (cache.Cache, func()) {
	if !cfg.Enabled {
		logger.Info().Msg("catalog cache disabled")
		return cache.NewNopCache(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unavailable, catalog cache disabled")
		_ = client.Close()
		return cache.NewNopCache(), func() {}
	}

	logger.Info().Str("addr", cfg.Addr).Dur("ttl", cfg.TTL).Msg("catalog cache enabled")
	return cache.NewRedisCache(client, cfg.TTL, logger), func() {
		if err := client.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close redis client")
		}
	}
}
