package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/telecare-platform/internal/api/router"
	"github.com/wolfman30/telecare-platform/internal/availability"
	"github.com/wolfman30/telecare-platform/internal/booking"
	appconfig "github.com/wolfman30/telecare-platform/internal/config"
	"github.com/wolfman30/telecare-platform/internal/directory"
	"github.com/wolfman30/telecare-platform/internal/insurance"
	"github.com/wolfman30/telecare-platform/internal/notify"
	"github.com/wolfman30/telecare-platform/internal/observability/metrics"
	"github.com/wolfman30/telecare-platform/internal/payments"
	"github.com/wolfman30/telecare-platform/internal/pricing"
	"github.com/wolfman30/telecare-platform/internal/session"
	"github.com/wolfman30/telecare-platform/internal/slots"
	"github.com/wolfman30/telecare-platform/internal/statefeed"
	"github.com/wolfman30/telecare-platform/pkg/logging"
)

func main() {
	// Load .env in development; ignored when absent.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting telecare-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Provider catalog: Postgres when configured, seed data otherwise.
	var dir directory.Directory
	var archive booking.ArchiveStore
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		dir = directory.NewPostgresDirectory(pool)
		archive = booking.NewPostgresArchive(pool)
		logger.Info("using postgres provider directory and archive")
	} else {
		dir = directory.NewInMemoryDirectory(directory.SeedCatalog()...)
		archive = booking.NewMemoryArchive()
		logger.Info("using in-memory provider directory and archive")
	}

	// Slot holds: Redis when configured so holds survive restarts and
	// are shared across instances.
	var registry slots.Registry
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		registry = slots.NewRedisRegistry(client, logger)
		logger.Info("using redis slot registry", "addr", cfg.RedisAddr)
	} else {
		registry = slots.NewMemoryRegistry(nil)
		logger.Info("using in-memory slot registry")
	}

	if !cfg.AllowFakePayments {
		logger.Error("no live payment processor is configured; set ALLOW_FAKE_PAYMENTS=true for the simulated one")
		os.Exit(1)
	}
	processor := payments.NewFakeProcessor(cfg.PaymentLatency, logger)

	var mailer notify.EmailSender
	if sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil {
		mailer = sender
		logger.Info("confirmation email enabled")
	}

	registerer := prometheus.DefaultRegisterer
	bookingMetrics := metrics.NewBookingMetrics(registerer)

	calc := availability.NewCalculator(cfg.MaintenanceDays, nil)
	resolver := insurance.NewMarkerResolver(cfg.EligibilityLatency, cfg.DefaultCopayCents, logger)
	sessions := session.NewManager(cfg.SessionTickInterval, logger)
	feed := statefeed.NewHub(logger)

	svc := booking.NewService(booking.Deps{
		Directory:          dir,
		Calendar:           calc,
		Resolver:           resolver,
		Pricing:            pricing.NewEngine(cfg.PlatformFeeCents),
		Processor:          processor,
		Slots:              registry,
		Sessions:           sessions,
		Archive:            archive,
		Feed:               feed,
		Mailer:             mailer,
		Metrics:            bookingMetrics,
		Logger:             logger,
		Currency:           cfg.Currency,
		HoldTTL:            cfg.SlotHoldTTL,
		EligibilityTimeout: cfg.EligibilityTimeout,
		TerminalRetention:  cfg.TerminalRetention,
	})
	sessions.SetTickObserver(svc.PublishTick)

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			svc.SweepTerminal()
		}
	}()

	r := router.New(&router.Config{
		Logger:              logger,
		BookingHandler:      booking.NewHandler(svc, sessions, logger),
		DirectoryHandler:    directory.NewHandler(dir, logger),
		AvailabilityHandler: availability.NewHandler(calc, dir, logger),
		Feed:                feed,
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		BookingRateLimit:    cfg.BookingRateLimit,
		BookingRateBurst:    cfg.BookingRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
