package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"leadmarket_backend/internal/adapters/storage"
	"leadmarket_backend/internal/agents"
	"leadmarket_backend/internal/auth"
	"leadmarket_backend/internal/billing"
	"leadmarket_backend/internal/campaigns"
	"leadmarket_backend/internal/crm"
	"leadmarket_backend/internal/email"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/exports"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/internal/http/router"
	"leadmarket_backend/internal/leads"
	leadsservice "leadmarket_backend/internal/leads/service"
	"leadmarket_backend/internal/notification"
	"leadmarket_backend/internal/orders"
	"leadmarket_backend/internal/scheduler"
	"leadmarket_backend/migrations"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/db"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Redis backs payment idempotency keys and the delivery queue.
	redisOpt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to parse redis url", "error", err)
		panic("failed to parse redis url: " + err.Error())
	}
	redisClient := redis.NewClient(redisOpt)
	defer redisClient.Close()

	queueClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize queue client", "error", err)
		panic("failed to initialize queue client: " + err.Error())
	}
	defer queueClient.Close()

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	var sender email.Sender = email.NoopSender{}
	if cfg.GetEmailEnabled() {
		sender = email.NewSMTPSender(cfg)
		log.Info("smtp sender initialized", "host", cfg.GetSMTPHost())
	} else {
		log.Warn("email disabled; notifications will not be sent")
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// Object storage archives raw lead import files.
	var archiver leadsservice.Archiver
	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure lead-imports bucket", 5, 2*time.Second, func() error {
			return storageSvc.EnsureBucketExists(ctx, cfg.GetMinioBucketLeadImports())
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketLeadImports())
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		archiver = storageSvc
		log.Info("storage service initialized", "leadImportsBucket", cfg.GetMinioBucketLeadImports())
	} else {
		log.Warn("object storage disabled; lead import files will not be archived")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	campaignsModule := campaigns.NewModule(pool, val, log)
	agentsModule := agents.NewModule(pool, val, log)
	ordersModule := orders.NewModule(pool, campaignsModule.PricingReader(), agentsModule.Directory(), eventBus, val, cfg, log)
	leadsModule := leads.NewModule(pool, ordersModule.Service(), agentsModule.Directory(), archiver, cfg.GetMinioBucketLeadImports(), eventBus, val, log)
	billingModule := billing.NewModule(redisClient, ordersModule.Service(), cfg, log)
	authModule := auth.NewModule(pool, cfg, val, log)
	exportsModule := exports.NewModule(pool, log)

	// Event-driven modules (no HTTP surface of their own)
	notificationModule := notification.NewModule(sender, campaignsModule.Repository(), log)
	notificationModule.RegisterHandlers(eventBus)
	crmModule := crm.NewModule(queueClient, log)
	crmModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			campaignsModule,
			agentsModule,
			ordersModule,
			leadsModule,
			billingModule,
			exportsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
