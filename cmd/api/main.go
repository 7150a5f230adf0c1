package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadfunnel_backend/internal/auth"
	"leadfunnel_backend/internal/email"
	apphttp "leadfunnel_backend/internal/http"
	"leadfunnel_backend/internal/http/router"
	"leadfunnel_backend/internal/leads"
	"leadfunnel_backend/internal/leads/funnel"
	"leadfunnel_backend/internal/settings"
	"leadfunnel_backend/internal/site"
	"leadfunnel_backend/internal/webhook"
	"leadfunnel_backend/platform/config"
	"leadfunnel_backend/platform/db"
	"leadfunnel_backend/platform/events"
	"leadfunnel_backend/platform/logger"
	"leadfunnel_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	// The database is optional: without it the funnel runs on the in-memory
	// record store and sessions report synced=false.
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, cfg, "migrations")
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")

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
	} else {
		log.Warn("DATABASE_URL not configured; running with in-memory record store")
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Funnel sessions live in Redis when available, otherwise in process.
	var sessions funnel.SessionStore
	if cfg.RedisURL != "" {
		redisSessions, err := funnel.NewRedisSessionStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			log.Error("failed to initialize redis session store", "error", err)
			panic("failed to initialize redis session store: " + err.Error())
		}
		defer func() {
			_ = redisSessions.Close()
		}()
		sessions = redisSessions
		log.Info("redis session store initialized")
	} else {
		sessions = funnel.NewMemorySessionStore(cfg.SessionTTL)
		log.Warn("REDIS_URL not configured; funnel sessions held in process memory")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	settingsModule := settings.NewModule(pool, val, cfg, log)
	leadsModule := leads.NewModule(pool, sessions, settingsModule.Service(), eventBus, val, cfg, log)
	authModule := auth.NewModule(cfg, val, log)
	siteModule := site.NewModule(cfg, settingsModule.Service())

	// Outbound webhook notifier subscribes to funnel events (not HTTP-facing)
	notifier, err := webhook.NewNotifier(cfg, webhook.NewClient(log), log)
	if err != nil {
		log.Error("failed to initialize webhook notifier", "error", err)
		panic("failed to initialize webhook notifier: " + err.Error())
	}
	if notifier != nil {
		notifier.Subscribe(eventBus)
		log.Info("webhook notifier initialized")
	}

	// Email alerts for callbacks and qualified leads
	if sender := email.NewSMTPSender(cfg); sender != nil {
		email.NewListener(sender, log).Subscribe(eventBus)
		log.Info("email alerts initialized", "to", cfg.EmailAlertAddress)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			leadsModule,
			settingsModule,
			siteModule,
		},
	}
	if pool != nil {
		app.Health = db.NewPoolAdapter(pool)
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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
