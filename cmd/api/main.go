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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/saasplatform/internal/api"
	"github.com/nikhilbhutani/saasplatform/internal/api/middleware"
	"github.com/nikhilbhutani/saasplatform/internal/auth"
	"github.com/nikhilbhutani/saasplatform/internal/automation"
	"github.com/nikhilbhutani/saasplatform/internal/cache"
	"github.com/nikhilbhutani/saasplatform/internal/config"
	"github.com/nikhilbhutani/saasplatform/internal/database"
	"github.com/nikhilbhutani/saasplatform/internal/events"
	"github.com/nikhilbhutani/saasplatform/internal/logger"
	"github.com/nikhilbhutani/saasplatform/internal/project"
	"github.com/nikhilbhutani/saasplatform/internal/queue"
	"github.com/nikhilbhutani/saasplatform/internal/quota"
	"github.com/nikhilbhutani/saasplatform/internal/tenant"
	"github.com/nikhilbhutani/saasplatform/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Init(logger.Config{
		Level:       cfg.App.LogLevel,
		Environment: cfg.App.Environment,
		ServiceName: cfg.App.Name + "-api",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("api server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath, log); err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, tenant lookups will hit the database", zap.Error(err))
	}
	jsonCache := cache.NewCache(rdb, cfg.App.Name)

	tenantStore := tenant.NewPGStore(db)
	lookup := tenant.NewCachedLookup(tenantStore, jsonCache, cfg.Tenant.CacheTTL, log)
	resolver := tenant.NewResolver(lookup, log, tenant.WithPublicPrefixes(cfg.Tenant.PublicPrefixes...))
	tenantSvc := tenant.NewService(tenantStore, lookup, log)

	bus, closeBus, err := newBus(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeBus()

	automationStore := automation.NewPGStore(db)
	publisher := events.NewPublisher(automationStore, bus, cfg.Events.EventBusName, log)

	projectStore := project.NewPGStore(db)
	enforcer := quota.NewEnforcer(tenantStore, projectStore, log)
	provider := tenant.ContextProvider{}

	deps := api.Deps{
		DB:          db,
		Cache:       jsonCache,
		Resolver:    resolver,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		CORSOrigins: cfg.Server.CORSOrigins,
		Tenants:     tenantSvc,
		Usage:       enforcer,
		Projects:    project.NewService(projectStore, enforcer, publisher, provider, log),
		Tasks:       project.NewTaskService(projectStore, enforcer, publisher, provider, log),
		Automations: automation.NewService(automationStore, provider, log),
		Users:       user.NewService(user.NewPGStore(db), tenantStore, provider, log),

		InternalSecret: cfg.Auth.InternalSecret,
	}
	if cfg.Auth.Enabled {
		deps.JWT = auth.NewJWTMiddleware(cfg.Auth.JWTSecret)
	} else {
		log.Warn("authentication disabled")
	}
	if cfg.Auth.InternalSecret == "" {
		log.Info("internal API disabled, INTERNAL_API_SECRET not set")
	}
	go deps.RateLimiter.Run(ctx)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(deps).Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting API server",
			zap.String("addr", cfg.Addr()),
			zap.String("event_backend", cfg.Events.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// newBus builds the forwarding target for published events. A nil bus keeps
// events in the local event log only.
func newBus(ctx context.Context, cfg *config.Config, log *zap.Logger) (events.Bus, func(), error) {
	noop := func() {}

	switch cfg.Events.Backend {
	case config.BackendEventBridge:
		b, err := events.DialEventBridge(ctx, cfg.Events.AWSRegion)
		if err != nil {
			return nil, noop, err
		}
		return b, noop, nil
	case config.BackendNATS:
		b, err := events.DialNATS(cfg.Events.NATSURL, cfg.Events.NATSSubjectPrefix, log)
		if err != nil {
			return nil, noop, err
		}
		return b, func() {
			if err := b.Close(); err != nil {
				log.Warn("close nats connection", zap.Error(err))
			}
		}, nil
	case config.BackendQueue:
		c := queue.NewClient(cfg.Redis)
		return events.NewQueueBus(c), func() {
			if err := c.Close(); err != nil {
				log.Warn("close queue client", zap.Error(err))
			}
		}, nil
	default:
		return nil, noop, nil
	}
}
