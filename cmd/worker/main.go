package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/saasplatform/internal/actions"
	"github.com/nikhilbhutani/saasplatform/internal/automation"
	"github.com/nikhilbhutani/saasplatform/internal/config"
	"github.com/nikhilbhutani/saasplatform/internal/database"
	"github.com/nikhilbhutani/saasplatform/internal/logger"
	"github.com/nikhilbhutani/saasplatform/internal/queue"
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
		ServiceName: cfg.App.Name + "-worker",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("worker stopped", zap.Error(err))
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

	runners := actions.NewRegistry()
	runners.Register(actions.TypeWebhook, actions.NewWebhookRunner(cfg.Worker.WebhookTimeout, log))
	runners.Register(actions.TypeLog, actions.NewLogRunner(log))

	matcher := automation.NewMatcher(automation.NewPGStore(db), runners, log)

	registry := queue.NewHandlersRegistry()
	registry.Register(queue.TypeAutomationEvaluate, queue.JSONHandler(matcher.Handle))

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				queue.QueueCritical: 6,
				queue.QueueDefault:  3,
				queue.QueueLow:      1,
			},
			Logger: log.Sugar(),
		},
	)

	log.Info("starting worker", zap.Int("concurrency", cfg.Worker.Concurrency))
	if err := srv.Start(registry.Mux()); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	<-ctx.Done()
	log.Info("shutting down worker")
	srv.Shutdown()
	return nil
}
