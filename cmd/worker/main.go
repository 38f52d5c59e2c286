// The worker process consumes queued tasks: CRM delivery of sold leads runs
// here so slow agent endpoints never block the API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	agentsrepo "leadmarket_backend/internal/agents/repository"
	"leadmarket_backend/internal/crm"
	leadsrepo "leadmarket_backend/internal/leads/repository"
	"leadmarket_backend/internal/scheduler"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/db"
	"leadmarket_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	pusher := crm.NewPusher(leadsrepo.New(pool), agentsrepo.New(pool), log)

	worker, err := scheduler.NewWorker(cfg, pusher, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	log.Info("worker listening", "queue", cfg.GetQueueName())
	worker.Run(ctx)
	log.Info("worker stopped")
}
