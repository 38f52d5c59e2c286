package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"
)

// LeadPusher performs the actual CRM delivery. Implemented by the crm module.
type LeadPusher interface {
	PushLead(ctx context.Context, payload CRMPushLeadPayload) error
}

// Worker consumes queued tasks. It runs in the worker binary, separate from
// the API process.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	pusher LeadPusher
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pusher LeadPusher, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetQueueConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		pusher: pusher,
		log:    log,
	}

	mux.HandleFunc(TaskCRMPushLead, w.handleCRMPushLead)

	return w, nil
}

func (w *Worker) handleCRMPushLead(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCRMPushLeadPayload(task)
	if err != nil {
		return err
	}
	return w.pusher.PushLead(ctx, payload)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("queue worker stopped", "error", err)
	}
}
