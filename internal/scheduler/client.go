package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"leadmarket_backend/platform/config"
)

// crmPushMaxRetry bounds delivery attempts against a broken agent CRM.
const crmPushMaxRetry = 10

// Client enqueues tasks onto the durable queue.
type Client struct {
	client *asynq.Client
	queue  string
}

// LeadDeliveryScheduler is the slice of the client the CRM module consumes.
type LeadDeliveryScheduler interface {
	EnqueueCRMPush(ctx context.Context, payload CRMPushLeadPayload) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
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

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueCRMPush schedules delivery of a sold lead to the agent's CRM.
// Failed deliveries are retried with exponential backoff for up to a day.
func (c *Client) EnqueueCRMPush(ctx context.Context, payload CRMPushLeadPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewCRMPushLeadTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(crmPushMaxRetry),
		asynq.Retention(24*time.Hour),
	)
	return err
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

// Compile-time check that Client implements LeadDeliveryScheduler.
var _ LeadDeliveryScheduler = (*Client)(nil)
