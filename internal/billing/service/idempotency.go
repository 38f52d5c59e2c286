package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// idempotencyTTL bounds how long processed payment ids are remembered.
// Stripe retries webhooks for up to three days; a week leaves slack.
const idempotencyTTL = 7 * 24 * time.Hour

// IdempotencyStore remembers processed payment events so webhook retries
// never create a second order.
type IdempotencyStore struct {
	client redis.Cmdable
}

// NewIdempotencyStore creates a redis-backed idempotency store.
func NewIdempotencyStore(client redis.Cmdable) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Claim atomically marks the key as processed. It returns false when another
// delivery already claimed it.
func (s *IdempotencyStore) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, "billing:processed:"+key, time.Now().UTC().Format(time.RFC3339), idempotencyTTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim payment idempotency key: %w", err)
	}
	return ok, nil
}

// Release frees a claimed key so a failed delivery can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, "billing:processed:"+key).Err(); err != nil {
		return fmt.Errorf("release payment idempotency key: %w", err)
	}
	return nil
}
