package crm

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// Per-host pacing for outbound CRM calls.
const (
	hostRequestsPerSecond = 5
	hostBurst             = 5
)

// hostLimiter keeps one token bucket per destination host.
type hostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newHostLimiter() *hostLimiter {
	return &hostLimiter{limiters: make(map[string]*rate.Limiter)}
}

func (l *hostLimiter) wait(ctx context.Context, rawURL string) error {
	host := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}

	l.mu.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(hostRequestsPerSecond, hostBurst)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
