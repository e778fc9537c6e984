// Package throttle paces calls to the external API and retries transient
// failures with capped exponential backoff. The pacing budget is global:
// one Throttle instance is shared by every caller in a run.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/lk479o000/twitter-crawler-app/internal/domain"
	"github.com/lk479o000/twitter-crawler-app/internal/metrics"
)

// Options configure pacing and retry behavior for one run. Immutable after
// construction.
type Options struct {
	RequestsPerMinute int
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
}

func (o Options) withDefaults() Options {
	if o.RequestsPerMinute <= 0 {
		o.RequestsPerMinute = 30
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 5
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 1500 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 60 * time.Second
	}
	return o
}

// Throttle combines request pacing with a retry policy. Safe for concurrent
// use: the limiter carries the only shared state and guards it internally.
type Throttle struct {
	opts    Options
	limiter *rate.Limiter
	clock   clockwork.Clock
}

// New creates a throttle. The clock is injected so tests can drive backoff
// sleeps with a fake clock.
func New(opts Options, clock clockwork.Clock) *Throttle {
	opts = opts.withDefaults()
	perSecond := rate.Limit(float64(opts.RequestsPerMinute) / 60.0)
	return &Throttle{
		opts:    opts,
		limiter: rate.NewLimiter(perSecond, 1),
		clock:   clock,
	}
}

// Delay returns the backoff before retrying after the k-th failed attempt
// (1-indexed): min(base * 2^(k-1), max).
func (t *Throttle) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := t.opts.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= t.opts.MaxDelay {
			return t.opts.MaxDelay
		}
	}
	if d > t.opts.MaxDelay {
		return t.opts.MaxDelay
	}
	return d
}

// Do executes op under the pacing and retry policy. Retryable failures
// (HTTP 429, 5xx, transient network errors) are retried up to MaxRetries
// attempts; anything else propagates immediately. When the budget is spent
// a *domain.RateLimitExhaustedError carrying the last error is returned
// without issuing another call.
func (t *Throttle) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= t.opts.MaxRetries; attempt++ {
		waitStart := t.clock.Now()
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("throttle wait: %w", err)
		}
		metrics.ThrottleWaitSeconds.Observe(t.clock.Since(waitStart).Seconds())

		err := op(ctx)
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return err
		}
		lastErr = err

		if attempt == t.opts.MaxRetries {
			break
		}

		metrics.RetriesTotal.Inc()
		select {
		case <-t.clock.After(t.Delay(attempt)):
		case <-ctx.Done():
			return fmt.Errorf("throttle backoff: %w", ctx.Err())
		}
	}

	return &domain.RateLimitExhaustedError{Attempts: t.opts.MaxRetries, Last: lastErr}
}

// Retryable reports whether the throttle may retry after err: rate-limit
// and server-side upstream responses, timeouts, and transient network
// errors. Malformed responses and other client errors are permanent.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var malformed *domain.MalformedResponseError
	if errors.As(err, &malformed) {
		return false
	}

	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Retryable()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout() || netErr.Temporary()
	}

	return false
}
