package throttle

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk479o000/twitter-crawler-app/internal/domain"
)

// fastOpts keeps pacing out of the way so tests exercise the retry policy.
var fastOpts = Options{
	RequestsPerMinute: 600000,
	MaxRetries:        5,
	BaseDelay:         time.Millisecond,
	MaxDelay:          8 * time.Millisecond,
}

func TestDelay_CappedExponentialSchedule(t *testing.T) {
	th := New(Options{
		RequestsPerMinute: 30,
		MaxRetries:        10,
		BaseDelay:         1500 * time.Millisecond,
		MaxDelay:          60 * time.Second,
	}, clockwork.NewRealClock())

	want := []time.Duration{
		1500 * time.Millisecond,
		3 * time.Second,
		6 * time.Second,
		12 * time.Second,
		24 * time.Second,
		48 * time.Second,
		60 * time.Second,
		60 * time.Second,
		60 * time.Second,
	}
	for i, d := range want {
		assert.Equal(t, d, th.Delay(i+1), "attempt %d", i+1)
	}
}

func TestDo_SuccessFirstAttempt(t *testing.T) {
	th := New(fastOpts, clockwork.NewRealClock())

	calls := 0
	err := th.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	th := New(fastOpts, clockwork.NewRealClock())

	calls := 0
	err := th.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &domain.UpstreamError{StatusCode: 503}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_NonRetryablePropagatesImmediately(t *testing.T) {
	th := New(fastOpts, clockwork.NewRealClock())

	calls := 0
	err := th.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &domain.UpstreamError{StatusCode: 401}
	})

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 401, upstream.StatusCode)
	assert.Equal(t, 1, calls, "non-retryable failures must not consume retry slots")
}

func TestDo_ExhaustionWrapsLastError(t *testing.T) {
	th := New(fastOpts, clockwork.NewRealClock())

	calls := 0
	err := th.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &domain.UpstreamError{StatusCode: 429}
	})

	var exhausted *domain.RateLimitExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, fastOpts.MaxRetries, exhausted.Attempts)
	assert.Equal(t, fastOpts.MaxRetries, calls, "no call may follow the final failure")

	var upstream *domain.UpstreamError
	require.ErrorAs(t, exhausted.Last, &upstream)
	assert.Equal(t, 429, upstream.StatusCode)
}

func TestDo_CancelDuringBackoff(t *testing.T) {
	clock := clockwork.NewFakeClock()
	th := New(Options{
		RequestsPerMinute: 600000,
		MaxRetries:        3,
		BaseDelay:         10 * time.Second,
		MaxDelay:          60 * time.Second,
	}, clock)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- th.Do(ctx, func(ctx context.Context) error {
			return &domain.UpstreamError{StatusCode: 503}
		})
	}()

	// First attempt fails, throttle parks in its 10s backoff sleep.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryable(t *testing.T) {
	score := func(err error) bool { return Retryable(err) }

	assert.False(t, score(nil))
	assert.True(t, score(&domain.UpstreamError{StatusCode: 429}))
	assert.True(t, score(&domain.UpstreamError{StatusCode: 500}))
	assert.True(t, score(&domain.UpstreamError{StatusCode: 599}))
	assert.False(t, score(&domain.UpstreamError{StatusCode: 404}))
	assert.False(t, score(&domain.UpstreamError{StatusCode: 403}))
	assert.False(t, score(&domain.MalformedResponseError{Err: errors.New("bad json")}))
	assert.True(t, score(context.DeadlineExceeded))

	var netErr net.Error = timeoutErr{}
	assert.True(t, score(netErr))
}

func TestOptions_Defaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, 30, opts.RequestsPerMinute)
	assert.Equal(t, 5, opts.MaxRetries)
	assert.Equal(t, 1500*time.Millisecond, opts.BaseDelay)
	assert.Equal(t, 60*time.Second, opts.MaxDelay)
}
