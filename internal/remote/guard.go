package remote

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// guard wraps a round trip with retry and circuit breaking. Both layers are
// optional; a zero guard runs the operation once.
type guard struct {
	breaker circuitbreaker.CircuitBreaker[*response]
	retrier retry.Retry[*response]
}

func newGuard(cfg Config) *guard {
	g := &guard{}
	if cfg.Breaker {
		g.breaker = circuitbreaker.New[*response](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     20 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				if cfg.OnBreakerChange != nil {
					cfg.OnBreakerChange(from.String(), to.String())
				}
			},
		})
	}
	if cfg.Retries > 0 {
		g.retrier = retry.New[*response](retry.Config{
			MaxAttempts:   cfg.Retries + 1,
			InitialDelay:  400 * time.Millisecond,
			MaxDelay:      5 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryable,
		})
	}
	return g
}

func (g *guard) run(ctx context.Context, op func(context.Context) (*response, error)) (*response, error) {
	attempt := op
	if g.retrier != nil {
		attempt = func(ctx context.Context) (*response, error) {
			return g.retrier.Do(ctx, op)
		}
	}
	if g.breaker != nil {
		return g.breaker.Execute(ctx, attempt)
	}
	return attempt(ctx)
}

func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.StatusCode)
	}
	return true
}
