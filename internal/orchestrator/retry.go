package orchestrator

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/lyricsense-go/internal/constants"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

// RetryPolicy retries unavailable and rate_limited provider failures with
// exponential backoff plus random jitter.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: constants.RetryConfig.MaxAttempts,
		BaseDelay:   constants.RetryConfig.BaseDelay,
		Jitter:      constants.RetryConfig.Jitter,
	}
}

// Delay returns the wait before retry number attempt (0-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := p.BaseDelay << attempt
	if p.Jitter > 0 {
		delay += time.Duration(rand.Int64N(int64(p.Jitter)))
	}
	return delay
}

func shouldRetry(err error) bool {
	pe, ok := errors.AsProviderError(err)
	return ok && pe.Kind.Retryable()
}

// callWithRetry runs fn with a fresh per-attempt timeout and retries retryable
// provider failures. Cancellation of ctx stops the loop and returns the last error.
func callWithRetry[T any](ctx context.Context, o *Orchestrator, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		result T
		err    error
	)

	for attempt := 0; attempt < o.opts.Retry.MaxAttempts; attempt++ {
		result, err = callOnce(ctx, o.opts.CallTimeout, fn)
		if err == nil || !shouldRetry(err) || attempt == o.opts.Retry.MaxAttempts-1 {
			return result, err
		}

		delay := o.opts.Retry.Delay(attempt)
		o.metrics.ObserveRetry(operation)
		o.logger.Warn("Retrying provider call",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, err
		case <-timer.C:
		}
	}

	return result, err
}

// callOnce runs fn under a bounded per-call timeout.
func callOnce[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(callCtx)
}
