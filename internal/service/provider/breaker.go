package provider

import (
	stderrors "errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/kapu/lyricsense-go/internal/constants"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

// Breaker guards one upstream provider. Only retryable failures (outages, rate
// limits) count against it.
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(name string, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: constants.CircuitBreakerConfig.HalfOpenRequests,
		Interval:    constants.CircuitBreakerConfig.CountInterval,
		Timeout:     constants.CircuitBreakerConfig.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(constants.CircuitBreakerConfig.FailureThreshold)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			pe, ok := errors.AsProviderError(err)
			return ok && !pe.Kind.Retryable()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Provider circuit state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Breaker{name: name, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn unless the circuit is open, in which case it fails fast with an
// unavailable ProviderError.
func (b *Breaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.NewProviderError(errors.KindUnavailable, b.name, "circuit open").WithCause(err)
	}
	return err
}

// State reports "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}
