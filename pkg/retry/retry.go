// Package retry executes operations with bounded exponential backoff.
// Only errors classified as retryable are re-attempted; caller errors
// surface immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	domainerrors "github.com/stackfolio/stackfolio_service/internal/domain/errors"
)

// ErrMaxRetriesExceeded wraps the last error after retries are exhausted
var ErrMaxRetriesExceeded = errors.New("max retries exceeded")

// Policy configures retry behavior
type Policy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         bool
	// RetryableFunc overrides the default error classification
	RetryableFunc func(error) bool
}

// Validate checks the policy
func (p Policy) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if p.InitialBackoff <= 0 {
		return fmt.Errorf("initial backoff must be positive")
	}
	if p.Multiplier < 1 {
		return fmt.Errorf("multiplier must be at least 1")
	}
	return nil
}

// DefaultPolicy retries store-unavailable failures a few times with
// exponential backoff
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2,
		Jitter:         true,
	}
}

// Retrier handles retry logic
type Retrier struct {
	policy Policy
	logger *zap.Logger
}

// NewRetrier creates a new retrier
func NewRetrier(policy Policy, logger *zap.Logger) *Retrier {
	if err := policy.Validate(); err != nil {
		panic(fmt.Sprintf("invalid retry policy: %v", err))
	}
	return &Retrier{policy: policy, logger: logger}
}

// Do executes a function with retry logic
func (r *Retrier) Do(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 0 {
				r.logger.Info("Operation succeeded after retries",
					zap.Int("attempt", attempt),
					zap.Int("max_retries", r.policy.MaxRetries))
			}
			return nil
		}

		if !r.isRetryable(lastErr) {
			r.logger.Debug("Error is not retryable",
				zap.Error(lastErr),
				zap.Int("attempt", attempt))
			return lastErr
		}

		if attempt >= r.policy.MaxRetries {
			break
		}

		backoff := r.backoff(attempt + 1)
		r.logger.Debug("Retrying operation",
			zap.Error(lastErr),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	r.logger.Warn("Max retries exceeded",
		zap.Error(lastErr),
		zap.Int("max_retries", r.policy.MaxRetries))
	return fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, lastErr)
}

func (r *Retrier) backoff(attempt int) time.Duration {
	d := float64(r.policy.InitialBackoff)
	for i := 1; i < attempt; i++ {
		d *= r.policy.Multiplier
	}
	if max := float64(r.policy.MaxBackoff); r.policy.MaxBackoff > 0 && d > max {
		d = max
	}
	if r.policy.Jitter {
		d = d/2 + rand.Float64()*d/2
	}
	return time.Duration(d)
}

// isRetryable checks if an error should be retried
func (r *Retrier) isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if r.policy.RetryableFunc != nil {
		return r.policy.RetryableFunc(err)
	}

	var domainErr *domainerrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.IsRetryable()
	}
	return errors.Is(err, domainerrors.ErrStoreUnavailable)
}

// Do is a package-level helper for one-off retries
func Do(ctx context.Context, policy Policy, logger *zap.Logger, operation func() error) error {
	return NewRetrier(policy, logger).Do(ctx, operation)
}
