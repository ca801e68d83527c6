// Package retry runs an operation with bounded exponential backoff.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// Config defines retry behavior. MaxRetries counts retries after the first
// attempt, so an operation runs at most MaxRetries+1 times.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultConfig returns the settings used for bulk writes
func DefaultConfig() Config {
	return Config{
		MaxRetries:   2,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// Permanent wraps err so WithBackoff stops retrying immediately
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// WithBackoff executes fn until it succeeds, returns a permanent error, the
// retries are exhausted or ctx is done.
func WithBackoff(ctx context.Context, cfg Config, logger *logrus.Logger, operation string, fn func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.InitialDelay
	eb.MaxInterval = cfg.MaxDelay
	if cfg.Multiplier > 0 {
		eb.Multiplier = cfg.Multiplier
	}
	eb.MaxElapsedTime = 0

	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)

	attempts := 0
	op := func() error {
		attempts++
		return fn()
	}
	notify := func(err error, next time.Duration) {
		logger.WithFields(logrus.Fields{
			"operation":   operation,
			"attempt":     attempts,
			"max_retries": retries,
			"retry_in":    next,
		}).WithError(err).Warn("Operation failed, retrying")
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("retry cancelled: %w", ctxErr)
		}
		return fmt.Errorf("%s failed after %d attempts: %w", operation, attempts, err)
	}

	if attempts > 1 {
		logger.WithFields(logrus.Fields{
			"operation": operation,
			"attempts":  attempts,
		}).Info("Operation succeeded after retries")
	}
	return nil
}
