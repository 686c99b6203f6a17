// Package retry runs an operation with capped exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"go.uber.org/zap"
)

// Config controls attempts and backoff. MaxRetries counts retries after the first attempt.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Jitter spreads each delay by up to 25% either way
	Jitter bool
	// RetryableErrors decides whether a failed attempt is repeated, IsRetryable when nil
	RetryableErrors func(error) bool
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		Multiplier:      2.0,
		Jitter:          true,
		RetryableErrors: IsRetryable,
	}
}

// EventSinkConfig is used for event log inserts and pub/sub publishes
func EventSinkConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialDelay = 200 * time.Millisecond
	cfg.MaxDelay = 3 * time.Second
	return cfg
}

// WebhookConfig is used for session trigger calls and metadata uploads
func WebhookConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialDelay = 500 * time.Millisecond
	cfg.MaxDelay = 10 * time.Second
	return cfg
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// delayHinter is implemented by errors that know when the remote side accepts a retry,
// such as an HTTP 429 carrying Retry-After
type delayHinter interface {
	RetryAfter() time.Duration
}

// Do runs fn until it succeeds, returns a non-retryable error, or attempts run out
func Do(ctx context.Context, cfg Config, operation string, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, operation, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult is Do for operations that produce a value
func DoWithResult[T any](ctx context.Context, cfg Config, operation string, fn func() (T, error)) (T, error) {
	var zero T
	retryable := cfg.RetryableErrors
	if retryable == nil {
		retryable = IsRetryable
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		res, err := fn()
		if err == nil {
			if attempt > 0 {
				logger.Info("Operation succeeded after retry",
					zap.String("operation", operation),
					zap.Int("attempt", attempt))
			}
			return res, nil
		}
		lastErr = err

		if !retryable(err) {
			logger.Warn("Non-retryable error encountered",
				zap.String("operation", operation),
				zap.Error(err))
			return zero, err
		}
		if attempt == cfg.MaxRetries {
			break
		}

		delay := nextDelay(attempt, cfg, err)
		logger.Warn("Operation failed, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", cfg.MaxRetries),
			zap.Duration("delay", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	logger.Error("Operation failed after all retries",
		zap.String("operation", operation),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Error(lastErr))

	return zero, fmt.Errorf("operation failed after %d retries: %w", cfg.MaxRetries, lastErr)
}

// nextDelay prefers a hint from the error, capped at MaxDelay
func nextDelay(attempt int, cfg Config, err error) time.Duration {
	var hint delayHinter
	if errors.As(err, &hint) {
		if d := hint.RetryAfter(); d > 0 {
			return min(d, cfg.MaxDelay)
		}
	}
	return calculateDelay(attempt, cfg)
}

// calculateDelay is InitialDelay * Multiplier^attempt, capped at MaxDelay
func calculateDelay(attempt int, cfg Config) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	if cfg.Jitter {
		spread := delay * 0.25
		//nolint:gosec // G404: jitter does not need crypto/rand
		delay += rand.Float64()*2*spread - spread
	}

	return time.Duration(delay)
}

// IsRetryable treats every error as transient except context errors and Permanent ones
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var p *permanentError
	return !errors.As(err, &p)
}
