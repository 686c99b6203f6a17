package circuitbreaker

import (
	"errors"
	"fmt"
	"time"

	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"github.com/getmentor/getmentor-escrow/pkg/metrics"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Config holds circuit breaker configuration
type Config struct {
	Name            string
	MaxRequests     uint32        // Max requests allowed in half-open state
	Interval        time.Duration // Interval for resetting failure counts
	Timeout         time.Duration // Duration of open state before trying again
	MinRequests     uint32        // Requests observed before the failure ratio is considered
	MaxFailureRatio float64
}

// SinkConfig returns the breaker settings used for event sinks
func SinkConfig(name string) Config {
	return Config{
		Name:            name,
		MaxRequests:     1,
		Interval:        60 * time.Second,
		Timeout:         30 * time.Second,
		MinRequests:     3,
		MaxFailureRatio: 0.6,
	}
}

// New creates a circuit breaker that reports its state through logs and metrics
func New(cfg Config) *gobreaker.CircuitBreaker {
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(stateValue(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.MaxFailureRatio
		},
		OnStateChange: onStateChange,
	})
}

func onStateChange(name string, from, to gobreaker.State) {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))

	fields := []zap.Field{
		zap.String("breaker", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	}
	if to == gobreaker.StateOpen {
		logger.Warn("Circuit breaker opened", fields...)
		return
	}
	logger.Info("Circuit breaker state changed", fields...)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Run calls fn through cb
func Run(cb *gobreaker.CircuitBreaker, fn func() error) error {
	_, err := cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// IsRejected reports whether err came from the breaker itself rather than the wrapped call
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// IsCircuitOpen checks if the circuit breaker is in open state
func IsCircuitOpen(cb *gobreaker.CircuitBreaker) bool {
	return cb.State() == gobreaker.StateOpen
}

// FormatError wraps the error with circuit breaker information
func FormatError(breakerName string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) {
		return fmt.Errorf("circuit breaker '%s' is open: %w", breakerName, err)
	}
	if errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("circuit breaker '%s' has too many requests: %w", breakerName, err)
	}
	return err
}
