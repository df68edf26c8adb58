package authority

import (
	"errors"
	"time"

	"github.com/AntonStoeckl/library-inventory/shell"
)

// ErrNilCopyStore is returned when NewService is called without a store.
var ErrNilCopyStore = errors.New("copy store must not be nil")

// ErrNilClock is returned when WithClock is called with nil.
var ErrNilClock = errors.New("clock must not be nil")

// Option defines a functional option for configuring the Service.
type Option func(*Service) error

// WithLogger sets the logger for the Service.
func WithLogger(logger shell.Logger) Option {
	return func(s *Service) error {
		s.obs.Logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Service.
// It takes precedence over the plain logger.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(s *Service) error {
		s.obs.ContextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Service.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(s *Service) error {
		s.obs.Metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Service.
func WithTracing(collector shell.TracingCollector) Option {
	return func(s *Service) error {
		s.obs.Tracing = collector
		return nil
	}
}

// WithStatusPublisher sets the publisher notified after every status change.
func WithStatusPublisher(publisher StatusPublisher) Option {
	return func(s *Service) error {
		s.publisher = publisher
		return nil
	}
}

// WithRetryOptions sets a custom retry configuration for concurrency conflicts.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(s *Service) error {
		s.retryOptions = opts
		return nil
	}
}

// WithClock replaces time.Now, e.g. with a fixed clock in tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) error {
		if clock == nil {
			return ErrNilClock
		}

		s.clock = clock

		return nil
	}
}
