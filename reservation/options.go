package reservation

import (
	"errors"
	"time"

	"github.com/AntonStoeckl/library-inventory/core"
	"github.com/AntonStoeckl/library-inventory/shell"
)

const (
	// DefaultMaxActiveReservations is the concurrent reservation quota per user.
	DefaultMaxActiveReservations = 3

	// DefaultReservationWindow is how long a copy is held for the user.
	DefaultReservationWindow = 3 * 24 * time.Hour
)

var (
	// ErrNilStore is returned when NewService is called without a store.
	ErrNilStore = errors.New("reservation store must not be nil")

	// ErrNilAuthority is returned when NewService is called without an authority.
	ErrNilAuthority = errors.New("authority must not be nil")

	// ErrNilCatalog is returned when NewService is called without a catalog.
	ErrNilCatalog = errors.New("catalog must not be nil")

	// ErrNonPositiveLimit is returned for non-positive quotas or windows.
	ErrNonPositiveLimit = errors.New("limit must be positive")
)

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

// WithMaxActiveReservations overrides DefaultMaxActiveReservations.
func WithMaxActiveReservations(limit int) Option {
	return func(s *Service) error {
		if limit < 1 {
			return ErrNonPositiveLimit
		}

		s.maxActiveReservations = limit

		return nil
	}
}

// WithReservationWindow overrides DefaultReservationWindow.
func WithReservationWindow(window time.Duration) Option {
	return func(s *Service) error {
		if window <= 0 {
			return ErrNonPositiveLimit
		}

		s.window = window

		return nil
	}
}

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) error {
		if clock == nil {
			return errors.New("clock must not be nil")
		}

		s.clock = clock

		return nil
	}
}

// WithIDGenerator replaces the random UUID generator for reservation IDs.
func WithIDGenerator(generator core.IDGenerator) Option {
	return func(s *Service) error {
		if generator == nil {
			return errors.New("id generator must not be nil")
		}

		s.ids = generator

		return nil
	}
}
