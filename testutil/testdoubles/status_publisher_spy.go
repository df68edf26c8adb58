package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/library-inventory/authority"
)

// StatusPublisherSpy records published copy status changes and can be told to fail.
type StatusPublisherSpy struct {
	events []authority.CopyStatusChanged
	err    error
	mu     sync.Mutex
}

// NewStatusPublisherSpy creates a StatusPublisherSpy that accepts every event.
func NewStatusPublisherSpy() *StatusPublisherSpy {
	return &StatusPublisherSpy{}
}

// FailWith makes every following publish return err.
func (s *StatusPublisherSpy) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
}

// PublishCopyStatusChanged implements authority.StatusPublisher.
func (s *StatusPublisherSpy) PublishCopyStatusChanged(_ context.Context, event authority.CopyStatusChanged) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	s.events = append(s.events, event)

	return nil
}

// Events returns a copy of the published events.
func (s *StatusPublisherSpy) Events() []authority.CopyStatusChanged {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]authority.CopyStatusChanged(nil), s.events...)
}
