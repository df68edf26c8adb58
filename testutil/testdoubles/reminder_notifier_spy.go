package testdoubles

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-inventory/rental"
)

// ReminderNotifierSpy records due-soon reminders and fails for selected entries.
type ReminderNotifierSpy struct {
	reminders []rental.DueSoon
	failFor   map[uuid.UUID]error
	mu        sync.Mutex
}

// NewReminderNotifierSpy creates a ReminderNotifierSpy that accepts every reminder.
func NewReminderNotifierSpy() *ReminderNotifierSpy {
	return &ReminderNotifierSpy{failFor: make(map[uuid.UUID]error)}
}

// FailFor makes the reminder for entryID fail with err.
func (s *ReminderNotifierSpy) FailFor(entryID uuid.UUID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failFor[entryID] = err
}

// PublishRentalDueSoon implements rental.ReminderNotifier.
func (s *ReminderNotifierSpy) PublishRentalDueSoon(_ context.Context, reminder rental.DueSoon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failFor[reminder.EntryID]; ok {
		return err
	}

	s.reminders = append(s.reminders, reminder)

	return nil
}

// Reminders returns a copy of the delivered reminders.
func (s *ReminderNotifierSpy) Reminders() []rental.DueSoon {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]rental.DueSoon(nil), s.reminders...)
}
