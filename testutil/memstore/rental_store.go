package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-inventory/core"
	"github.com/AntonStoeckl/library-inventory/rental"
)

// RentalStore is an in-memory rental.Store.
type RentalStore struct {
	entries []rental.Entry
	mu      sync.Mutex
}

// NewRentalStore creates an empty RentalStore.
func NewRentalStore() *RentalStore {
	return &RentalStore{}
}

// Insert implements rental.Store.
func (s *RentalStore) Insert(_ context.Context, entry rental.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)

	return nil
}

// CountActiveByUser implements rental.Store.
func (s *RentalStore) CountActiveByUser(ctx context.Context, userID int64) (int, error) {
	active, _ := s.ListActiveByUser(ctx, userID)

	return len(active), nil
}

// FindActive implements rental.Store. It returns userID's most recent active entry of the copy.
func (s *RentalStore) FindActive(_ context.Context, itemID, branchID, userID int64) (rental.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.ItemID == itemID && e.BranchID == branchID && e.UserID == userID && e.IsActive() {
			return e, nil
		}
	}

	return rental.Entry{}, fmt.Errorf("%w: no active rental of item %d at branch %d by user %d",
		core.ErrNotFound, itemID, branchID, userID)
}

// MarkReturned implements rental.Store.
func (s *RentalStore) MarkReturned(_ context.Context, id uuid.UUID, returnedAt time.Time) (bool, error) {
	return s.update(id, func(e *rental.Entry) bool {
		if !e.IsActive() {
			return false
		}

		e.Status = rental.StatusReturned
		e.ReturnedAt = &returnedAt

		return true
	}), nil
}

// Extend implements rental.Store.
func (s *RentalStore) Extend(_ context.Context, id uuid.UUID, dueDate time.Time) (bool, error) {
	return s.update(id, func(e *rental.Entry) bool {
		if !e.IsActive() || e.IsExtended {
			return false
		}

		e.DueDate = dueDate
		e.IsExtended = true

		return true
	}), nil
}

// ListActiveByUser implements rental.Store.
func (s *RentalStore) ListActiveByUser(_ context.Context, userID int64) ([]rental.Entry, error) {
	return s.filter(func(e rental.Entry) bool { return e.UserID == userID && e.IsActive() }), nil
}

// ListByUser implements rental.Store.
func (s *RentalStore) ListByUser(_ context.Context, userID int64) ([]rental.Entry, error) {
	return s.filter(func(e rental.Entry) bool { return e.UserID == userID }), nil
}

// ListByItem implements rental.Store.
func (s *RentalStore) ListByItem(_ context.Context, itemID int64) ([]rental.Entry, error) {
	return s.filter(func(e rental.Entry) bool { return e.ItemID == itemID }), nil
}

// ListActiveDueBetween implements rental.Store.
func (s *RentalStore) ListActiveDueBetween(_ context.Context, from, to time.Time) ([]rental.Entry, error) {
	return s.filter(func(e rental.Entry) bool {
		return e.IsActive() && !e.DueDate.Before(from) && e.DueDate.Before(to)
	}), nil
}

// All returns a copy of all entries in insertion order.
func (s *RentalStore) All() []rental.Entry {
	return s.filter(func(rental.Entry) bool { return true })
}

func (s *RentalStore) update(id uuid.UUID, apply func(e *rental.Entry) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			return apply(&s.entries[i])
		}
	}

	return false
}

func (s *RentalStore) filter(match func(rental.Entry) bool) []rental.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]rental.Entry, 0)
	for _, e := range s.entries {
		if match(e) {
			found = append(found, e)
		}
	}

	return found
}

var _ rental.Store = (*RentalStore)(nil)
