package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-inventory/core"
	"github.com/AntonStoeckl/library-inventory/reservation"
)

// ReservationStore is an in-memory reservation.Store.
type ReservationStore struct {
	entries []reservation.Entry
	mu      sync.Mutex

	// BeforeResolve, if set, runs before every ResolveIfActive while the store is unlocked.
	BeforeResolve func(id uuid.UUID)
}

// NewReservationStore creates an empty ReservationStore.
func NewReservationStore() *ReservationStore {
	return &ReservationStore{}
}

// Insert implements reservation.Store.
func (s *ReservationStore) Insert(_ context.Context, entry reservation.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)

	return nil
}

// CountActiveByUser implements reservation.Store.
func (s *ReservationStore) CountActiveByUser(ctx context.Context, userID int64) (int, error) {
	active, _ := s.ListActiveByUser(ctx, userID)

	return len(active), nil
}

// Find implements reservation.Store.
func (s *ReservationStore) Find(_ context.Context, id uuid.UUID) (reservation.Entry, error) {
	found := s.filter(func(e reservation.Entry) bool { return e.ID == id })
	if len(found) == 0 {
		return reservation.Entry{}, fmt.Errorf("%w: reservation %s", core.ErrNotFound, id)
	}

	return found[0], nil
}

// FindActive implements reservation.Store.
func (s *ReservationStore) FindActive(_ context.Context, itemID, branchID, userID int64) (reservation.Entry, error) {
	found := s.filter(func(e reservation.Entry) bool {
		return e.ItemID == itemID && e.BranchID == branchID && e.UserID == userID && e.Status == reservation.StatusActive
	})
	if len(found) == 0 {
		return reservation.Entry{}, fmt.Errorf("%w: no active reservation of item %d at branch %d for user %d",
			core.ErrNotFound, itemID, branchID, userID)
	}

	return found[0], nil
}

// ResolveIfActive implements reservation.Store.
func (s *ReservationStore) ResolveIfActive(
	_ context.Context,
	id uuid.UUID,
	status reservation.Status,
	resolvedAt time.Time,
) (bool, error) {

	if s.BeforeResolve != nil {
		s.BeforeResolve(id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID != id {
			continue
		}

		if s.entries[i].Status != reservation.StatusActive {
			return false, nil
		}

		s.entries[i].Status = status
		s.entries[i].ResolvedAt = &resolvedAt

		return true, nil
	}

	return false, nil
}

// ListActiveByUser implements reservation.Store.
func (s *ReservationStore) ListActiveByUser(_ context.Context, userID int64) ([]reservation.Entry, error) {
	return s.filter(func(e reservation.Entry) bool {
		return e.UserID == userID && e.Status == reservation.StatusActive
	}), nil
}

// ListExpired implements reservation.Store.
func (s *ReservationStore) ListExpired(_ context.Context, now time.Time) ([]reservation.Entry, error) {
	return s.filter(func(e reservation.Entry) bool {
		return e.Status == reservation.StatusActive && e.ExpiresAt.Before(now)
	}), nil
}

// All returns a copy of all entries in insertion order.
func (s *ReservationStore) All() []reservation.Entry {
	return s.filter(func(reservation.Entry) bool { return true })
}

func (s *ReservationStore) filter(match func(reservation.Entry) bool) []reservation.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]reservation.Entry, 0)
	for _, e := range s.entries {
		if match(e) {
			found = append(found, e)
		}
	}

	return found
}

var _ reservation.Store = (*ReservationStore)(nil)
