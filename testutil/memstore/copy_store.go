package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/AntonStoeckl/library-inventory/authority"
	"github.com/AntonStoeckl/library-inventory/core"
)

// CopyStore is an in-memory authority.CopyStore.
type CopyStore struct {
	records map[authority.CopyKey]authority.CopyRecord
	mu      sync.Mutex

	// BeforeSave, if set, runs before every Save while the store is unlocked.
	// Tests use it to interleave a competing writer.
	BeforeSave func(record authority.CopyRecord)
}

// NewCopyStore creates an empty CopyStore.
func NewCopyStore() *CopyStore {
	return &CopyStore{records: make(map[authority.CopyKey]authority.CopyRecord)}
}

// Load implements authority.CopyStore.
func (s *CopyStore) Load(_ context.Context, key authority.CopyKey) (authority.CopyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return authority.CopyRecord{}, fmt.Errorf("%w: copy %s", core.ErrNotFound, key)
	}

	return record, nil
}

// Save implements authority.CopyStore.
func (s *CopyStore) Save(_ context.Context, record authority.CopyRecord, expectedVersion int64) error {
	if s.BeforeSave != nil {
		s.BeforeSave(record)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[record.CopyKey]
	if !ok {
		return fmt.Errorf("%w: copy %s", core.ErrNotFound, record.CopyKey)
	}

	if stored.Version != expectedVersion {
		return core.ErrConcurrencyConflict
	}

	record.Version = expectedVersion + 1
	s.records[record.CopyKey] = record

	return nil
}

// Insert implements authority.CopyStore.
func (s *CopyStore) Insert(_ context.Context, record authority.CopyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.CopyKey]; ok {
		return authority.ErrAlreadyStocked
	}

	s.records[record.CopyKey] = record

	return nil
}

// ListByItem implements authority.CopyStore.
func (s *CopyStore) ListByItem(_ context.Context, itemID int64) ([]authority.CopyRecord, error) {
	return s.filter(func(r authority.CopyRecord) bool { return r.ItemID == itemID }), nil
}

// ListRentedByUser implements authority.CopyStore.
func (s *CopyStore) ListRentedByUser(_ context.Context, userID int64) ([]authority.CopyRecord, error) {
	return s.filter(func(r authority.CopyRecord) bool {
		return r.Status == authority.StatusRented && r.RentedByUserID != nil && *r.RentedByUserID == userID
	}), nil
}

// Put overwrites a record unconditionally, for arranging test state.
func (s *CopyStore) Put(record authority.CopyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.CopyKey] = record
}

func (s *CopyStore) filter(match func(authority.CopyRecord) bool) []authority.CopyRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]authority.CopyRecord, 0)
	for _, record := range s.records {
		if match(record) {
			found = append(found, record)
		}
	}

	return found
}

var _ authority.CopyStore = (*CopyStore)(nil)
