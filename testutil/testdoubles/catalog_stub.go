package testdoubles

import (
	"context"
	"fmt"
	"sync"

	"github.com/AntonStoeckl/library-inventory/catalog"
	"github.com/AntonStoeckl/library-inventory/core"
)

// CatalogStub is an in-memory catalog.Client that counts its calls.
type CatalogStub struct {
	items      map[int64]catalog.ItemInfo
	err        error
	itemCalls  int
	itemsCalls int
	mu         sync.Mutex
}

// NewCatalogStub creates a CatalogStub that knows items.
func NewCatalogStub(items ...catalog.ItemInfo) *CatalogStub {
	stub := &CatalogStub{items: make(map[int64]catalog.ItemInfo, len(items))}
	for _, item := range items {
		stub.items[item.ID] = item
	}

	return stub
}

// FailWith makes every following lookup return err.
func (s *CatalogStub) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
}

// Item implements catalog.Client.
func (s *CatalogStub) Item(_ context.Context, itemID int64) (catalog.ItemInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.itemCalls++

	if s.err != nil {
		return catalog.ItemInfo{}, s.err
	}

	item, ok := s.items[itemID]
	if !ok {
		return catalog.ItemInfo{}, fmt.Errorf("%w: catalog item %d", core.ErrNotFound, itemID)
	}

	return item, nil
}

// Items implements catalog.Client.
func (s *CatalogStub) Items(_ context.Context, itemIDs []int64) (map[int64]catalog.ItemInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.itemsCalls++

	if s.err != nil {
		return nil, s.err
	}

	found := make(map[int64]catalog.ItemInfo, len(itemIDs))
	for _, id := range itemIDs {
		if item, ok := s.items[id]; ok {
			found[id] = item
		}
	}

	return found, nil
}

// Calls returns how often Item and Items were called.
func (s *CatalogStub) Calls() (itemCalls, itemsCalls int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.itemCalls, s.itemsCalls
}
