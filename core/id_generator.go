package core

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces identifiers for new ledger entries.
type IDGenerator interface {
	NewID() uuid.UUID
}

// UUIDGenerator generates random (version 4) UUIDs.
type UUIDGenerator struct{}

// NewID returns a random UUID.
func (UUIDGenerator) NewID() uuid.UUID {
	return uuid.New()
}

// SequenceIDGenerator generates predictable UUIDs 00000000-0000-0000-0000-000000000001, ...002, and so on.
type SequenceIDGenerator struct {
	mu   sync.Mutex
	next uint64
}

// NewSequenceIDGenerator returns a generator that starts at 1.
func NewSequenceIDGenerator() *SequenceIDGenerator {
	return &SequenceIDGenerator{next: 1}
}

// NewID returns the next UUID in the sequence.
func (g *SequenceIDGenerator) NewID() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", g.next))
	g.next++

	return id
}
