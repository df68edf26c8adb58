package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-inventory/authority"
)

// Store persists the reservation ledger.
//
// ResolveIfActive sets a terminal status only if the entry is still ACTIVE at update time,
// and reports whether it did.
type Store interface {
	Insert(ctx context.Context, entry Entry) error
	CountActiveByUser(ctx context.Context, userID int64) (int, error)
	Find(ctx context.Context, id uuid.UUID) (Entry, error)
	FindActive(ctx context.Context, itemID, branchID, userID int64) (Entry, error)
	ResolveIfActive(ctx context.Context, id uuid.UUID, status Status, resolvedAt time.Time) (bool, error)
	ListActiveByUser(ctx context.Context, userID int64) ([]Entry, error)
	ListExpired(ctx context.Context, now time.Time) ([]Entry, error)
}

// Authority is the part of the Inventory Authority the reservation ledger calls.
//
// Copy returns the current status record, which the ledger checks its requests against before writing.
type Authority interface {
	Copy(ctx context.Context, itemID, branchID int64) (authority.CopyRecord, error)
	Reserve(ctx context.Context, itemID, branchID, userID int64, reservedAt, expiresAt time.Time) error
	CancelReservation(ctx context.Context, itemID, branchID int64) error
	ForceAvailable(ctx context.Context, itemID, branchID int64) error
}
