package rental

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-inventory/authority"
)

// Store persists the rental ledger.
//
// MarkReturned and Extend are conditional updates: they re-check the entry's status
// (and for Extend the extension flag) and report false if nothing was updated.
type Store interface {
	Insert(ctx context.Context, entry Entry) error
	CountActiveByUser(ctx context.Context, userID int64) (int, error)
	FindActive(ctx context.Context, itemID, branchID, userID int64) (Entry, error)
	MarkReturned(ctx context.Context, id uuid.UUID, returnedAt time.Time) (bool, error)
	Extend(ctx context.Context, id uuid.UUID, dueDate time.Time) (bool, error)
	ListActiveByUser(ctx context.Context, userID int64) ([]Entry, error)
	ListByUser(ctx context.Context, userID int64) ([]Entry, error)
	ListByItem(ctx context.Context, itemID int64) ([]Entry, error)
	ListActiveDueBetween(ctx context.Context, from, to time.Time) ([]Entry, error)
}

// Authority is the part of the Inventory Authority the rental ledger calls.
//
// Copy returns the current status record, which the ledger checks its requests against before writing.
type Authority interface {
	Copy(ctx context.Context, itemID, branchID int64) (authority.CopyRecord, error)
	Rent(ctx context.Context, itemID, branchID, userID int64, rentedAt, dueDate time.Time) error
	Return(ctx context.Context, itemID, branchID int64) error
	ExtendDueDate(ctx context.Context, itemID, branchID int64, days int) error
}

// DueSoon is the reminder payload for a rental that is due in a few days.
type DueSoon struct {
	EntryID  uuid.UUID `json:"entryId"`
	ItemID   int64     `json:"itemId"`
	BranchID int64     `json:"branchId"`
	UserID   int64     `json:"userId"`
	DueDate  time.Time `json:"dueDate"`
}

// ReminderNotifier delivers due-soon reminders.
type ReminderNotifier interface {
	PublishRentalDueSoon(ctx context.Context, reminder DueSoon) error
}
