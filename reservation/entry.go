package reservation

import (
	"time"

	"github.com/google/uuid"
)

// Status is the state of a reservation ledger entry.
type Status string

// The reservation statuses. All but ACTIVE are terminal.
const (
	StatusActive    Status = "ACTIVE"
	StatusFulfilled Status = "FULFILLED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal reports whether s can no longer change.
func (s Status) IsTerminal() bool {
	return s != StatusActive
}

// Entry is one row of the reservation ledger.
type Entry struct {
	ID         uuid.UUID  `json:"id"`
	ItemID     int64      `json:"itemId"`
	UserID     int64      `json:"userId"`
	BranchID   int64      `json:"branchId"`
	ReservedAt time.Time  `json:"reservedAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	Status     Status     `json:"status"`
}

// View is an entry enriched with catalog metadata for display.
type View struct {
	Entry
	Title    string `json:"title,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}
