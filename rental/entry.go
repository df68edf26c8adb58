package rental

import (
	"time"

	"github.com/google/uuid"
)

// Status is the state of a rental ledger entry.
type Status string

// The rental ledger statuses. RETURNED is terminal.
const (
	StatusRented   Status = "RENTED"
	StatusReturned Status = "RETURNED"
)

// Entry is one row of the rental ledger.
type Entry struct {
	ID         uuid.UUID  `json:"id"`
	ItemID     int64      `json:"itemId"`
	UserID     int64      `json:"userId"`
	BranchID   int64      `json:"branchId"`
	RentedAt   time.Time  `json:"rentedAt"`
	DueDate    time.Time  `json:"dueDate"`
	ReturnedAt *time.Time `json:"returnedAt,omitempty"`
	IsExtended bool       `json:"isExtended"`
	Status     Status     `json:"status"`
}

// IsActive reports whether the copy is still out.
func (e Entry) IsActive() bool {
	return e.Status == StatusRented
}

// HistoryEntry is a ledger entry enriched with catalog metadata for display.
type HistoryEntry struct {
	Entry
	Title    string `json:"title,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}
