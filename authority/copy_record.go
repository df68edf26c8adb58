package authority

import (
	"fmt"
	"strconv"
	"time"
)

// Status is the lending status of a copy.
type Status string

// The lending statuses. AVAILABLE is the initial status, there is no terminal status.
const (
	StatusAvailable Status = "AVAILABLE"
	StatusReserved  Status = "RESERVED"
	StatusRented    Status = "RENTED"
)

// ParseStatus validates a status code.
func ParseStatus(code string) (Status, error) {
	switch Status(code) {
	case StatusAvailable, StatusReserved, StatusRented:
		return Status(code), nil
	default:
		return "", fmt.Errorf("unknown copy status %q", code)
	}
}

// CopyKey identifies a copy: one catalog item stocked at one branch.
type CopyKey struct {
	ItemID   int64 `json:"itemId"`
	BranchID int64 `json:"branchId"`
}

// String renders the key as "item:branch".
func (k CopyKey) String() string {
	return strconv.FormatInt(k.ItemID, 10) + ":" + strconv.FormatInt(k.BranchID, 10)
}

// CopyRecord is the authoritative status of a copy.
//
// The rental fields are set if and only if Status is RENTED,
// the reservation fields are set if and only if Status is RESERVED.
type CopyRecord struct {
	CopyKey
	Status               Status     `json:"status"`
	RentedByUserID       *int64     `json:"rentedByUserId,omitempty"`
	RentedAt             *time.Time `json:"rentedAt,omitempty"`
	DueDate              *time.Time `json:"dueDate,omitempty"`
	RentExtended         bool       `json:"rentExtended"`
	ReservedByUserID     *int64     `json:"reservedByUserId,omitempty"`
	ReservedAt           *time.Time `json:"reservedAt,omitempty"`
	ReservationExpiresAt *time.Time `json:"reservationExpiresAt,omitempty"`
	Version              int64      `json:"version"`
}

// NewAvailableCopy creates the record for a freshly stocked copy.
func NewAvailableCopy(itemID, branchID int64) CopyRecord {
	return CopyRecord{
		CopyKey: CopyKey{ItemID: itemID, BranchID: branchID},
		Status:  StatusAvailable,
	}
}

// IsAvailable reports whether the copy can be rented or reserved by anyone.
func (r CopyRecord) IsAvailable() bool {
	return r.Status == StatusAvailable
}

// IsReservedBy reports whether the copy is reserved by userID.
func (r CopyRecord) IsReservedBy(userID int64) bool {
	return r.Status == StatusReserved && r.ReservedByUserID != nil && *r.ReservedByUserID == userID
}

// IsConsistent checks that the field sets match the status.
func (r CopyRecord) IsConsistent() bool {
	rentalSet := r.RentedByUserID != nil || r.RentedAt != nil || r.DueDate != nil || r.RentExtended
	reservationSet := r.ReservedByUserID != nil || r.ReservedAt != nil || r.ReservationExpiresAt != nil

	switch r.Status {
	case StatusAvailable:
		return !rentalSet && !reservationSet
	case StatusReserved:
		return !rentalSet && r.ReservedByUserID != nil && r.ReservedAt != nil && r.ReservationExpiresAt != nil
	case StatusRented:
		return !reservationSet && r.RentedByUserID != nil && r.RentedAt != nil && r.DueDate != nil
	default:
		return false
	}
}

func (r CopyRecord) withoutRental() CopyRecord {
	r.RentedByUserID = nil
	r.RentedAt = nil
	r.DueDate = nil
	r.RentExtended = false

	return r
}

func (r CopyRecord) withoutReservation() CopyRecord {
	r.ReservedByUserID = nil
	r.ReservedAt = nil
	r.ReservationExpiresAt = nil

	return r
}

func ptr[T any](v T) *T {
	return &v
}
