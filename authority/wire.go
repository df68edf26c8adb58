package authority

import (
	"time"
)

// RentRequest is the body of PUT /internal/copies/{item}/{branch}/rent.
type RentRequest struct {
	UserID   int64     `json:"userId" validate:"required,gt=0"`
	RentedAt time.Time `json:"rentedAt" validate:"required"`
	DueDate  time.Time `json:"dueDate" validate:"required,gtfield=RentedAt"`
}

// ReserveRequest is the body of PUT /internal/copies/{item}/{branch}/reserve.
type ReserveRequest struct {
	UserID     int64     `json:"userId" validate:"required,gt=0"`
	ReservedAt time.Time `json:"reservedAt" validate:"required"`
	ExpiresAt  time.Time `json:"expiresAt" validate:"required,gtfield=ReservedAt"`
}

// ExtendRequest is the body of PUT /internal/copies/{item}/{branch}/extend.
type ExtendRequest struct {
	Days int `json:"days" validate:"required,gt=0"`
}

// AddInventoryRequest is the body of POST /internal/copies.
type AddInventoryRequest struct {
	ItemID   int64 `json:"itemId" validate:"required,gt=0"`
	BranchID int64 `json:"branchId" validate:"required,gt=0"`
}

// AvailabilityResponse answers whether an item is available at a branch.
type AvailabilityResponse struct {
	ItemID    int64 `json:"itemId"`
	BranchID  int64 `json:"branchId"`
	Available bool  `json:"available"`
}
