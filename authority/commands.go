package authority

import (
	"time"
)

// ReserveCommand places a hold on an available copy.
type ReserveCommand struct {
	CopyKey
	UserID     int64
	ReservedAt time.Time
	ExpiresAt  time.Time
}

// BuildReserveCommand creates a ReserveCommand.
func BuildReserveCommand(itemID, branchID, userID int64, reservedAt, expiresAt time.Time) ReserveCommand {
	return ReserveCommand{
		CopyKey:    CopyKey{ItemID: itemID, BranchID: branchID},
		UserID:     userID,
		ReservedAt: reservedAt,
		ExpiresAt:  expiresAt,
	}
}

// RentCommand lends a copy to a user.
type RentCommand struct {
	CopyKey
	UserID   int64
	RentedAt time.Time
	DueDate  time.Time
}

// BuildRentCommand creates a RentCommand.
func BuildRentCommand(itemID, branchID, userID int64, rentedAt, dueDate time.Time) RentCommand {
	return RentCommand{
		CopyKey:  CopyKey{ItemID: itemID, BranchID: branchID},
		UserID:   userID,
		RentedAt: rentedAt,
		DueDate:  dueDate,
	}
}

// ExtendDueDateCommand pushes the due date of a rented copy.
type ExtendDueDateCommand struct {
	CopyKey
	Days int
}

// BuildExtendDueDateCommand creates an ExtendDueDateCommand.
func BuildExtendDueDateCommand(itemID, branchID int64, days int) ExtendDueDateCommand {
	return ExtendDueDateCommand{
		CopyKey: CopyKey{ItemID: itemID, BranchID: branchID},
		Days:    days,
	}
}
