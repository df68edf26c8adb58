package authority

import (
	"fmt"

	"github.com/AntonStoeckl/library-inventory/core"
)

const (
	failureReasonNotAvailable      = "copy is not available"
	failureReasonReservedByOther   = "copy is reserved by another user"
	failureReasonNotRented         = "copy is not rented"
	failureReasonNotReserved       = "copy is not reserved"
	failureReasonAlreadyExtended   = "rental was already extended"
	failureReasonNonPositiveDays   = "extension days must be positive"
	failureReasonExpiryNotInFuture = "reservation must expire after it was placed"
	failureReasonDueNotInFuture    = "due date must be after the rental start"
)

// Decision is the outcome of a transition on a CopyRecord.
type Decision = core.DecisionResult[CopyRecord]

// DecideReserve implements the Reserve transition.
//
//	GUARD: status == AVAILABLE
//	EFFECT: status RESERVED, reservation fields set
//	ERROR: InvalidState otherwise
func DecideReserve(current CopyRecord, command ReserveCommand) Decision {
	if !command.ExpiresAt.After(command.ReservedAt) {
		return core.ErrorDecision[CopyRecord](fmt.Errorf("%w: %s", core.ErrInvalidArgument, failureReasonExpiryNotInFuture))
	}

	if !current.IsAvailable() {
		return core.ErrorDecision[CopyRecord](invalidState(current, failureReasonNotAvailable))
	}

	next := current.withoutRental()
	next.Status = StatusReserved
	next.ReservedByUserID = ptr(command.UserID)
	next.ReservedAt = ptr(command.ReservedAt)
	next.ReservationExpiresAt = ptr(command.ExpiresAt)

	return core.SuccessDecision(next)
}

// DecideRent implements the Rent transition.
//
//	GUARD: status == AVAILABLE, or status == RESERVED by the renting user
//	EFFECT: status RENTED, rental fields set with rentExtended=false, reservation fields cleared
//	ERROR: ReservationConflict if RESERVED by another user (checked first), InvalidState otherwise
func DecideRent(current CopyRecord, command RentCommand) Decision {
	if !command.DueDate.After(command.RentedAt) {
		return core.ErrorDecision[CopyRecord](fmt.Errorf("%w: %s", core.ErrInvalidArgument, failureReasonDueNotInFuture))
	}

	if current.Status == StatusReserved && !current.IsReservedBy(command.UserID) {
		return core.ErrorDecision[CopyRecord](
			fmt.Errorf("%w: %s (copy %s)", core.ErrReservationConflict, failureReasonReservedByOther, current.CopyKey),
		)
	}

	if !current.IsAvailable() && !current.IsReservedBy(command.UserID) {
		return core.ErrorDecision[CopyRecord](invalidState(current, failureReasonNotAvailable))
	}

	next := current.withoutReservation()
	next.Status = StatusRented
	next.RentedByUserID = ptr(command.UserID)
	next.RentedAt = ptr(command.RentedAt)
	next.DueDate = ptr(command.DueDate)
	next.RentExtended = false

	return core.SuccessDecision(next)
}

// DecideReturn implements the Return transition.
//
//	GUARD: status == RENTED
//	EFFECT: status AVAILABLE, rental fields cleared
//	ERROR: InvalidState otherwise, so a retried return fails cleanly instead of corrupting state
func DecideReturn(current CopyRecord) Decision {
	if current.Status != StatusRented {
		return core.ErrorDecision[CopyRecord](invalidState(current, failureReasonNotRented))
	}

	next := current.withoutRental()
	next.Status = StatusAvailable

	return core.SuccessDecision(next)
}

// DecideExtendDueDate implements the ExtendDueDate transition.
//
//	GUARD: status == RENTED and rentExtended == false
//	EFFECT: dueDate += days, rentExtended = true
//	ERROR: InvalidState if not rented, AlreadyExtended if extended before
func DecideExtendDueDate(current CopyRecord, command ExtendDueDateCommand) Decision {
	if command.Days <= 0 {
		return core.ErrorDecision[CopyRecord](fmt.Errorf("%w: %s", core.ErrInvalidArgument, failureReasonNonPositiveDays))
	}

	if current.Status != StatusRented {
		return core.ErrorDecision[CopyRecord](invalidState(current, failureReasonNotRented))
	}

	if current.RentExtended {
		return core.ErrorDecision[CopyRecord](
			fmt.Errorf("%w: %s (copy %s)", core.ErrAlreadyExtended, failureReasonAlreadyExtended, current.CopyKey),
		)
	}

	next := current
	next.DueDate = ptr(current.DueDate.AddDate(0, 0, command.Days))
	next.RentExtended = true

	return core.SuccessDecision(next)
}

// DecideCancelReservation implements the CancelReservation transition.
//
//	GUARD: status == RESERVED
//	EFFECT: status AVAILABLE, reservation fields cleared
//	ERROR: InvalidState otherwise
func DecideCancelReservation(current CopyRecord) Decision {
	if current.Status != StatusReserved {
		return core.ErrorDecision[CopyRecord](invalidState(current, failureReasonNotReserved))
	}

	return core.SuccessDecision(releaseReservation(current))
}

// DecideForceAvailable implements the ForceAvailable transition used by the expiry sweeper.
//
//	GUARD: status == RESERVED
//	EFFECT: same as CancelReservation
//	IDEMPOTENCY: any other status is a no-op, e.g. the copy was rented by its holder in the meantime
func DecideForceAvailable(current CopyRecord) Decision {
	if current.Status != StatusReserved {
		return core.IdempotentDecision[CopyRecord]()
	}

	return core.SuccessDecision(releaseReservation(current))
}

func releaseReservation(current CopyRecord) CopyRecord {
	next := current.withoutReservation()
	next.Status = StatusAvailable

	return next
}

func invalidState(current CopyRecord, reason string) error {
	return fmt.Errorf("%w: %s (copy %s is %s)", core.ErrInvalidState, reason, current.CopyKey, current.Status)
}
