package core

import (
	"errors"
)

var (
	// ErrNotFound is returned when a referenced copy or ledger entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when a transition guard fails.
	ErrInvalidState = errors.New("invalid state")

	// ErrReservationConflict is returned when renting a copy that is reserved by another user.
	ErrReservationConflict = errors.New("copy is reserved by another user")

	// ErrAlreadyExtended is returned when a rental was already extended once.
	ErrAlreadyExtended = errors.New("rental already extended")

	// ErrQuotaExceeded is returned when a user reached the maximum of concurrent rentals or reservations.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrForbidden is returned when a user acts on a ledger entry owned by someone else.
	ErrForbidden = errors.New("forbidden")

	// ErrRemoteUnavailable is returned when a cross-service call failed for transport reasons.
	ErrRemoteUnavailable = errors.New("remote service unavailable")

	// ErrLedgerAhead marks a failure where the local ledger write succeeded but the remote authority call did not.
	ErrLedgerAhead = errors.New("ledger written but authority not updated")

	// ErrConcurrencyConflict is returned by stores when a conditional update affected no rows.
	ErrConcurrencyConflict = errors.New("concurrency error, no rows were affected")

	// ErrInvalidArgument is returned for malformed input like non-positive IDs.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrorKind classifies an error onto the taxonomy that is visible to callers and transported between services.
type ErrorKind int

// The error kinds. KindUnknown covers everything that is not part of the taxonomy.
const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindInvalidState
	KindReservationConflict
	KindAlreadyExtended
	KindQuotaExceeded
	KindForbidden
	KindRemoteUnavailable
	KindInvalidArgument
)

var kindNames = map[ErrorKind]string{
	KindUnknown:             "UNKNOWN",
	KindNotFound:            "NOT_FOUND",
	KindInvalidState:        "INVALID_STATE",
	KindReservationConflict: "RESERVATION_CONFLICT",
	KindAlreadyExtended:     "ALREADY_EXTENDED",
	KindQuotaExceeded:       "QUOTA_EXCEEDED",
	KindForbidden:           "FORBIDDEN",
	KindRemoteUnavailable:   "REMOTE_UNAVAILABLE",
	KindInvalidArgument:     "INVALID_ARGUMENT",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return kindNames[KindUnknown]
}

// ParseErrorKind is the inverse of ErrorKind.String. Unknown codes map to KindUnknown.
func ParseErrorKind(code string) ErrorKind {
	for kind, name := range kindNames {
		if name == code {
			return kind
		}
	}

	return KindUnknown
}

// KindOf maps err onto the taxonomy.
// ReservationConflict and AlreadyExtended are checked before InvalidState,
// because they are the more specific explanations of a failed guard.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrReservationConflict):
		return KindReservationConflict
	case errors.Is(err, ErrAlreadyExtended):
		return KindAlreadyExtended
	case errors.Is(err, ErrQuotaExceeded):
		return KindQuotaExceeded
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrRemoteUnavailable):
		return KindRemoteUnavailable
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	default:
		return KindUnknown
	}
}

// SentinelFor returns the sentinel error for a kind, or nil for KindUnknown.
func SentinelFor(kind ErrorKind) error {
	switch kind {
	case KindNotFound:
		return ErrNotFound
	case KindInvalidState:
		return ErrInvalidState
	case KindReservationConflict:
		return ErrReservationConflict
	case KindAlreadyExtended:
		return ErrAlreadyExtended
	case KindQuotaExceeded:
		return ErrQuotaExceeded
	case KindForbidden:
		return ErrForbidden
	case KindRemoteUnavailable:
		return ErrRemoteUnavailable
	case KindInvalidArgument:
		return ErrInvalidArgument
	default:
		return nil
	}
}
