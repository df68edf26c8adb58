package authority

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-inventory/core"
	"github.com/AntonStoeckl/library-inventory/shell"
)

const (
	opReserve           = "authority.reserve"
	opRent              = "authority.rent"
	opReturn            = "authority.return"
	opExtendDueDate     = "authority.extend_due_date"
	opCancelReservation = "authority.cancel_reservation"
	opForceAvailable    = "authority.force_available"
	opAddInventory      = "authority.add_inventory"

	logMsgPublishFailed = "publishing copy status change failed"
	logAttrFromStatus   = "from_status"
	logAttrToStatus     = "to_status"
)

// ErrAlreadyStocked is returned when a copy is added at a branch that already stocks the item.
var ErrAlreadyStocked = fmt.Errorf("%w: item is already stocked at this branch", core.ErrInvalidState)

// CopyStore persists CopyRecords.
//
// Save must only succeed if the stored version still equals expectedVersion, and must increment it;
// otherwise it returns core.ErrConcurrencyConflict. Load returns core.ErrNotFound for unknown copies.
type CopyStore interface {
	Load(ctx context.Context, key CopyKey) (CopyRecord, error)
	Save(ctx context.Context, record CopyRecord, expectedVersion int64) error
	Insert(ctx context.Context, record CopyRecord) error
	ListByItem(ctx context.Context, itemID int64) ([]CopyRecord, error)
	ListRentedByUser(ctx context.Context, userID int64) ([]CopyRecord, error)
}

// CopyStatusChanged is published after a successful transition.
type CopyStatusChanged struct {
	ItemID     int64     `json:"itemId"`
	BranchID   int64     `json:"branchId"`
	From       Status    `json:"from"`
	To         Status    `json:"to"`
	UserID     *int64    `json:"userId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// StatusPublisher is notified about status changes. Failures are logged and never fail a transition.
type StatusPublisher interface {
	PublishCopyStatusChanged(ctx context.Context, event CopyStatusChanged) error
}

// Service is the Inventory Authority.
type Service struct {
	store        CopyStore
	publisher    StatusPublisher
	clock        func() time.Time
	obs          shell.Observability
	retryOptions []shell.RetryOption
}

// NewService creates a Service with optional configuration.
func NewService(store CopyStore, options ...Option) (*Service, error) {
	if store == nil {
		return nil, ErrNilCopyStore
	}

	s := &Service{
		store: store,
		clock: time.Now,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Reserve places a hold for userID from reservedAt until expiresAt and returns the new status record.
func (s *Service) Reserve(ctx context.Context, itemID, branchID, userID int64, reservedAt, expiresAt time.Time) (CopyRecord, error) {
	if err := validateUser(userID); err != nil {
		return CopyRecord{}, err
	}

	command := BuildReserveCommand(itemID, branchID, userID, reservedAt, expiresAt)

	return s.transition(ctx, opReserve, command.CopyKey, func(current CopyRecord) Decision {
		return DecideReserve(current, command)
	})
}

// Rent lends the copy to userID and returns the confirmation record.
func (s *Service) Rent(ctx context.Context, itemID, branchID, userID int64, rentedAt, dueDate time.Time) (CopyRecord, error) {
	if err := validateUser(userID); err != nil {
		return CopyRecord{}, err
	}

	command := BuildRentCommand(itemID, branchID, userID, rentedAt, dueDate)

	return s.transition(ctx, opRent, command.CopyKey, func(current CopyRecord) Decision {
		return DecideRent(current, command)
	})
}

// Return makes a rented copy available again.
func (s *Service) Return(ctx context.Context, itemID, branchID int64) error {
	_, err := s.transition(ctx, opReturn, CopyKey{ItemID: itemID, BranchID: branchID}, DecideReturn)

	return err
}

// ExtendDueDate pushes the due date of a rented copy by days, once per rental.
func (s *Service) ExtendDueDate(ctx context.Context, itemID, branchID int64, days int) error {
	command := BuildExtendDueDateCommand(itemID, branchID, days)

	_, err := s.transition(ctx, opExtendDueDate, command.CopyKey, func(current CopyRecord) Decision {
		return DecideExtendDueDate(current, command)
	})

	return err
}

// CancelReservation releases a reserved copy.
func (s *Service) CancelReservation(ctx context.Context, itemID, branchID int64) error {
	_, err := s.transition(ctx, opCancelReservation, CopyKey{ItemID: itemID, BranchID: branchID}, DecideCancelReservation)

	return err
}

// ForceAvailable releases a reserved copy and is a silent no-op for any other status.
func (s *Service) ForceAvailable(ctx context.Context, itemID, branchID int64) error {
	_, err := s.transition(ctx, opForceAvailable, CopyKey{ItemID: itemID, BranchID: branchID}, DecideForceAvailable)

	return err
}

// AddInventory stocks a new, available copy of itemID at branchID.
func (s *Service) AddInventory(ctx context.Context, itemID, branchID int64) (CopyRecord, error) {
	record := NewAvailableCopy(itemID, branchID)

	err := s.obs.Observe(ctx, opAddInventory, keyAttrs(record.CopyKey), func(ctx context.Context) error {
		if err := validateKey(record.CopyKey); err != nil {
			return err
		}

		return s.store.Insert(ctx, record)
	})
	if err != nil {
		return CopyRecord{}, err
	}

	return record, nil
}

// transition runs load -> decide -> conditional save, retrying the whole cycle on concurrency conflicts.
func (s *Service) transition(
	ctx context.Context,
	operation string,
	key CopyKey,
	decide func(current CopyRecord) Decision,
) (CopyRecord, error) {
	var result CopyRecord

	err := s.obs.Observe(ctx, operation, keyAttrs(key), func(ctx context.Context) error {
		if err := validateKey(key); err != nil {
			return err
		}

		return shell.RetryWithExponentialBackoff(ctx, func(ctx context.Context) error {
			current, err := s.store.Load(ctx, key)
			if err != nil {
				return err
			}

			decision := decide(current)

			if err := decision.HasError(); err != nil {
				return err
			}

			if decision.IsIdempotent() {
				result = current
				return shell.ErrIdempotentOperation
			}

			next := decision.State
			if err := s.store.Save(ctx, next, current.Version); err != nil {
				return err
			}

			next.Version = current.Version + 1
			result = next
			s.publish(ctx, current, next)

			return nil
		}, s.retryOptionsFor(operation)...)
	})

	return result, err
}

func (s *Service) retryOptionsFor(operation string) []shell.RetryOption {
	if s.obs.Metrics == nil {
		return s.retryOptions
	}

	return append(append([]shell.RetryOption{}, s.retryOptions...), shell.WithRetryMetrics(s.obs.Metrics, operation))
}

func (s *Service) publish(ctx context.Context, previous, next CopyRecord) {
	if s.publisher == nil {
		return
	}

	event := CopyStatusChanged{
		ItemID:     next.ItemID,
		BranchID:   next.BranchID,
		From:       previous.Status,
		To:         next.Status,
		OccurredAt: s.clock(),
	}

	switch {
	case next.RentedByUserID != nil:
		event.UserID = next.RentedByUserID
	case next.ReservedByUserID != nil:
		event.UserID = next.ReservedByUserID
	case previous.RentedByUserID != nil:
		event.UserID = previous.RentedByUserID
	case previous.ReservedByUserID != nil:
		event.UserID = previous.ReservedByUserID
	}

	if err := s.publisher.PublishCopyStatusChanged(ctx, event); err != nil {
		s.obs.Warn(ctx, logMsgPublishFailed,
			shell.LogAttrItemID, next.ItemID,
			shell.LogAttrBranchID, next.BranchID,
			logAttrFromStatus, string(previous.Status),
			logAttrToStatus, string(next.Status),
			shell.LogAttrError, err.Error(),
		)
	}
}

func keyAttrs(key CopyKey) map[string]string {
	return map[string]string{
		shell.LogAttrItemID:   strconv.FormatInt(key.ItemID, 10),
		shell.LogAttrBranchID: strconv.FormatInt(key.BranchID, 10),
	}
}

func validateKey(key CopyKey) error {
	if key.ItemID <= 0 || key.BranchID <= 0 {
		return fmt.Errorf("%w: item and branch IDs must be positive (got %s)", core.ErrInvalidArgument, key)
	}

	return nil
}

func validateUser(userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user ID must be positive (got %d)", core.ErrInvalidArgument, userID)
	}

	return nil
}

// isNotFound reports whether err means the copy does not exist.
func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
