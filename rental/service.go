package rental

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-inventory/authority"
	"github.com/AntonStoeckl/library-inventory/catalog"
	"github.com/AntonStoeckl/library-inventory/core"
	"github.com/AntonStoeckl/library-inventory/shell"
)

const (
	opRentCopy   = "rental.rent_copy"
	opReturnCopy = "rental.return_copy"
	opExtendLoan = "rental.extend_loan"

	logMsgLedgerAhead = "rental ledger written but authority not updated"
)

// Service is the Rental Ledger.
type Service struct {
	store     Store
	authority Authority
	catalog   catalog.Client
	clock     func() time.Time
	ids       core.IDGenerator
	obs       shell.Observability

	maxActiveRentals     int
	defaultExtensionDays int
}

// NewService creates a Service with optional configuration.
func NewService(store Store, inventory Authority, catalogClient catalog.Client, options ...Option) (*Service, error) {
	switch {
	case store == nil:
		return nil, ErrNilStore
	case inventory == nil:
		return nil, ErrNilAuthority
	case catalogClient == nil:
		return nil, ErrNilCatalog
	}

	s := &Service{
		store:                store,
		authority:            inventory,
		catalog:              catalogClient,
		clock:                time.Now,
		ids:                  core.UUIDGenerator{},
		maxActiveRentals:     DefaultMaxActiveRentals,
		defaultExtensionDays: DefaultExtensionDays,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// RentCopy records a new rental of itemID at branchID for userID and flips the copy to RENTED at the authority.
//
// The quota, the rental period from the catalog and the authority's current record are all checked
// before anything is written, so a rejected request leaves no ledger row.
func (s *Service) RentCopy(ctx context.Context, itemID, userID, branchID int64) (Entry, error) {
	var entry Entry

	err := s.obs.Observe(ctx, opRentCopy, attrs(itemID, branchID, userID), func(ctx context.Context) error {
		if err := validateIDs(itemID, branchID, userID); err != nil {
			return err
		}

		active, err := s.store.CountActiveByUser(ctx, userID)
		if err != nil {
			return err
		}

		if active >= s.maxActiveRentals {
			return fmt.Errorf("%w: user %d has %d active rentals (max %d)", core.ErrQuotaExceeded, userID, active, s.maxActiveRentals)
		}

		kind, err := s.itemKind(ctx, itemID)
		if err != nil {
			return err
		}

		rentedAt := s.clock()
		command := authority.BuildRentCommand(itemID, branchID, userID, rentedAt, rentedAt.AddDate(0, 0, kind.RentalDays()))

		if _, err := s.precheck(ctx, itemID, branchID, func(current authority.CopyRecord) authority.Decision {
			return authority.DecideRent(current, command)
		}); err != nil {
			return err
		}

		entry = Entry{
			ID:       s.ids.NewID(),
			ItemID:   itemID,
			UserID:   userID,
			BranchID: branchID,
			RentedAt: command.RentedAt,
			DueDate:  command.DueDate,
			Status:   StatusRented,
		}

		if err := s.store.Insert(ctx, entry); err != nil {
			return err
		}

		if err := s.authority.Rent(ctx, itemID, branchID, userID, entry.RentedAt, entry.DueDate); err != nil {
			return s.ledgerAhead(ctx, entry, err)
		}

		return nil
	})
	if err != nil {
		return Entry{}, err
	}

	return entry, nil
}

// ReturnCopy closes userID's rental of the copy and makes it available at the authority.
//
// The copy must be RENTED to userID according to the authority. The ledger row closed is the active one of that renter.
func (s *Service) ReturnCopy(ctx context.Context, itemID, branchID, userID int64) (Entry, error) {
	var entry Entry

	err := s.obs.Observe(ctx, opReturnCopy, attrs(itemID, branchID, userID), func(ctx context.Context) error {
		if err := validateIDs(itemID, branchID, userID); err != nil {
			return err
		}

		current, err := s.precheck(ctx, itemID, branchID, authority.DecideReturn)
		if err != nil {
			return err
		}

		if err := checkRenter(current, userID); err != nil {
			return err
		}

		entry, err = s.store.FindActive(ctx, itemID, branchID, userID)
		if err != nil {
			return err
		}

		returnedAt := s.clock()

		updated, err := s.store.MarkReturned(ctx, entry.ID, returnedAt)
		if err != nil {
			return err
		}

		if !updated {
			return fmt.Errorf("%w: rental %s is no longer active", core.ErrNotFound, entry.ID)
		}

		entry.Status = StatusReturned
		entry.ReturnedAt = &returnedAt

		if err := s.authority.Return(ctx, itemID, branchID); err != nil {
			return s.ledgerAhead(ctx, entry, err)
		}

		return nil
	})
	if err != nil {
		return Entry{}, err
	}

	return entry, nil
}

// ExtendLoan pushes the due date of userID's rental of the copy by days, once per rental.
// A non-positive days selects the default extension.
func (s *Service) ExtendLoan(ctx context.Context, itemID, branchID, userID int64, days int) (Entry, error) {
	if days <= 0 {
		days = s.defaultExtensionDays
	}

	var entry Entry

	err := s.obs.Observe(ctx, opExtendLoan, attrs(itemID, branchID, userID), func(ctx context.Context) error {
		if err := validateIDs(itemID, branchID, userID); err != nil {
			return err
		}

		command := authority.BuildExtendDueDateCommand(itemID, branchID, days)

		current, err := s.precheck(ctx, itemID, branchID, func(current authority.CopyRecord) authority.Decision {
			return authority.DecideExtendDueDate(current, command)
		})
		if err != nil {
			return err
		}

		if err := checkRenter(current, userID); err != nil {
			return err
		}

		entry, err = s.store.FindActive(ctx, itemID, branchID, userID)
		if err != nil {
			return err
		}

		if entry.IsExtended {
			return fmt.Errorf("%w: rental %s", core.ErrAlreadyExtended, entry.ID)
		}

		dueDate := entry.DueDate.AddDate(0, 0, days)

		updated, err := s.store.Extend(ctx, entry.ID, dueDate)
		if err != nil {
			return err
		}

		if !updated {
			return fmt.Errorf("%w: rental %s", core.ErrAlreadyExtended, entry.ID)
		}

		entry.DueDate = dueDate
		entry.IsExtended = true

		if err := s.authority.ExtendDueDate(ctx, itemID, branchID, days); err != nil {
			return s.ledgerAhead(ctx, entry, err)
		}

		return nil
	})
	if err != nil {
		return Entry{}, err
	}

	return entry, nil
}

// precheck loads the authority's record of the copy and runs the authority's own guard on it.
func (s *Service) precheck(
	ctx context.Context,
	itemID, branchID int64,
	decide func(current authority.CopyRecord) authority.Decision,
) (authority.CopyRecord, error) {
	current, err := s.authority.Copy(ctx, itemID, branchID)
	if err != nil {
		return authority.CopyRecord{}, err
	}

	if err := decide(current).HasError(); err != nil {
		return authority.CopyRecord{}, err
	}

	return current, nil
}

func checkRenter(current authority.CopyRecord, userID int64) error {
	if current.RentedByUserID == nil || *current.RentedByUserID != userID {
		return fmt.Errorf("%w: copy %s is rented by another user", core.ErrForbidden, current.CopyKey)
	}

	return nil
}

func (s *Service) itemKind(ctx context.Context, itemID int64) (core.ItemKind, error) {
	info, err := s.catalog.Item(ctx, itemID)
	if err != nil {
		return core.ItemKind{}, err
	}

	kind, err := info.ItemKind()
	if err != nil {
		return core.ItemKind{}, fmt.Errorf("%w: item %d cannot be rented: %w", core.ErrInvalidState, itemID, err)
	}

	return kind, nil
}

// ledgerAhead logs the inconsistency window and marks the error accordingly. The entry is kept.
func (s *Service) ledgerAhead(ctx context.Context, entry Entry, remoteErr error) error {
	s.obs.Error(ctx, logMsgLedgerAhead,
		shell.LogAttrEntryID, entry.ID.String(),
		shell.LogAttrItemID, entry.ItemID,
		shell.LogAttrBranchID, entry.BranchID,
		shell.LogAttrErrorKind, core.KindOf(remoteErr).String(),
		shell.LogAttrError, remoteErr.Error(),
	)

	return errors.Join(core.ErrLedgerAhead, remoteErr)
}

func attrs(itemID, branchID, userID int64) map[string]string {
	a := map[string]string{
		shell.LogAttrItemID:   strconv.FormatInt(itemID, 10),
		shell.LogAttrBranchID: strconv.FormatInt(branchID, 10),
	}

	if userID != 0 {
		a[shell.LogAttrUserID] = strconv.FormatInt(userID, 10)
	}

	return a
}

func validateIDs(ids ...int64) error {
	for _, id := range ids {
		if id <= 0 {
			return fmt.Errorf("%w: IDs must be positive (got %d)", core.ErrInvalidArgument, id)
		}
	}

	return nil
}
