package reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-inventory/authority"
	"github.com/AntonStoeckl/library-inventory/catalog"
	"github.com/AntonStoeckl/library-inventory/core"
	"github.com/AntonStoeckl/library-inventory/shell"
)

const (
	opCreateReservation  = "reservation.create"
	opCancelReservation  = "reservation.cancel"
	opFulfillReservation = "reservation.fulfill"

	logMsgLedgerAhead   = "reservation ledger written but authority not updated"
	logMsgEnrichFailed  = "enriching reservations failed, returning them without titles"
	logMsgNoReservation = "no active reservation to fulfill"
	logMsgHoldNotHeld   = "copy is not held for this reservation, cancelling it in the ledger only"
	logAttrCopyStatus   = "copy_status"
)

// Service is the Reservation Ledger.
type Service struct {
	store     Store
	authority Authority
	catalog   catalog.Client
	clock     func() time.Time
	ids       core.IDGenerator
	obs       shell.Observability

	maxActiveReservations int
	window                time.Duration
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
		store:                 store,
		authority:             inventory,
		catalog:               catalogClient,
		clock:                 time.Now,
		ids:                   core.UUIDGenerator{},
		maxActiveReservations: DefaultMaxActiveReservations,
		window:                DefaultReservationWindow,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// CreateReservation holds the copy of itemID at branchID for userID and returns the enriched reservation.
//
// The quota and the authority's current record are checked before anything is written,
// so a rejected request leaves no ledger row.
func (s *Service) CreateReservation(ctx context.Context, itemID, branchID, userID int64) (View, error) {
	var entry Entry

	err := s.obs.Observe(ctx, opCreateReservation, attrs(itemID, branchID, userID), func(ctx context.Context) error {
		if err := validateIDs(itemID, branchID, userID); err != nil {
			return err
		}

		active, err := s.store.CountActiveByUser(ctx, userID)
		if err != nil {
			return err
		}

		if active >= s.maxActiveReservations {
			return fmt.Errorf("%w: user %d has %d active reservations (max %d)",
				core.ErrQuotaExceeded, userID, active, s.maxActiveReservations)
		}

		reservedAt := s.clock()
		command := authority.BuildReserveCommand(itemID, branchID, userID, reservedAt, reservedAt.Add(s.window))

		current, err := s.authority.Copy(ctx, itemID, branchID)
		if err != nil {
			return err
		}

		if err := authority.DecideReserve(current, command).HasError(); err != nil {
			return err
		}

		entry = Entry{
			ID:         s.ids.NewID(),
			ItemID:     itemID,
			UserID:     userID,
			BranchID:   branchID,
			ReservedAt: command.ReservedAt,
			ExpiresAt:  command.ExpiresAt,
			Status:     StatusActive,
		}

		if err := s.store.Insert(ctx, entry); err != nil {
			return err
		}

		if err := s.authority.Reserve(ctx, itemID, branchID, userID, entry.ReservedAt, entry.ExpiresAt); err != nil {
			return s.ledgerAhead(ctx, entry, err)
		}

		return nil
	})
	if err != nil {
		return View{}, err
	}

	return s.enrich(ctx, userID, []Entry{entry})[0], nil
}

// CancelReservation cancels the reservation id on behalf of userID and releases the copy.
//
// The copy is released only while the authority holds it for userID. Otherwise the entry is resolved in the ledger only.
func (s *Service) CancelReservation(ctx context.Context, id uuid.UUID, userID int64) error {
	return s.obs.Observe(ctx, opCancelReservation, map[string]string{
		shell.LogAttrEntryID: id.String(),
		shell.LogAttrUserID:  strconv.FormatInt(userID, 10),
	}, func(ctx context.Context) error {
		entry, err := s.store.Find(ctx, id)
		if err != nil {
			return err
		}

		if entry.UserID != userID {
			return fmt.Errorf("%w: reservation %s belongs to another user", core.ErrForbidden, id)
		}

		if entry.Status.IsTerminal() {
			return fmt.Errorf("%w: reservation %s is already %s", core.ErrInvalidState, id, entry.Status)
		}

		current, err := s.authority.Copy(ctx, entry.ItemID, entry.BranchID)
		if err != nil {
			return err
		}

		resolved, err := s.store.ResolveIfActive(ctx, id, StatusCancelled, s.clock())
		if err != nil {
			return err
		}

		if !resolved {
			return fmt.Errorf("%w: reservation %s was resolved concurrently", core.ErrInvalidState, id)
		}

		if !current.IsReservedBy(entry.UserID) {
			s.obs.Warn(ctx, logMsgHoldNotHeld,
				shell.LogAttrEntryID, entry.ID.String(),
				shell.LogAttrItemID, entry.ItemID,
				shell.LogAttrBranchID, entry.BranchID,
				logAttrCopyStatus, string(current.Status),
			)

			return nil
		}

		if err := s.authority.CancelReservation(ctx, entry.ItemID, entry.BranchID); err != nil {
			return s.ledgerAhead(ctx, entry, err)
		}

		return nil
	})
}

// FulfillReservation marks the active reservation of userID for the copy as FULFILLED.
// It is called after the copy was rented by the reserving user and is a no-op if there is none.
func (s *Service) FulfillReservation(ctx context.Context, itemID, branchID, userID int64) error {
	return s.obs.Observe(ctx, opFulfillReservation, attrs(itemID, branchID, userID), func(ctx context.Context) error {
		entry, err := s.store.FindActive(ctx, itemID, branchID, userID)
		if errors.Is(err, core.ErrNotFound) {
			s.obs.Debug(ctx, logMsgNoReservation, shell.LogAttrItemID, itemID, shell.LogAttrUserID, userID)
			return shell.ErrIdempotentOperation
		}

		if err != nil {
			return err
		}

		resolved, err := s.store.ResolveIfActive(ctx, entry.ID, StatusFulfilled, s.clock())
		if err != nil {
			return err
		}

		if !resolved {
			return shell.ErrIdempotentOperation
		}

		return nil
	})
}

// MyReservations returns the active reservations of userID, newest first, with catalog titles.
func (s *Service) MyReservations(ctx context.Context, userID int64) ([]View, error) {
	entries, err := s.store.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ReservedAt.After(entries[j].ReservedAt) })

	return s.enrich(ctx, userID, entries), nil
}

// enrich adds catalog metadata. An unreachable catalog leaves the titles empty.
func (s *Service) enrich(ctx context.Context, userID int64, entries []Entry) []View {
	views := make([]View, len(entries))
	itemIDs := make([]int64, 0, len(entries))
	seen := make(map[int64]bool, len(entries))

	for i, entry := range entries {
		views[i] = View{Entry: entry}
		if !seen[entry.ItemID] {
			seen[entry.ItemID] = true
			itemIDs = append(itemIDs, entry.ItemID)
		}
	}

	if len(itemIDs) == 0 {
		return views
	}

	infos, err := s.catalog.Items(ctx, itemIDs)
	if err != nil {
		s.obs.Warn(ctx, logMsgEnrichFailed, shell.LogAttrUserID, userID, shell.LogAttrError, err.Error())
		return views
	}

	for i := range views {
		if info, ok := infos[views[i].ItemID]; ok {
			views[i].Title = info.Title
			views[i].ImageURL = info.ImageURL
		}
	}

	return views
}

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
	return map[string]string{
		shell.LogAttrItemID:   strconv.FormatInt(itemID, 10),
		shell.LogAttrBranchID: strconv.FormatInt(branchID, 10),
		shell.LogAttrUserID:   strconv.FormatInt(userID, 10),
	}
}

func validateIDs(ids ...int64) error {
	for _, id := range ids {
		if id <= 0 {
			return fmt.Errorf("%w: IDs must be positive (got %d)", core.ErrInvalidArgument, id)
		}
	}

	return nil
}
