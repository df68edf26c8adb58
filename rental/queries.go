package rental

import (
	"context"
	"sort"

	"github.com/AntonStoeckl/library-inventory/shell"
)

const logMsgEnrichFailed = "enriching rental history failed, returning it without titles"

// ActiveRentals returns the rentals userID currently has out.
func (s *Service) ActiveRentals(ctx context.Context, userID int64) ([]Entry, error) {
	entries, err := s.store.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].DueDate.Before(entries[j].DueDate) })

	return entries, nil
}

// UserHistory returns all rentals of userID with catalog titles: active ones first,
// then the returned ones, most recently returned first.
//
// An unreachable catalog does not fail the history, the titles are left empty.
func (s *Service) UserHistory(ctx context.Context, userID int64) ([]HistoryEntry, error) {
	entries, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case a.ReturnedAt == nil && b.ReturnedAt == nil:
			return a.RentedAt.After(b.RentedAt)
		case a.ReturnedAt == nil:
			return true
		case b.ReturnedAt == nil:
			return false
		default:
			return a.ReturnedAt.After(*b.ReturnedAt)
		}
	})

	history := make([]HistoryEntry, len(entries))
	itemIDs := make([]int64, 0, len(entries))
	seen := make(map[int64]bool, len(entries))

	for i, entry := range entries {
		history[i] = HistoryEntry{Entry: entry}
		if !seen[entry.ItemID] {
			seen[entry.ItemID] = true
			itemIDs = append(itemIDs, entry.ItemID)
		}
	}

	infos, err := s.catalog.Items(ctx, itemIDs)
	if err != nil {
		s.obs.Warn(ctx, logMsgEnrichFailed, shell.LogAttrUserID, userID, shell.LogAttrError, err.Error())
		return history, nil
	}

	for i := range history {
		if info, ok := infos[history[i].ItemID]; ok {
			history[i].Title = info.Title
			history[i].ImageURL = info.ImageURL
		}
	}

	return history, nil
}

// ItemHistory returns all rentals of itemID across branches, newest first.
func (s *Service) ItemHistory(ctx context.Context, itemID int64) ([]Entry, error) {
	entries, err := s.store.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].RentedAt.After(entries[j].RentedAt) })

	return entries, nil
}
