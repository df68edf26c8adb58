package authority

import (
	"context"
	"sort"
)

// Copy returns the status record of one copy.
func (s *Service) Copy(ctx context.Context, itemID, branchID int64) (CopyRecord, error) {
	key := CopyKey{ItemID: itemID, BranchID: branchID}
	if err := validateKey(key); err != nil {
		return CopyRecord{}, err
	}

	return s.store.Load(ctx, key)
}

// InventoryForItem returns the records of all copies of itemID, ordered by branch.
func (s *Service) InventoryForItem(ctx context.Context, itemID int64) ([]CopyRecord, error) {
	records, err := s.store.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool { return records[i].BranchID < records[j].BranchID })

	return records, nil
}

// AvailableCopies returns the available copies of itemID.
func (s *Service) AvailableCopies(ctx context.Context, itemID int64) ([]CopyRecord, error) {
	records, err := s.InventoryForItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	available := make([]CopyRecord, 0, len(records))
	for _, record := range records {
		if record.IsAvailable() {
			available = append(available, record)
		}
	}

	return available, nil
}

// AvailableBranches returns the IDs of the branches where itemID can be rented right now.
func (s *Service) AvailableBranches(ctx context.Context, itemID int64) ([]int64, error) {
	available, err := s.AvailableCopies(ctx, itemID)
	if err != nil {
		return nil, err
	}

	branchIDs := make([]int64, 0, len(available))
	for _, record := range available {
		branchIDs = append(branchIDs, record.BranchID)
	}

	return branchIDs, nil
}

// IsAvailableAtBranch reports whether itemID is available at branchID. Unknown copies are not available.
func (s *Service) IsAvailableAtBranch(ctx context.Context, itemID, branchID int64) (bool, error) {
	record, err := s.Copy(ctx, itemID, branchID)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}

		return false, err
	}

	return record.IsAvailable(), nil
}

// RentedByUser returns all copies currently rented by userID.
func (s *Service) RentedByUser(ctx context.Context, userID int64) ([]CopyRecord, error) {
	return s.store.ListRentedByUser(ctx, userID)
}
