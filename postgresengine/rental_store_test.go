package postgresengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-inventory/core"
	"github.com/AntonStoeckl/library-inventory/rental"
	"github.com/AntonStoeckl/library-inventory/testutil/postgreswrapper"
)

var rentedAt = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

func givenRental(t *testing.T, w *postgreswrapper.Wrapper, itemID, userID int64, rentedAt time.Time) rental.Entry {
	t.Helper()

	entry := rental.Entry{
		ID:       uuid.New(),
		ItemID:   itemID,
		UserID:   userID,
		BranchID: 10,
		RentedAt: rentedAt,
		DueDate:  rentedAt.AddDate(0, 0, 14),
		Status:   rental.StatusRented,
	}
	require.NoError(t, w.Rentals.Insert(context.Background(), entry))

	return entry
}

func Test_RentalStore_CountAndFindActive(t *testing.T) {
	// arrange
	w := postgreswrapper.CreateWrapperWithTestConfig(t)
	ctx := context.Background()
	older := givenRental(t, w, 1, 7, rentedAt)
	_, err := w.Rentals.MarkReturned(ctx, older.ID, rentedAt.Add(time.Hour))
	require.NoError(t, err)
	newer := givenRental(t, w, 1, 7, rentedAt.Add(2*time.Hour))
	givenRental(t, w, 2, 7, rentedAt)
	givenRental(t, w, 1, 8, rentedAt.Add(3*time.Hour))

	// act
	count, countErr := w.Rentals.CountActiveByUser(ctx, 7)
	active, findErr := w.Rentals.FindActive(ctx, 1, 10, 7)

	// assert
	require.NoError(t, countErr)
	require.NoError(t, findErr)
	assert.Equal(t, 2, count)
	assert.Equal(t, newer.ID, active.ID, "another user's later row of the same copy is not picked")
	assert.True(t, newer.RentedAt.Equal(active.RentedAt))
}

func Test_RentalStore_FindActive_Missing(t *testing.T) {
	// arrange
	w := postgreswrapper.CreateWrapperWithTestConfig(t)

	// act
	_, err := w.Rentals.FindActive(context.Background(), 1, 10, 7)

	// assert
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func Test_RentalStore_MarkReturned_IsConditional(t *testing.T) {
	// arrange
	w := postgreswrapper.CreateWrapperWithTestConfig(t)
	ctx := context.Background()
	entry := givenRental(t, w, 1, 7, rentedAt)

	// act
	first, firstErr := w.Rentals.MarkReturned(ctx, entry.ID, rentedAt.Add(time.Hour))
	second, secondErr := w.Rentals.MarkReturned(ctx, entry.ID, rentedAt.Add(2*time.Hour))
	history, listErr := w.Rentals.ListByUser(ctx, 7)

	// assert
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	require.NoError(t, listErr)
	assert.True(t, first)
	assert.False(t, second)
	require.Len(t, history, 1)
	assert.Equal(t, rental.StatusReturned, history[0].Status)
	require.NotNil(t, history[0].ReturnedAt)
	assert.True(t, rentedAt.Add(time.Hour).Equal(*history[0].ReturnedAt))
}

func Test_RentalStore_Extend_OnlyOnce(t *testing.T) {
	// arrange
	w := postgreswrapper.CreateWrapperWithTestConfig(t)
	ctx := context.Background()
	entry := givenRental(t, w, 1, 7, rentedAt)
	extendedDue := entry.DueDate.AddDate(0, 0, 7)

	// act
	first, firstErr := w.Rentals.Extend(ctx, entry.ID, extendedDue)
	second, secondErr := w.Rentals.Extend(ctx, entry.ID, extendedDue.AddDate(0, 0, 7))
	active, findErr := w.Rentals.FindActive(ctx, 1, 10, 7)

	// assert
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	require.NoError(t, findErr)
	assert.True(t, first)
	assert.False(t, second)
	assert.True(t, active.IsExtended)
	assert.True(t, extendedDue.Equal(active.DueDate))
}

func Test_RentalStore_ListActiveDueBetween(t *testing.T) {
	// arrange
	w := postgreswrapper.CreateWrapperWithTestConfig(t)
	ctx := context.Background()
	dueInside := givenRental(t, w, 1, 7, rentedAt)
	givenRental(t, w, 2, 7, rentedAt.AddDate(0, 0, 1))
	returned := givenRental(t, w, 3, 8, rentedAt)
	_, err := w.Rentals.MarkReturned(ctx, returned.ID, rentedAt.Add(time.Hour))
	require.NoError(t, err)

	from := time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)

	// act
	due, listErr := w.Rentals.ListActiveDueBetween(ctx, from, from.AddDate(0, 0, 1))

	// assert
	require.NoError(t, listErr)
	require.Len(t, due, 1)
	assert.Equal(t, dueInside.ID, due[0].ID)
}

func Test_RentalStore_ListByItem(t *testing.T) {
	// arrange
	w := postgreswrapper.CreateWrapperWithTestConfig(t)
	givenRental(t, w, 1, 7, rentedAt)
	givenRental(t, w, 1, 8, rentedAt.Add(time.Hour))
	givenRental(t, w, 2, 7, rentedAt)

	// act
	entries, err := w.Rentals.ListByItem(context.Background(), 1)

	// assert
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
