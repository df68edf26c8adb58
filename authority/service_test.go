package authority_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-inventory/authority"
	"github.com/AntonStoeckl/library-inventory/core"
	"github.com/AntonStoeckl/library-inventory/shell"
	"github.com/AntonStoeckl/library-inventory/testutil/memstore"
	"github.com/AntonStoeckl/library-inventory/testutil/testdoubles"
)

func Test_Service_Rent_AvailableCopy(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memstore.NewCopyStore()
	publisher := testdoubles.NewStatusPublisherSpy()
	service := newService(t, store, authority.WithStatusPublisher(publisher))
	givenStockedCopy(t, service, 1, 1)

	// act
	record, err := service.Rent(ctx, 1, 1, 5, fakeNow, fakeNow.AddDate(0, 0, 14))

	// assert
	require.NoError(t, err)
	assert.Equal(t, authority.StatusRented, record.Status)
	assert.Equal(t, int64(1), record.Version)

	stored, err := service.Copy(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, record, stored, "the returned confirmation should match the stored record")

	events := publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, authority.StatusAvailable, events[0].From)
	assert.Equal(t, authority.StatusRented, events[0].To)
	assert.Equal(t, int64(5), *events[0].UserID)
}

func Test_Service_Rent_UnknownCopy(t *testing.T) {
	service := newService(t, memstore.NewCopyStore())

	_, err := service.Rent(context.Background(), 99, 1, 5, fakeNow, fakeNow.AddDate(0, 0, 14))

	assert.ErrorIs(t, err, core.ErrNotFound)
}

func Test_Service_Rent_InvalidIDs(t *testing.T) {
	service := newService(t, memstore.NewCopyStore())

	_, err := service.Rent(context.Background(), 0, 1, 5, fakeNow, fakeNow.AddDate(0, 0, 14))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = service.Rent(context.Background(), 1, 1, -1, fakeNow, fakeNow.AddDate(0, 0, 14))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func Test_Service_ReservationConflict(t *testing.T) {
	// arrange
	ctx := context.Background()
	service := newService(t, memstore.NewCopyStore())
	givenStockedCopy(t, service, 1, 1)

	_, err := service.Reserve(ctx, 1, 1, 5, fakeNow, fakeNow.AddDate(0, 0, 3))
	require.NoError(t, err)

	// act
	_, byOther := service.Rent(ctx, 1, 1, 7, fakeNow, fakeNow.AddDate(0, 0, 14))
	byHolder, err := service.Rent(ctx, 1, 1, 5, fakeNow, fakeNow.AddDate(0, 0, 14))

	// assert
	assert.ErrorIs(t, byOther, core.ErrReservationConflict)
	require.NoError(t, err)
	assert.Equal(t, authority.StatusRented, byHolder.Status)
	assert.Nil(t, byHolder.ReservedByUserID)
}

func Test_Service_Reserve_UsesTheCallersTimestamps(t *testing.T) {
	// arrange
	ctx := context.Background()
	aheadOfCaller := fakeNow.Add(2 * time.Hour)
	service := newService(t, memstore.NewCopyStore(), authority.WithClock(func() time.Time { return aheadOfCaller }))
	givenStockedCopy(t, service, 1, 1)

	// act
	record, err := service.Reserve(ctx, 1, 1, 5, fakeNow, fakeNow.Add(time.Hour))

	// assert
	require.NoError(t, err, "a skewed authority clock must not reject a valid hold")
	assert.Equal(t, authority.StatusReserved, record.Status)
	assert.Equal(t, fakeNow, *record.ReservedAt)
	assert.Equal(t, fakeNow.Add(time.Hour), *record.ReservationExpiresAt)
}

func Test_Service_Reserve_ExpiryMustFollowReservedAt(t *testing.T) {
	service := newService(t, memstore.NewCopyStore())
	givenStockedCopy(t, service, 1, 1)

	_, err := service.Reserve(context.Background(), 1, 1, 5, fakeNow, fakeNow)

	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func Test_Service_ExtendDueDate_Twice(t *testing.T) {
	// arrange
	ctx := context.Background()
	service := newService(t, memstore.NewCopyStore())
	givenStockedCopy(t, service, 1, 1)
	_, err := service.Rent(ctx, 1, 1, 5, fakeNow, fakeNow.AddDate(0, 0, 14))
	require.NoError(t, err)

	// act
	first := service.ExtendDueDate(ctx, 1, 1, 7)
	second := service.ExtendDueDate(ctx, 1, 1, 7)

	// assert
	require.NoError(t, first)
	assert.ErrorIs(t, second, core.ErrAlreadyExtended)

	record, err := service.Copy(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, fakeNow.AddDate(0, 0, 21), *record.DueDate, "the failed extension must leave the due date unchanged")
}

func Test_Service_Return_NotRented(t *testing.T) {
	service := newService(t, memstore.NewCopyStore())
	givenStockedCopy(t, service, 1, 1)

	err := service.Return(context.Background(), 1, 1)

	assert.ErrorIs(t, err, core.ErrInvalidState)
}

func Test_Service_ForceAvailable_IsIdempotent(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memstore.NewCopyStore()
	publisher := testdoubles.NewStatusPublisherSpy()
	service := newService(t, store, authority.WithStatusPublisher(publisher))
	givenStockedCopy(t, service, 1, 1)
	_, err := service.Reserve(ctx, 1, 1, 5, fakeNow, fakeNow.AddDate(0, 0, 3))
	require.NoError(t, err)

	// act
	first := service.ForceAvailable(ctx, 1, 1)
	second := service.ForceAvailable(ctx, 1, 1)

	// assert
	require.NoError(t, first)
	require.NoError(t, second, "releasing an available copy is a no-op")

	record, err := service.Copy(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, authority.StatusAvailable, record.Status)
	assert.Equal(t, int64(2), record.Version, "the no-op must not write")
	assert.Len(t, publisher.Events(), 2, "reserve and release, nothing for the no-op")
}

func Test_Service_RetriesOnConcurrentWrite(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memstore.NewCopyStore()
	metrics := testdoubles.NewMetricsCollectorSpy()
	service := newService(t, store, authority.WithMetrics(metrics))
	givenStockedCopy(t, service, 1, 1)

	interfered := false
	store.BeforeSave = func(_ authority.CopyRecord) {
		if interfered {
			return
		}

		interfered = true
		competing := authority.NewAvailableCopy(1, 1)
		competing.Version = 1
		store.Put(competing)
	}

	// act
	record, err := service.Rent(ctx, 1, 1, 5, fakeNow, fakeNow.AddDate(0, 0, 14))

	// assert
	require.NoError(t, err)
	assert.Equal(t, int64(2), record.Version)
	assert.True(t, metrics.HasRecordWithLabel(shell.OperationRetriesMetric, "attempt_number", "1"))
}

func Test_Service_ConcurrentWriteChangesTheOutcome(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memstore.NewCopyStore()
	service := newService(t, store)
	givenStockedCopy(t, service, 1, 1)

	interfered := false
	store.BeforeSave = func(_ authority.CopyRecord) {
		if interfered {
			return
		}

		interfered = true
		reservedByOther := givenReservedCopy(t, 7)
		reservedByOther.Version = 1
		store.Put(reservedByOther)
	}

	// act
	_, err := service.Rent(ctx, 1, 1, 5, fakeNow, fakeNow.AddDate(0, 0, 14))

	// assert
	assert.ErrorIs(t, err, core.ErrReservationConflict, "the retry must re-evaluate the guard on fresh state")
}

func Test_Service_PublishFailureDoesNotFailTheTransition(t *testing.T) {
	// arrange
	logger := testdoubles.NewContextualLoggerSpy()
	publisher := testdoubles.NewStatusPublisherSpy()
	publisher.FailWith(errors.New("broker down"))
	service := newService(t, memstore.NewCopyStore(),
		authority.WithStatusPublisher(publisher),
		authority.WithContextualLogger(logger),
	)
	givenStockedCopy(t, service, 1, 1)

	// act
	_, err := service.Rent(context.Background(), 1, 1, 5, fakeNow, fakeNow.AddDate(0, 0, 14))

	// assert
	assert.NoError(t, err)
	assert.True(t, logger.HasLog("warn", "publishing copy status change failed"))
}

func Test_Service_AddInventory_Twice(t *testing.T) {
	service := newService(t, memstore.NewCopyStore())
	givenStockedCopy(t, service, 1, 1)

	_, err := service.AddInventory(context.Background(), 1, 1)

	assert.ErrorIs(t, err, authority.ErrAlreadyStocked)
	assert.Equal(t, core.KindInvalidState, core.KindOf(err))
}

func Test_Service_AvailabilityQueries(t *testing.T) {
	// arrange
	ctx := context.Background()
	service := newService(t, memstore.NewCopyStore())
	givenStockedCopy(t, service, 1, 3)
	givenStockedCopy(t, service, 1, 1)
	givenStockedCopy(t, service, 1, 2)
	givenStockedCopy(t, service, 2, 1)
	_, err := service.Rent(ctx, 1, 2, 5, fakeNow, fakeNow.AddDate(0, 0, 14))
	require.NoError(t, err)
	_, err = service.Rent(ctx, 2, 1, 5, fakeNow, fakeNow.AddDate(0, 0, 7))
	require.NoError(t, err)

	// act
	branches, err := service.AvailableBranches(ctx, 1)
	require.NoError(t, err)
	inventory, err := service.InventoryForItem(ctx, 1)
	require.NoError(t, err)
	rented, err := service.RentedByUser(ctx, 5)
	require.NoError(t, err)
	atRentedBranch, err := service.IsAvailableAtBranch(ctx, 1, 2)
	require.NoError(t, err)
	atUnknownBranch, err := service.IsAvailableAtBranch(ctx, 1, 42)
	require.NoError(t, err)

	// assert
	assert.Equal(t, []int64{1, 3}, branches)
	require.Len(t, inventory, 3)
	assert.Equal(t, int64(1), inventory[0].BranchID, "inventory is ordered by branch")
	assert.Len(t, rented, 2)
	assert.False(t, atRentedBranch)
	assert.False(t, atUnknownBranch, "an unstocked branch is simply not available")
}

func newService(t *testing.T, store authority.CopyStore, options ...authority.Option) *authority.Service {
	t.Helper()

	options = append([]authority.Option{
		authority.WithClock(func() time.Time { return fakeNow }),
		authority.WithRetryOptions(shell.WithBaseDelay(time.Millisecond)),
	}, options...)

	service, err := authority.NewService(store, options...)
	require.NoError(t, err)

	return service
}

func givenStockedCopy(t *testing.T, service *authority.Service, itemID, branchID int64) {
	t.Helper()

	_, err := service.AddInventory(context.Background(), itemID, branchID)
	require.NoError(t, err)
}
