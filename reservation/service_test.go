package reservation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-inventory/authority"
	"github.com/AntonStoeckl/library-inventory/catalog"
	"github.com/AntonStoeckl/library-inventory/core"
	"github.com/AntonStoeckl/library-inventory/reservation"
	"github.com/AntonStoeckl/library-inventory/shell"
	"github.com/AntonStoeckl/library-inventory/testutil/memstore"
	"github.com/AntonStoeckl/library-inventory/testutil/testdoubles"
)

var fakeStart = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

const (
	branch int64 = 1
	user   int64 = 5
)

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type fixture struct {
	service   *reservation.Service
	store     *memstore.ReservationStore
	copies    *authority.Service
	authority *testdoubles.AuthorityFake
	catalog   *testdoubles.CatalogStub
	clock     *fakeClock
	logger    *testdoubles.ContextualLoggerSpy
}

func newFixture(t *testing.T, options ...reservation.Option) fixture {
	t.Helper()

	clock := &fakeClock{now: fakeStart}

	copies, err := authority.NewService(memstore.NewCopyStore(),
		authority.WithClock(clock.Now),
		authority.WithRetryOptions(shell.WithBaseDelay(time.Millisecond)),
	)
	require.NoError(t, err)

	items := make([]catalog.ItemInfo, 0, 10)
	for itemID := int64(1); itemID <= 10; itemID++ {
		_, err := copies.AddInventory(context.Background(), itemID, branch)
		require.NoError(t, err)

		items = append(items, catalog.ItemInfo{ID: itemID, Title: "Item " + string(rune('A'+itemID-1)), ImageURL: "https://img/x.png", Kind: "BOOK"})
	}

	f := fixture{
		store:     memstore.NewReservationStore(),
		copies:    copies,
		authority: testdoubles.NewAuthorityFake(copies),
		catalog:   testdoubles.NewCatalogStub(items...),
		clock:     clock,
		logger:    testdoubles.NewContextualLoggerSpy(),
	}

	options = append([]reservation.Option{
		reservation.WithClock(clock.Now),
		reservation.WithIDGenerator(core.NewSequenceIDGenerator()),
		reservation.WithContextualLogger(f.logger),
	}, options...)

	f.service, err = reservation.NewService(f.store, f.authority, f.catalog, options...)
	require.NoError(t, err)

	return f
}

func (f fixture) copyStatus(t *testing.T, itemID int64) authority.Status {
	t.Helper()

	record, err := f.copies.Copy(context.Background(), itemID, branch)
	require.NoError(t, err)

	return record.Status
}

func Test_CreateReservation(t *testing.T) {
	// arrange
	f := newFixture(t)

	// act
	view, err := f.service.CreateReservation(context.Background(), 1, branch, user)

	// assert
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusActive, view.Status)
	assert.Equal(t, fakeStart, view.ReservedAt)
	assert.Equal(t, fakeStart.AddDate(0, 0, 3), view.ExpiresAt)
	assert.Equal(t, "Item A", view.Title, "the reservation is enriched from the catalog")
	assert.Equal(t, authority.StatusReserved, f.copyStatus(t, 1))
}

func Test_CreateReservation_QuotaExceeded(t *testing.T) {
	// arrange
	f := newFixture(t)
	for itemID := int64(1); itemID <= 3; itemID++ {
		_, err := f.service.CreateReservation(context.Background(), itemID, branch, user)
		require.NoError(t, err)
	}

	// act
	_, err := f.service.CreateReservation(context.Background(), 4, branch, user)

	// assert
	assert.ErrorIs(t, err, core.ErrQuotaExceeded)
	assert.Len(t, f.store.All(), 3, "no ledger write may happen")
	assert.Equal(t, authority.StatusAvailable, f.copyStatus(t, 4))
}

func Test_CreateReservation_GuardRejections_WriteNothing(t *testing.T) {
	testCases := []struct {
		name     string
		given    func(t *testing.T, f fixture)
		branchID int64
		expected error
	}{
		{
			name: "rented by another user",
			given: func(t *testing.T, f fixture) {
				_, err := f.copies.Rent(context.Background(), 1, branch, 7, fakeStart, fakeStart.AddDate(0, 0, 14))
				require.NoError(t, err)
			},
			branchID: branch,
			expected: core.ErrInvalidState,
		},
		{
			name: "reserved by another user",
			given: func(t *testing.T, f fixture) {
				_, err := f.copies.Reserve(context.Background(), 1, branch, 7, fakeStart, fakeStart.AddDate(0, 0, 3))
				require.NoError(t, err)
			},
			branchID: branch,
			expected: core.ErrInvalidState,
		},
		{
			name:     "copy not stocked at the branch",
			given:    func(*testing.T, fixture) {},
			branchID: 2,
			expected: core.ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			f := newFixture(t)
			tc.given(t, f)

			// act
			_, err := f.service.CreateReservation(context.Background(), 1, tc.branchID, user)

			// assert
			assert.ErrorIs(t, err, tc.expected)
			assert.NotErrorIs(t, err, core.ErrLedgerAhead)
			assert.Empty(t, f.store.All(), "a rejected reservation leaves no ledger row")
			assert.NotContains(t, f.authority.Calls(), testdoubles.AuthorityReserve)
		})
	}
}

func Test_CreateReservation_RejectedAttemptIsNotListedOrCounted(t *testing.T) {
	// arrange
	f := newFixture(t, reservation.WithMaxActiveReservations(1))
	_, err := f.service.CreateReservation(context.Background(), 1, branch, user)
	require.NoError(t, err)

	// act
	_, rejected := f.service.CreateReservation(context.Background(), 1, branch, 7)
	mine, listErr := f.service.MyReservations(context.Background(), 7)
	_, next := f.service.CreateReservation(context.Background(), 2, branch, 7)

	// assert
	assert.ErrorIs(t, rejected, core.ErrInvalidState)
	require.NoError(t, listErr)
	assert.Empty(t, mine)
	require.NoError(t, next, "the rejected attempt does not use up the quota")

	record, err := f.copies.Copy(context.Background(), 1, branch)
	require.NoError(t, err)
	assert.True(t, record.IsReservedBy(user), "the holder keeps the copy")
}

func Test_CreateReservation_AuthorityUnreachableAfterTheWrite_LedgerIsKept(t *testing.T) {
	// arrange
	f := newFixture(t)
	f.authority.FailOn(testdoubles.AuthorityReserve, errors.Join(core.ErrRemoteUnavailable, errors.New("timeout")))

	// act
	_, err := f.service.CreateReservation(context.Background(), 1, branch, user)

	// assert
	assert.ErrorIs(t, err, core.ErrLedgerAhead)
	assert.Equal(t, core.KindRemoteUnavailable, core.KindOf(err))
	require.Len(t, f.store.All(), 1)
	assert.Equal(t, reservation.StatusActive, f.store.All()[0].Status, "the ledger row is not rolled back")
	assert.True(t, f.logger.HasLog("error", "reservation ledger written but authority not updated"))
}

func Test_CreateReservation_AuthorityUnreachableBeforeTheWrite(t *testing.T) {
	f := newFixture(t)
	f.authority.FailOn(testdoubles.AuthorityCopy, errors.Join(core.ErrRemoteUnavailable, errors.New("timeout")))

	_, err := f.service.CreateReservation(context.Background(), 1, branch, user)

	assert.ErrorIs(t, err, core.ErrRemoteUnavailable)
	assert.NotErrorIs(t, err, core.ErrLedgerAhead)
	assert.Empty(t, f.store.All())
}

func Test_CreateReservation_CatalogDownStillReserves(t *testing.T) {
	f := newFixture(t)
	f.catalog.FailWith(errors.Join(core.ErrRemoteUnavailable, errors.New("timeout")))

	view, err := f.service.CreateReservation(context.Background(), 1, branch, user)

	require.NoError(t, err)
	assert.Empty(t, view.Title)
	assert.True(t, f.logger.HasLog("warn", "enriching reservations failed, returning them without titles"))
}

func Test_CancelReservation(t *testing.T) {
	// arrange
	f := newFixture(t)
	view, err := f.service.CreateReservation(context.Background(), 1, branch, user)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)

	// act
	err = f.service.CancelReservation(context.Background(), view.ID, user)

	// assert
	require.NoError(t, err)

	entry, err := f.store.Find(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusCancelled, entry.Status)
	assert.Equal(t, fakeStart.Add(time.Hour), *entry.ResolvedAt)
	assert.Equal(t, authority.StatusAvailable, f.copyStatus(t, 1))
}

func Test_CancelReservation_OtherUsersReservation(t *testing.T) {
	// arrange
	f := newFixture(t)
	view, err := f.service.CreateReservation(context.Background(), 1, branch, user)
	require.NoError(t, err)

	// act
	err = f.service.CancelReservation(context.Background(), view.ID, 7)

	// assert
	assert.ErrorIs(t, err, core.ErrForbidden)

	entry, err := f.store.Find(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusActive, entry.Status)
	assert.Equal(t, authority.StatusReserved, f.copyStatus(t, 1))
}

func Test_CancelReservation_LeftoverEntryCannotReleaseAnotherUsersHold(t *testing.T) {
	// arrange
	f := newFixture(t)
	_, err := f.service.CreateReservation(context.Background(), 1, branch, user)
	require.NoError(t, err)
	leftover := givenLeftoverEntry(t, f, 1, 7, fakeStart.AddDate(0, 0, 3))

	// act
	err = f.service.CancelReservation(context.Background(), leftover.ID, 7)

	// assert
	require.NoError(t, err)

	entry, err := f.store.Find(context.Background(), leftover.ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusCancelled, entry.Status)

	record, err := f.copies.Copy(context.Background(), 1, branch)
	require.NoError(t, err)
	assert.True(t, record.IsReservedBy(user), "the holder keeps the copy")
	assert.NotContains(t, f.authority.Calls(), testdoubles.AuthorityCancelReservation)
	assert.True(t, f.logger.HasLog("warn", "copy is not held for this reservation, cancelling it in the ledger only"))
}

func Test_CancelReservation_UnknownOrResolved(t *testing.T) {
	f := newFixture(t)
	view, err := f.service.CreateReservation(context.Background(), 1, branch, user)
	require.NoError(t, err)
	require.NoError(t, f.service.CancelReservation(context.Background(), view.ID, user))

	assert.ErrorIs(t, f.service.CancelReservation(context.Background(), uuid.New(), user), core.ErrNotFound)
	assert.ErrorIs(t, f.service.CancelReservation(context.Background(), view.ID, user), core.ErrInvalidState,
		"a terminal status is never re-resolved")
}

func Test_FulfillReservation(t *testing.T) {
	// arrange
	f := newFixture(t)
	view, err := f.service.CreateReservation(context.Background(), 1, branch, user)
	require.NoError(t, err)

	// act
	first := f.service.FulfillReservation(context.Background(), 1, branch, user)
	second := f.service.FulfillReservation(context.Background(), 1, branch, user)

	// assert
	require.NoError(t, first)
	require.NoError(t, second, "fulfilling twice is a no-op")

	entry, err := f.store.Find(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusFulfilled, entry.Status)
}

func Test_MyReservations_OnlyActiveNewestFirst(t *testing.T) {
	// arrange
	f := newFixture(t)
	first, err := f.service.CreateReservation(context.Background(), 1, branch, user)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.service.CreateReservation(context.Background(), 2, branch, user)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	cancelled, err := f.service.CreateReservation(context.Background(), 3, branch, user)
	require.NoError(t, err)
	require.NoError(t, f.service.CancelReservation(context.Background(), cancelled.ID, user))

	// act
	views, err := f.service.MyReservations(context.Background(), user)

	// assert
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, int64(2), views[0].ItemID)
	assert.Equal(t, first.ID, views[1].ID)
	assert.Equal(t, "Item B", views[0].Title)
}

// givenLeftoverEntry stores an ACTIVE entry the authority never confirmed,
// as left behind when the authority became unreachable after the ledger write.
func givenLeftoverEntry(t *testing.T, f fixture, itemID, userID int64, expiresAt time.Time) reservation.Entry {
	t.Helper()

	entry := reservation.Entry{
		ID:         uuid.New(),
		ItemID:     itemID,
		UserID:     userID,
		BranchID:   branch,
		ReservedAt: fakeStart,
		ExpiresAt:  expiresAt,
		Status:     reservation.StatusActive,
	}
	require.NoError(t, f.store.Insert(context.Background(), entry))

	return entry
}
