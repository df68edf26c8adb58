package rental_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-inventory/authority"
	"github.com/AntonStoeckl/library-inventory/catalog"
	"github.com/AntonStoeckl/library-inventory/core"
	"github.com/AntonStoeckl/library-inventory/rental"
	"github.com/AntonStoeckl/library-inventory/shell"
	"github.com/AntonStoeckl/library-inventory/testutil/memstore"
	"github.com/AntonStoeckl/library-inventory/testutil/testdoubles"
)

var (
	fakeNow   = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	duneInfo  = catalog.ItemInfo{ID: bookID, Title: "Dune", Kind: "BOOK"}
	alienInfo = catalog.ItemInfo{ID: videoID, Title: "Alien", Kind: "MOVIE_DISC"}
)

const (
	bookID  int64 = 1
	videoID int64 = 2
	branch  int64 = 1
	user    int64 = 5
)

type fixture struct {
	service   *rental.Service
	store     *memstore.RentalStore
	copies    *authority.Service
	authority *testdoubles.AuthorityFake
	catalog   *testdoubles.CatalogStub
	logger    *testdoubles.ContextualLoggerSpy
}

func newFixture(t *testing.T, options ...rental.Option) fixture {
	t.Helper()

	copies, err := authority.NewService(memstore.NewCopyStore(),
		authority.WithClock(func() time.Time { return fakeNow }),
		authority.WithRetryOptions(shell.WithBaseDelay(time.Millisecond)),
	)
	require.NoError(t, err)

	for itemID := int64(1); itemID <= 10; itemID++ {
		_, err := copies.AddInventory(context.Background(), itemID, branch)
		require.NoError(t, err)
	}

	items := []catalog.ItemInfo{duneInfo, alienInfo}
	for itemID := int64(3); itemID <= 10; itemID++ {
		items = append(items, catalog.ItemInfo{ID: itemID, Kind: "BOOK"})
	}

	f := fixture{
		store:     memstore.NewRentalStore(),
		copies:    copies,
		authority: testdoubles.NewAuthorityFake(copies),
		catalog:   testdoubles.NewCatalogStub(items...),
		logger:    testdoubles.NewContextualLoggerSpy(),
	}

	options = append([]rental.Option{
		rental.WithClock(func() time.Time { return fakeNow }),
		rental.WithIDGenerator(core.NewSequenceIDGenerator()),
		rental.WithContextualLogger(f.logger),
	}, options...)

	f.service, err = rental.NewService(f.store, f.authority, f.catalog, options...)
	require.NoError(t, err)

	return f
}

func Test_RentCopy_DueDateFollowsItemKind(t *testing.T) {
	testCases := []struct {
		name    string
		itemID  int64
		dueDate time.Time
	}{
		{name: "book", itemID: bookID, dueDate: fakeNow.AddDate(0, 0, 14)},
		{name: "video", itemID: videoID, dueDate: fakeNow.AddDate(0, 0, 7)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			f := newFixture(t)

			// act
			entry, err := f.service.RentCopy(context.Background(), tc.itemID, user, branch)

			// assert
			require.NoError(t, err)
			assert.Equal(t, tc.dueDate, entry.DueDate)
			assert.Equal(t, rental.StatusRented, entry.Status)
			assert.Equal(t, fakeNow, entry.RentedAt)

			record, err := f.copies.Copy(context.Background(), tc.itemID, branch)
			require.NoError(t, err)
			assert.Equal(t, authority.StatusRented, record.Status)
			assert.Equal(t, tc.dueDate, *record.DueDate, "ledger and authority agree on the due date")
		})
	}
}

func Test_RentCopy_QuotaExceeded(t *testing.T) {
	// arrange
	f := newFixture(t)
	for itemID := int64(3); itemID <= 7; itemID++ {
		_, err := f.service.RentCopy(context.Background(), itemID, user, branch)
		require.NoError(t, err)
	}
	callsBefore := len(f.authority.Calls())

	// act
	_, err := f.service.RentCopy(context.Background(), 8, user, branch)

	// assert
	assert.ErrorIs(t, err, core.ErrQuotaExceeded)
	assert.Len(t, f.store.All(), 5, "no ledger write may happen")
	assert.Len(t, f.authority.Calls(), callsBefore, "the authority must not be called")
}

func Test_RentCopy_ConfigurableQuota(t *testing.T) {
	f := newFixture(t, rental.WithMaxActiveRentals(1))
	_, err := f.service.RentCopy(context.Background(), bookID, user, branch)
	require.NoError(t, err)

	_, err = f.service.RentCopy(context.Background(), videoID, user, branch)

	assert.ErrorIs(t, err, core.ErrQuotaExceeded)
}

func Test_RentCopy_CatalogUnavailable(t *testing.T) {
	// arrange
	f := newFixture(t)
	f.catalog.FailWith(errors.Join(core.ErrRemoteUnavailable, errors.New("connection refused")))

	// act
	_, err := f.service.RentCopy(context.Background(), bookID, user, branch)

	// assert
	assert.ErrorIs(t, err, core.ErrRemoteUnavailable)
	assert.NotErrorIs(t, err, core.ErrLedgerAhead)
	assert.Empty(t, f.store.All(), "nothing is written without a due date")
}

func Test_RentCopy_GuardRejections_WriteNothing(t *testing.T) {
	testCases := []struct {
		name     string
		given    func(t *testing.T, f fixture)
		branchID int64
		expected error
	}{
		{
			name: "reserved by another user",
			given: func(t *testing.T, f fixture) {
				_, err := f.copies.Reserve(context.Background(), bookID, branch, 7, fakeNow, fakeNow.AddDate(0, 0, 2))
				require.NoError(t, err)
			},
			branchID: branch,
			expected: core.ErrReservationConflict,
		},
		{
			name: "rented by another user",
			given: func(t *testing.T, f fixture) {
				_, err := f.copies.Rent(context.Background(), bookID, branch, 7, fakeNow, fakeNow.AddDate(0, 0, 14))
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
			_, err := f.service.RentCopy(context.Background(), bookID, user, tc.branchID)

			// assert
			assert.ErrorIs(t, err, tc.expected)
			assert.NotErrorIs(t, err, core.ErrLedgerAhead)
			assert.Empty(t, f.store.All(), "a rejected rent leaves no ledger row")
			assert.NotContains(t, f.authority.Calls(), testdoubles.AuthorityRent)
		})
	}
}

func Test_RentCopy_RejectedAttemptCannotHijackTheRentersReturn(t *testing.T) {
	// arrange
	f := newFixture(t)
	rented, err := f.service.RentCopy(context.Background(), bookID, user, branch)
	require.NoError(t, err)
	_, err = f.service.RentCopy(context.Background(), bookID, 7, branch)
	require.ErrorIs(t, err, core.ErrInvalidState)

	// act
	returned, err := f.service.ReturnCopy(context.Background(), bookID, branch, user)

	// assert
	require.NoError(t, err)
	assert.Equal(t, rented.ID, returned.ID)

	entries := f.store.All()
	require.Len(t, entries, 1)
	assert.Equal(t, user, entries[0].UserID)
	assert.Equal(t, rental.StatusReturned, entries[0].Status)

	active, err := f.store.CountActiveByUser(context.Background(), user)
	require.NoError(t, err)
	assert.Zero(t, active, "the renter's quota slot is released")
}

func Test_RentCopy_AuthorityUnreachableAfterTheWrite_LedgerIsKept(t *testing.T) {
	// arrange
	f := newFixture(t)
	f.authority.FailOn(testdoubles.AuthorityRent, fmtRemote("dial tcp: connection refused"))

	// act
	_, err := f.service.RentCopy(context.Background(), bookID, user, branch)

	// assert
	assert.ErrorIs(t, err, core.ErrLedgerAhead)
	assert.ErrorIs(t, err, core.ErrRemoteUnavailable)

	entries := f.store.All()
	require.Len(t, entries, 1, "the ledger row is not rolled back")
	assert.Equal(t, rental.StatusRented, entries[0].Status)
	assert.True(t, f.logger.HasLog("error", "rental ledger written but authority not updated"))
}

func Test_RentCopy_AuthorityUnreachableBeforeTheWrite(t *testing.T) {
	f := newFixture(t)
	f.authority.FailOn(testdoubles.AuthorityCopy, fmtRemote("dial tcp: connection refused"))

	_, err := f.service.RentCopy(context.Background(), bookID, user, branch)

	assert.ErrorIs(t, err, core.ErrRemoteUnavailable)
	assert.NotErrorIs(t, err, core.ErrLedgerAhead)
	assert.Empty(t, f.store.All())
}

func Test_RentCopy_InvalidIDs(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.RentCopy(context.Background(), bookID, 0, branch)

	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func Test_ReturnCopy(t *testing.T) {
	// arrange
	f := newFixture(t)
	rented, err := f.service.RentCopy(context.Background(), bookID, user, branch)
	require.NoError(t, err)

	// act
	returned, err := f.service.ReturnCopy(context.Background(), bookID, branch, user)

	// assert
	require.NoError(t, err)
	assert.Equal(t, rented.ID, returned.ID)
	assert.Equal(t, rental.StatusReturned, returned.Status)
	assert.Equal(t, fakeNow, *returned.ReturnedAt)

	record, err := f.copies.Copy(context.Background(), bookID, branch)
	require.NoError(t, err)
	assert.Equal(t, authority.StatusAvailable, record.Status)
}

func Test_ReturnCopy_NothingRented(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.ReturnCopy(context.Background(), bookID, branch, user)

	assert.ErrorIs(t, err, core.ErrInvalidState)
	assert.Empty(t, f.authority.Calls())
}

func Test_ReturnCopy_ByAnotherUser(t *testing.T) {
	// arrange
	f := newFixture(t)
	_, err := f.service.RentCopy(context.Background(), bookID, user, branch)
	require.NoError(t, err)

	// act
	_, err = f.service.ReturnCopy(context.Background(), bookID, branch, 7)

	// assert
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.Equal(t, rental.StatusRented, f.store.All()[0].Status)

	record, err := f.copies.Copy(context.Background(), bookID, branch)
	require.NoError(t, err)
	assert.Equal(t, authority.StatusRented, record.Status)
}

func Test_ReturnCopy_Twice(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.RentCopy(context.Background(), bookID, user, branch)
	require.NoError(t, err)
	_, err = f.service.ReturnCopy(context.Background(), bookID, branch, user)
	require.NoError(t, err)

	_, err = f.service.ReturnCopy(context.Background(), bookID, branch, user)

	assert.ErrorIs(t, err, core.ErrInvalidState, "a retried return fails cleanly")
}

func Test_ReturnCopy_AuthorityUnreachable(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.RentCopy(context.Background(), bookID, user, branch)
	require.NoError(t, err)
	f.authority.FailOn(testdoubles.AuthorityReturn, fmtRemote("timeout"))

	_, err = f.service.ReturnCopy(context.Background(), bookID, branch, user)

	assert.ErrorIs(t, err, core.ErrLedgerAhead)
	assert.Equal(t, rental.StatusReturned, f.store.All()[0].Status, "the ledger shows the return anyway")
}

func Test_ExtendLoan_OnlyOnce(t *testing.T) {
	// arrange
	f := newFixture(t)
	rented, err := f.service.RentCopy(context.Background(), bookID, user, branch)
	require.NoError(t, err)

	// act
	extended, err := f.service.ExtendLoan(context.Background(), bookID, branch, user, 0)
	require.NoError(t, err)
	_, second := f.service.ExtendLoan(context.Background(), bookID, branch, user, 7)

	// assert
	assert.Equal(t, rented.DueDate.AddDate(0, 0, rental.DefaultExtensionDays), extended.DueDate, "zero days selects the default")
	assert.True(t, extended.IsExtended)
	assert.ErrorIs(t, second, core.ErrAlreadyExtended)

	record, err := f.copies.Copy(context.Background(), bookID, branch)
	require.NoError(t, err)
	assert.Equal(t, extended.DueDate, *record.DueDate)
	assert.True(t, record.RentExtended)
}

func Test_ExtendLoan_NothingRented(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.ExtendLoan(context.Background(), bookID, branch, user, 7)

	assert.ErrorIs(t, err, core.ErrInvalidState)
	assert.Empty(t, f.store.All())
}

func Test_ExtendLoan_ByAnotherUser(t *testing.T) {
	// arrange
	f := newFixture(t)
	rented, err := f.service.RentCopy(context.Background(), bookID, user, branch)
	require.NoError(t, err)

	// act
	_, err = f.service.ExtendLoan(context.Background(), bookID, branch, 7, 7)

	// assert
	assert.ErrorIs(t, err, core.ErrForbidden)

	entries := f.store.All()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].IsExtended)
	assert.Equal(t, rented.DueDate, entries[0].DueDate)
}

func Test_NewService_RejectsMissingCollaborators(t *testing.T) {
	_, err := rental.NewService(nil, nil, nil)
	assert.ErrorIs(t, err, rental.ErrNilStore)

	_, err = rental.NewService(memstore.NewRentalStore(), nil, nil)
	assert.ErrorIs(t, err, rental.ErrNilAuthority)

	_, err = rental.NewService(memstore.NewRentalStore(), testdoubles.NewAuthorityFake(nil), testdoubles.NewCatalogStub(), rental.WithMaxActiveRentals(0))
	assert.ErrorIs(t, err, rental.ErrNonPositiveLimit)
}

func fmtRemote(reason string) error {
	return errors.Join(core.ErrRemoteUnavailable, errors.New(reason))
}
