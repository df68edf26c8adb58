package reservation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-inventory/authority"
	"github.com/AntonStoeckl/library-inventory/reservation"
	"github.com/AntonStoeckl/library-inventory/testutil/testdoubles"
)

func Test_SweepOnce_ExpiresOverdueReservation(t *testing.T) {
	// arrange
	f := newFixture(t)
	view, err := f.service.CreateReservation(context.Background(), 1, branch, user)
	require.NoError(t, err)
	f.clock.Advance(3*24*time.Hour + time.Hour)

	// act
	report, err := f.service.NewSweeper(time.Hour).SweepOnce(context.Background())

	// assert
	require.NoError(t, err)
	assert.Equal(t, reservation.SweepReport{Expired: 1}, report)

	entry, err := f.store.Find(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusExpired, entry.Status)
	assert.Equal(t, f.clock.Now(), *entry.ResolvedAt)
	assert.Equal(t, authority.StatusAvailable, f.copyStatus(t, 1))
}

func Test_SweepOnce_LeavesUnexpiredReservations(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.CreateReservation(context.Background(), 1, branch, user)
	require.NoError(t, err)
	f.clock.Advance(24 * time.Hour)

	report, err := f.service.NewSweeper(time.Hour).SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, reservation.SweepReport{}, report)
	assert.Equal(t, authority.StatusReserved, f.copyStatus(t, 1))
}

func Test_SweepOnce_CopyRentedByTheHolderIsFulfilled(t *testing.T) {
	// arrange
	f := newFixture(t)
	view, err := f.service.CreateReservation(context.Background(), 1, branch, user)
	require.NoError(t, err)
	_, err = f.copies.Rent(context.Background(), 1, branch, user, fakeStart, fakeStart.AddDate(0, 0, 14))
	require.NoError(t, err)
	f.clock.Advance(4 * 24 * time.Hour)

	// act
	report, err := f.service.NewSweeper(time.Hour).SweepOnce(context.Background())

	// assert
	require.NoError(t, err)
	assert.Equal(t, reservation.SweepReport{Fulfilled: 1}, report)
	assert.Equal(t, authority.StatusRented, f.copyStatus(t, 1), "the rental must survive the sweep")
	assert.NotContains(t, f.authority.Calls(), testdoubles.AuthorityForceAvailable)

	entry, err := f.store.Find(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusFulfilled, entry.Status)
}

func Test_SweepOnce_LeftoverEntryCannotReleaseAnotherUsersHold(t *testing.T) {
	// arrange
	f := newFixture(t)
	leftover := givenLeftoverEntry(t, f, 1, 7, fakeStart.Add(time.Hour))
	_, err := f.service.CreateReservation(context.Background(), 1, branch, user)
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)

	// act
	report, err := f.service.NewSweeper(time.Hour).SweepOnce(context.Background())

	// assert
	require.NoError(t, err)
	assert.Equal(t, reservation.SweepReport{Expired: 1}, report)
	assert.NotContains(t, f.authority.Calls(), testdoubles.AuthorityForceAvailable)

	entry, err := f.store.Find(context.Background(), leftover.ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusExpired, entry.Status)

	record, err := f.copies.Copy(context.Background(), 1, branch)
	require.NoError(t, err)
	assert.True(t, record.IsReservedBy(user), "the holder keeps the copy")
}

func Test_SweepOnce_IsolatesPerEntryFailures(t *testing.T) {
	// arrange
	f := newFixture(t)
	_, err := f.service.CreateReservation(context.Background(), 1, branch, user)
	require.NoError(t, err)
	require.NoError(t, f.store.Insert(context.Background(), reservation.Entry{
		ID:         uuid.New(),
		ItemID:     99,
		UserID:     user,
		BranchID:   branch,
		ReservedAt: fakeStart,
		ExpiresAt:  fakeStart.Add(time.Hour),
		Status:     reservation.StatusActive,
	}))
	_, err = f.service.CreateReservation(context.Background(), 2, branch, 6)
	require.NoError(t, err)
	f.clock.Advance(4 * 24 * time.Hour)

	// act
	report, err := f.service.NewSweeper(time.Hour).SweepOnce(context.Background())

	// assert
	require.NoError(t, err)
	assert.Equal(t, reservation.SweepReport{Expired: 2, Failed: 1}, report, "the unknown copy must not block the others")
	assert.Equal(t, authority.StatusAvailable, f.copyStatus(t, 1))
	assert.Equal(t, authority.StatusAvailable, f.copyStatus(t, 2))
	assert.True(t, f.logger.HasLog("warn", "looking up the copy of an expired reservation failed"))
}

func Test_SweepOnce_OverlappingSweepsResolveOnce(t *testing.T) {
	// arrange
	f := newFixture(t)
	view, err := f.service.CreateReservation(context.Background(), 1, branch, user)
	require.NoError(t, err)
	f.clock.Advance(4 * 24 * time.Hour)

	sweeper := f.service.NewSweeper(time.Hour)

	var inner reservation.SweepReport
	interleaved := false
	f.store.BeforeResolve = func(_ uuid.UUID) {
		if interleaved {
			return
		}

		interleaved = true
		inner, err = sweeper.SweepOnce(context.Background())
		require.NoError(t, err)
	}

	// act
	outer, err := sweeper.SweepOnce(context.Background())

	// assert
	require.NoError(t, err)
	assert.Equal(t, reservation.SweepReport{Expired: 1}, inner)
	assert.Equal(t, reservation.SweepReport{Skipped: 1}, outer, "the second update must be a no-op")

	forced := 0
	for _, call := range f.authority.Calls() {
		if call == testdoubles.AuthorityForceAvailable {
			forced++
		}
	}
	assert.Equal(t, 1, forced)

	entry, err := f.store.Find(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusExpired, entry.Status)
}

func Test_SweepOnce_CancelledBeforeExpiryIsNotTouched(t *testing.T) {
	f := newFixture(t)
	view, err := f.service.CreateReservation(context.Background(), 1, branch, user)
	require.NoError(t, err)
	require.NoError(t, f.service.CancelReservation(context.Background(), view.ID, user))
	f.clock.Advance(4 * 24 * time.Hour)

	report, err := f.service.NewSweeper(time.Hour).SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, reservation.SweepReport{}, report)
}

func Test_SweepOnce_RecordsExpiredCount(t *testing.T) {
	// arrange
	metrics := testdoubles.NewMetricsCollectorSpy()
	f := newFixture(t, reservation.WithMetrics(metrics))
	_, err := f.service.CreateReservation(context.Background(), 1, branch, user)
	require.NoError(t, err)
	f.clock.Advance(4 * 24 * time.Hour)

	// act
	_, err = f.service.NewSweeper(time.Hour).SweepOnce(context.Background())

	// assert
	require.NoError(t, err)
	records := metrics.RecordsFor("reservation_sweep_expired")
	require.Len(t, records, 1)
	assert.InDelta(t, 1.0, records[0].Value, 0.0001)
}
