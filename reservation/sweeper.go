package reservation

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-inventory/authority"
	"github.com/AntonStoeckl/library-inventory/shell"
)

const (
	// DefaultSweepInterval is the cadence of Sweeper.Run.
	DefaultSweepInterval = time.Hour

	opSweep             = "reservation.sweep"
	logMsgLookupFailed  = "looking up the copy of an expired reservation failed"
	logMsgExpireFailed  = "expiring reservation failed"
	logMsgReleaseFailed = "releasing expired reservation at the authority failed"
	logMsgSweepFinished = "expired reservations processed"
	metricSweepExpired  = "reservation_sweep_expired"
	logAttrExpired      = "expired"
	logAttrFulfilled    = "fulfilled"
	logAttrSkipped      = "skipped"
	logAttrFailed       = "failed"
)

// SweepReport summarizes one sweep.
//
// Expired counts entries this sweep resolved as EXPIRED. Fulfilled counts entries whose copy was found rented
// by the holder and were resolved as FULFILLED instead. Skipped counts entries that were no longer ACTIVE at
// update time. Failed counts entries whose copy lookup, ledger update or authority release failed.
type SweepReport struct {
	Expired   int
	Fulfilled int
	Skipped   int
	Failed    int
}

// Sweeper resolves reservations past their expiry.
type Sweeper struct {
	service *Service
	task    *shell.PeriodicTask
}

// NewSweeper creates a Sweeper that runs every interval. A non-positive interval selects DefaultSweepInterval.
func (s *Service) NewSweeper(interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	sweeper := &Sweeper{service: s}
	sweeper.task = shell.NewPeriodicTask(opSweep, interval, func(ctx context.Context) error {
		_, err := sweeper.SweepOnce(ctx)
		return err
	}, s.obs)

	return sweeper
}

// SweepOnce resolves every ACTIVE reservation whose expiry has passed.
//
// The copy is forced available only while the authority still holds it for the entry's user.
// An entry whose copy is rented by its holder is resolved as FULFILLED.
// Each entry is handled independently: a failure is logged and counted, and the sweep continues.
// An entry that is no longer ACTIVE when it is updated is skipped without calling the authority,
// which makes overlapping sweeps harmless.
func (w *Sweeper) SweepOnce(ctx context.Context) (SweepReport, error) {
	s := w.service
	var report SweepReport

	err := s.obs.Observe(ctx, opSweep, nil, func(ctx context.Context) error {
		now := s.clock()

		expired, err := s.store.ListExpired(ctx, now)
		if err != nil {
			return err
		}

		for _, entry := range expired {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			w.expire(ctx, entry, now, &report)
		}

		s.obs.Info(ctx, logMsgSweepFinished,
			logAttrExpired, report.Expired,
			logAttrFulfilled, report.Fulfilled,
			logAttrSkipped, report.Skipped,
			logAttrFailed, report.Failed,
		)
		s.obs.RecordValue(ctx, metricSweepExpired, float64(report.Expired), nil)

		return nil
	})

	return report, err
}

// Run sweeps on every tick until ctx is done. A tick is skipped while the previous sweep is still running.
func (w *Sweeper) Run(ctx context.Context) {
	w.task.Start(ctx)
}

// Trigger runs a sweep now unless one is in progress, and reports whether it ran.
func (w *Sweeper) Trigger(ctx context.Context) bool {
	return w.task.Trigger(ctx)
}

func (w *Sweeper) expire(ctx context.Context, entry Entry, now time.Time, report *SweepReport) {
	s := w.service

	current, err := s.authority.Copy(ctx, entry.ItemID, entry.BranchID)
	if err != nil {
		report.Failed++
		s.obs.Warn(ctx, logMsgLookupFailed,
			shell.LogAttrEntryID, entry.ID.String(),
			shell.LogAttrItemID, entry.ItemID,
			shell.LogAttrBranchID, entry.BranchID,
			shell.LogAttrError, err.Error(),
		)

		return
	}

	status := StatusExpired
	if rentedBy(current, entry.UserID) {
		status = StatusFulfilled
	}

	resolved, err := s.store.ResolveIfActive(ctx, entry.ID, status, now)
	if err != nil {
		report.Failed++
		s.obs.Warn(ctx, logMsgExpireFailed, shell.LogAttrEntryID, entry.ID.String(), shell.LogAttrError, err.Error())

		return
	}

	if !resolved {
		report.Skipped++
		return
	}

	switch {
	case status == StatusFulfilled:
		report.Fulfilled++
		return
	case !current.IsReservedBy(entry.UserID):
		report.Expired++
		return
	}

	if err := s.authority.ForceAvailable(ctx, entry.ItemID, entry.BranchID); err != nil {
		report.Failed++
		s.obs.Warn(ctx, logMsgReleaseFailed,
			shell.LogAttrEntryID, entry.ID.String(),
			shell.LogAttrItemID, entry.ItemID,
			shell.LogAttrBranchID, entry.BranchID,
			shell.LogAttrError, err.Error(),
		)

		return
	}

	report.Expired++
}

func rentedBy(current authority.CopyRecord, userID int64) bool {
	return current.Status == authority.StatusRented && current.RentedByUserID != nil && *current.RentedByUserID == userID
}
