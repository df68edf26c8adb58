package rental

import (
	"context"
	"errors"
	"time"

	"github.com/AntonStoeckl/library-inventory/shell"
)

const (
	// DefaultReminderDaysBeforeDue is how many days ahead of the due date a reminder goes out.
	DefaultReminderDaysBeforeDue = 3

	opSendReminders        = "rental.send_reminders"
	logMsgReminderFailed   = "sending rental reminder failed"
	logMsgRemindersSent    = "rental reminders sent"
	logAttrRemindersSent   = "sent"
	logAttrRemindersFailed = "failed"
	metricRemindersSent    = "rental_reminders_sent"
)

// ErrNilNotifier is returned when a ReminderJob is created without a notifier.
var ErrNilNotifier = errors.New("reminder notifier must not be nil")

// ReminderReport summarizes one reminder run.
type ReminderReport struct {
	Sent   int
	Failed int
}

// ReminderJob reminds users of rentals that are due in a fixed number of days.
type ReminderJob struct {
	store         Store
	notifier      ReminderNotifier
	daysBeforeDue int
	clock         func() time.Time
	obs           shell.Observability
}

// NewReminderJob creates a ReminderJob that shares the store, clock and observability of s.
// A non-positive daysBeforeDue selects DefaultReminderDaysBeforeDue.
func (s *Service) NewReminderJob(notifier ReminderNotifier, daysBeforeDue int) (*ReminderJob, error) {
	if notifier == nil {
		return nil, ErrNilNotifier
	}

	if daysBeforeDue <= 0 {
		daysBeforeDue = DefaultReminderDaysBeforeDue
	}

	return &ReminderJob{
		store:         s.store,
		notifier:      notifier,
		daysBeforeDue: daysBeforeDue,
		clock:         s.clock,
		obs:           s.obs,
	}, nil
}

// RunOnce notifies about every active rental that is due on the calendar day daysBeforeDue from now.
// A failing notification is logged and does not stop the others.
func (j *ReminderJob) RunOnce(ctx context.Context) (ReminderReport, error) {
	var report ReminderReport

	err := j.obs.Observe(ctx, opSendReminders, nil, func(ctx context.Context) error {
		from, to := dayWindow(j.clock(), j.daysBeforeDue)

		due, err := j.store.ListActiveDueBetween(ctx, from, to)
		if err != nil {
			return err
		}

		for _, entry := range due {
			reminder := DueSoon{
				EntryID:  entry.ID,
				ItemID:   entry.ItemID,
				BranchID: entry.BranchID,
				UserID:   entry.UserID,
				DueDate:  entry.DueDate,
			}

			if err := j.notifier.PublishRentalDueSoon(ctx, reminder); err != nil {
				report.Failed++
				j.obs.Warn(ctx, logMsgReminderFailed,
					shell.LogAttrEntryID, entry.ID.String(),
					shell.LogAttrUserID, entry.UserID,
					shell.LogAttrError, err.Error(),
				)

				continue
			}

			report.Sent++
		}

		j.obs.Info(ctx, logMsgRemindersSent, logAttrRemindersSent, report.Sent, logAttrRemindersFailed, report.Failed)
		j.obs.RecordValue(ctx, metricRemindersSent, float64(report.Sent), nil)

		return nil
	})

	return report, err
}

// Run calls RunOnce on every tick of interval until ctx is done.
func (j *ReminderJob) Run(ctx context.Context, interval time.Duration) {
	shell.NewPeriodicTask(opSendReminders, interval, func(ctx context.Context) error {
		_, err := j.RunOnce(ctx)
		return err
	}, j.obs).Start(ctx)
}

// dayWindow returns [start of the day, start of the next day) for the calendar day days after now.
func dayWindow(now time.Time, days int) (time.Time, time.Time) {
	day := now.AddDate(0, 0, days)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

	return start, start.AddDate(0, 0, 1)
}
