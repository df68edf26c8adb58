package shell

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const (
	logMsgPeriodicSkipped  = "periodic task still running, skipping tick"
	logMsgPeriodicFailed   = "periodic task failed"
	logMsgPeriodicPanicked = "periodic task panicked"
	logMsgPeriodicStopped  = "periodic task stopped"
	logAttrTask            = "task"
)

// PeriodicTask runs a function on a fixed interval.
//
// A tick that arrives while the previous run is still in progress is skipped.
// A failing or panicking run is logged and never stops the task.
type PeriodicTask struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
	obs      Observability
	running  atomic.Bool
	inFlight sync.WaitGroup
}

// NewPeriodicTask creates a PeriodicTask. It does nothing until Start is called.
func NewPeriodicTask(name string, interval time.Duration, run func(ctx context.Context) error, obs Observability) *PeriodicTask {
	return &PeriodicTask{
		name:     name,
		interval: interval,
		run:      run,
		obs:      obs,
	}
}

// Start runs the task on every tick until ctx is done, then waits for an in-flight run to finish.
func (t *PeriodicTask) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.inFlight.Wait()
			t.obs.Info(ctx, logMsgPeriodicStopped, logAttrTask, t.name)

			return

		case <-ticker.C:
			if !t.running.CompareAndSwap(false, true) {
				t.obs.Warn(ctx, logMsgPeriodicSkipped, logAttrTask, t.name)
				continue
			}

			t.inFlight.Add(1)
			go func() {
				defer t.inFlight.Done()
				defer t.running.Store(false)

				t.runOnce(ctx)
			}()
		}
	}
}

// Trigger runs the task once, synchronously, unless a run is already in progress.
// It reports whether the task ran.
func (t *PeriodicTask) Trigger(ctx context.Context) bool {
	if !t.running.CompareAndSwap(false, true) {
		t.obs.Warn(ctx, logMsgPeriodicSkipped, logAttrTask, t.name)
		return false
	}
	defer t.running.Store(false)

	t.runOnce(ctx)

	return true
}

func (t *PeriodicTask) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			t.obs.Error(ctx, logMsgPeriodicPanicked, logAttrTask, t.name, LogAttrError, fmt.Sprint(r))
		}
	}()

	if err := t.run(ctx); err != nil {
		t.obs.Error(ctx, logMsgPeriodicFailed, logAttrTask, t.name, LogAttrError, err.Error())
	}
}
