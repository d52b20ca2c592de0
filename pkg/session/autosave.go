package session

import (
	"context"
	"sync"
	"time"

	"github.com/c9s/chartdesk/pkg/metrics"
	"github.com/c9s/chartdesk/pkg/service"
	"github.com/c9s/chartdesk/pkg/util"
	"github.com/c9s/chartdesk/pkg/util/backoff"
)

const (
	DefaultQuietPeriod = 750 * time.Millisecond
	DefaultSaveRetries = 3
)

// AutoSaver coalesces change notifications into one write after a quiet
// period. A failed write is logged and counted; the in-memory state is
// never rolled back.
type AutoSaver struct {
	mu sync.Mutex

	store      service.Store
	snapshot   func() State
	quiet      time.Duration
	maxRetries uint64

	timer   *time.Timer
	pending bool
	stopped bool

	// serializes writes, so a flush never races the timer
	saveMu sync.Mutex

	logger *util.WarnFirstLogger
}

func NewAutoSaver(store service.Store, quiet time.Duration, snapshot func() State) *AutoSaver {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}

	return &AutoSaver{
		store:      store,
		snapshot:   snapshot,
		quiet:      quiet,
		maxRetries: DefaultSaveRetries,
		logger:     util.NewWarnFirstLogger(3, time.Minute, log),
	}
}

// Notify schedules a write; every call inside the quiet period pushes it back.
func (a *AutoSaver) Notify() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return
	}

	a.pending = true
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.quiet, a.fire)
}

func (a *AutoSaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

func (a *AutoSaver) fire() {
	if err := a.Flush(); err != nil {
		a.logger.WarnOrError(err, "autosave failed")
	}
}

// Flush writes a pending change immediately.
func (a *AutoSaver) Flush() error {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}

	if !a.pending {
		a.mu.Unlock()
		return nil
	}

	a.pending = false
	a.mu.Unlock()

	return a.save()
}

// Stop cancels a pending write and ignores later notifications.
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopped = true
	a.pending = false
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *AutoSaver) save() error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	state := a.snapshot()
	state.UpdatedAt = time.Now()

	err := backoff.Retry(context.Background(), a.maxRetries, func() error {
		return a.store.Save(&state)
	})
	if err != nil {
		metrics.AutoSaveTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.AutoSaveTotal.WithLabelValues("ok").Inc()
	log.Debugf("saved session %s: %d annotations", state.Symbol, len(state.Annotations))
	return nil
}
