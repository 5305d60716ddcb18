// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package election tracks the active election's status against the clock.
package election

import (
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/schedule"
)

// PollInterval is how often the watcher samples the clock
const PollInterval = time.Second

// Watcher polls once per PollInterval, moving the election from upcoming to
// ongoing at StartTime and to completed at EndTime. Polling stops once the
// election is completed or Stop is called.
type Watcher struct {
	mu       sync.Mutex
	election models.Election
	sched    schedule.Scheduler
	timer    schedule.Timer
	running  bool
	onEnd    []func(models.Election)
}

func NewWatcher(e models.Election, sched schedule.Scheduler) *Watcher {
	if sched == nil {
		sched = schedule.Real{}
	}
	return &Watcher{election: e, sched: sched}
}

// OnEnd registers fn to run once when the election completes
func (w *Watcher) OnEnd(fn func(models.Election)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onEnd = append(w.onEnd, fn)
}

// Start begins polling. It is a no-op if already running.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	callbacks := w.pollLocked()
	e := w.election
	w.mu.Unlock()

	for _, fn := range callbacks {
		fn(e)
	}
}

// Stop cancels polling
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Running reports whether the watcher is still polling
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Election returns the current election record
func (w *Watcher) Election() models.Election {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.election
}

// Ended reports whether voting is over right now, without waiting for the
// next poll
func (w *Watcher) Ended() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.election.Ended(w.sched.Now())
}

func (w *Watcher) tick() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	callbacks := w.pollLocked()
	e := w.election
	w.mu.Unlock()

	for _, fn := range callbacks {
		fn(e)
	}
}

// pollLocked updates the status and reschedules. It returns the end
// callbacks to run when the election just completed.
func (w *Watcher) pollLocked() []func(models.Election) {
	now := w.sched.Now()

	if w.election.Ended(now) {
		wasCompleted := w.election.Status == models.StatusCompleted
		w.election.Status = models.StatusCompleted
		w.running = false
		w.timer = nil
		if wasCompleted {
			return nil
		}
		slog.Info("election ended", "election", w.election.Name, "end_time", w.election.EndTime)
		return w.onEnd
	}

	if w.election.Status == models.StatusUpcoming && !w.election.StartTime.IsZero() && !now.Before(w.election.StartTime) {
		w.election.Status = models.StatusOngoing
		slog.Info("election started", "election", w.election.Name)
	}

	w.timer = w.sched.After(PollInterval, w.tick)
	return nil
}
