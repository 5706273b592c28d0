// Package poller implements the two summary polling loops: the per-lecture
// status poller and the per-course settlement poller. Each polling session is
// a Task with its own goroutine, ticker and cancellation flag.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Task is the handle of one polling session. Ticks run on a single goroutine,
// so they never overlap. Stop is synchronous: once it returns no tick of the
// session mutates state, even if a request issued earlier completes later.
type Task struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	stopped atomic.Bool
}

func newTask(parent context.Context) *Task {
	ctx, cancel := context.WithCancel(parent)
	return &Task{ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// Stop marks the session stopped and aborts its in-flight request. It may be
// called any number of times from any goroutine, but not from an observer
// callback of the same session.
func (t *Task) Stop() {
	t.mu.Lock()
	t.stopped.Store(true)
	t.mu.Unlock()
	t.cancel()
}

// Stopped reports whether the session has ended or been stopped.
func (t *Task) Stopped() bool {
	return t.stopped.Load()
}

// Done is closed when the session goroutine has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// guard runs fn under the task lock if the session is still live. Parent
// context cancellation counts as a stop.
func (t *Task) guard(fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped.Load() {
		return false
	}
	if t.ctx.Err() != nil {
		t.stopped.Store(true)
		return false
	}
	if fn != nil {
		fn()
	}
	return true
}

// settle is guard followed by a stop, applied atomically. It is how a tick
// records the terminal outcome of a session.
func (t *Task) settle(fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped.Load() || t.ctx.Err() != nil {
		t.stopped.Store(true)
		return false
	}
	if fn != nil {
		fn()
	}
	t.stopped.Store(true)
	return true
}

// loop calls tick every interval, first immediately when immediate is set,
// until tick returns false or the session is stopped. The ticker is stopped
// before loop returns.
func (t *Task) loop(interval time.Duration, immediate bool, tick func(ctx context.Context) bool) {
	if immediate {
		if !tick(t.ctx) || t.Stopped() {
			return
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			t.guard(nil)
			return
		case <-ticker.C:
			if t.Stopped() {
				return
			}
			if !tick(t.ctx) || t.Stopped() {
				return
			}
		}
	}
}

// exit releases the session context and signals Done. It must be deferred by
// the session goroutine.
func (t *Task) exit() {
	t.mu.Lock()
	t.stopped.Store(true)
	t.mu.Unlock()
	t.cancel()
	close(t.done)
}
