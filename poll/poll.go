// Package poll runs a function on a fixed interval with an explicit
// start/stop lifecycle. Ticks are numbered: a slow tick that completes
// after a newer one has already applied its result is dropped instead of
// overwriting fresher state.
package poll

import (
	"context"
	"sync"
	"time"
)

// Gate is handed to each tick. Results must be applied through Apply so
// out-of-order completions never clobber newer ones.
type Gate struct {
	seq   uint64
	guard *guard
}

// Apply runs f only if no tick newer than this one has applied yet.
// It reports whether f ran.
func (g *Gate) Apply(f func()) bool {
	g.guard.mu.Lock()
	defer g.guard.mu.Unlock()

	if g.seq < g.guard.applied {
		return false
	}
	g.guard.applied = g.seq
	f()
	return true
}

type guard struct {
	mu      sync.Mutex
	applied uint64
}

type Task struct {
	interval time.Duration
	fn       func(ctx context.Context, g *Gate)

	guard *guard

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTask(interval time.Duration, fn func(ctx context.Context, g *Gate)) *Task {
	return &Task{
		interval: interval,
		fn:       fn,
		guard:    &guard{},
	}
}

// Start begins ticking. Each tick runs on its own goroutine so a slow
// poll cannot delay the next one. Calling Start on a running task is a
// no-op.
func (t *Task) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		var seq uint64
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				seq++
				g := &Gate{seq: seq, guard: t.guard}

				t.wg.Add(1)
				go func() {
					defer t.wg.Done()
					t.fn(ctx, g)
				}()
			}
		}
	}()
}

// Stop cancels the tick loop and waits for in-flight ticks to return.
func (t *Task) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	t.wg.Wait()
}
