package poll

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestGateDropsStaleResult(t *testing.T) {
	g := &guard{}

	newer := &Gate{seq: 2, guard: g}
	stale := &Gate{seq: 1, guard: g}

	var got string
	if ok := newer.Apply(func() { got = "newer" }); !ok {
		t.Fatal("newer result should apply")
	}

	// The slow first tick completes after the second one: dropped.
	if ok := stale.Apply(func() { got = "stale" }); ok {
		t.Fatal("stale result must not apply")
	}

	if got != "newer" {
		t.Fatalf("state overwritten by stale result: %q", got)
	}
}

func TestGateAppliesInOrder(t *testing.T) {
	g := &guard{}

	var got string
	for i, v := range []string{"a", "b", "c"} {
		gate := &Gate{seq: uint64(i + 1), guard: g}
		v := v
		if ok := gate.Apply(func() { got = v }); !ok {
			t.Fatalf("in-order result %d should apply", i+1)
		}
	}

	if got != "c" {
		t.Fatalf("expected latest result, got %q", got)
	}
}

func TestTaskStartStop(t *testing.T) {
	var mu sync.Mutex
	var ticks int

	task := NewTask(5*time.Millisecond, func(ctx context.Context, g *Gate) {
		g.Apply(func() {
			mu.Lock()
			ticks++
			mu.Unlock()
		})
	})

	task.Start()
	time.Sleep(30 * time.Millisecond)
	task.Stop()

	mu.Lock()
	n := ticks
	mu.Unlock()

	if n == 0 {
		t.Fatal("task never ticked")
	}

	// No ticks after Stop.
	time.Sleep(15 * time.Millisecond)
	mu.Lock()
	if ticks != n {
		t.Fatalf("task ticked after Stop: %d -> %d", n, ticks)
	}
	mu.Unlock()
}

func TestTaskStartTwiceIsNoop(t *testing.T) {
	task := NewTask(time.Hour, func(context.Context, *Gate) {})
	task.Start()
	task.Start()
	task.Stop()
	task.Stop()
}
