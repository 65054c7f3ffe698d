package background

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Background runs best-effort tasks on their own goroutines and lets the
// server wait for them during shutdown. A panicking task is recovered and
// logged, never propagated.
type Background struct {
	log logrus.FieldLogger
	wg  sync.WaitGroup
}

func New(log logrus.FieldLogger) *Background {
	return &Background{log: log}
}

func (b *Background) Add(task func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				b.log.WithField("panic", fmt.Sprintf("%v", rec)).Error("background task panicked")
			}
		}()
		task()
	}()
}

func (b *Background) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background tasks: %w", ctx.Err())
	}
}
