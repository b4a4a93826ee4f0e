package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"runtime/debug"
	"time"

	"newsrelay/pkg/logger"
)

// supervise runs fn in a loop until ctx is cancelled. Panics and errors
// are logged and the loop restarts after a jittered delay, so a crash
// in one worker never takes down its siblings or the queue. The jitter
// spreads restarts to avoid a synchronized thundering herd.
func supervise(ctx context.Context, name string, restartMin, restartMax time.Duration, fn func(context.Context) error) {
	for {
		err := runRecovered(ctx, name, fn)
		if ctx.Err() != nil {
			return
		}
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		delay := restartMin
		if restartMax > restartMin {
			delay += time.Duration(rand.Int63n(int64(restartMax - restartMin)))
		}
		logger.Warn("task_restarting", "task", name, "after", delay.String(), "error", err)
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return
		}
	}
}

func runRecovered(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("task_panic", "task", name, "panic", r, "stack", string(debug.Stack()))
			err = errors.New("task panicked")
		}
	}()
	return fn(ctx)
}
