package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSuperviseRestartsAfterPanic(t *testing.T) {
	var runs uint64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		supervise(ctx, "panicky", time.Millisecond, 5*time.Millisecond, func(c context.Context) error {
			if atomic.AddUint64(&runs, 1) < 3 {
				panic("boom")
			}
			cancel()
			return c.Err()
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not recover within the restart window")
	}
	if got := atomic.LoadUint64(&runs); got != 3 {
		t.Fatalf("expected 3 runs, got %d", got)
	}
}

func TestSuperviseRestartsAfterError(t *testing.T) {
	var runs uint64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		supervise(ctx, "flaky", time.Millisecond, 2*time.Millisecond, func(c context.Context) error {
			if atomic.AddUint64(&runs, 1) < 2 {
				return errors.New("transient failure")
			}
			cancel()
			return c.Err()
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not restart after error")
	}
}

func TestSuperviseStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		supervise(ctx, "steady", time.Millisecond, 2*time.Millisecond, func(c context.Context) error {
			close(started)
			<-c.Done()
			return c.Err()
		})
	}()
	<-started
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("supervisor kept running after cancellation")
	}
}

func TestSuperviseExitsOnCleanReturn(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		supervise(context.Background(), "oneshot", time.Millisecond, 2*time.Millisecond, func(context.Context) error {
			return nil
		})
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("supervisor restarted a cleanly-finished task")
	}
}
