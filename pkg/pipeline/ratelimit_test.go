package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestBackoffPausesAllWaiters(t *testing.T) {
	rc := NewRateController(1000, 1000, 10*time.Millisecond)
	const hint = 150 * time.Millisecond
	rc.Backoff(hint)
	deadline := time.Now().Add(hint)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rc.Wait(context.Background()); err != nil {
				t.Errorf("Wait: %v", err)
				return
			}
			if time.Now().Before(deadline) {
				t.Error("a waiter cleared the gate before the cooldown elapsed")
			}
		}()
	}
	wg.Wait()
}

func TestBackoffHoldsWaiterParkedInTokenWait(t *testing.T) {
	// 10 rps, burst 1: the first Wait drains the burst, the second
	// parks inside the token wait for ~100ms
	rc := NewRateController(10, 1, 0)
	if err := rc.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	released := make(chan time.Time, 1)
	go func() {
		if err := rc.Wait(context.Background()); err != nil {
			t.Errorf("Wait: %v", err)
		}
		released <- time.Now()
	}()

	// let the waiter reach the token wait before the rejection lands
	time.Sleep(20 * time.Millisecond)
	rc.Backoff(400 * time.Millisecond)
	deadline := time.Now().Add(350 * time.Millisecond)

	got := <-released
	if got.Before(deadline) {
		t.Fatalf("waiter cleared the gate %s before the cooldown elapsed", deadline.Sub(got))
	}
}

func TestBackoffNeverShrinksWindow(t *testing.T) {
	rc := NewRateController(1000, 1000, 0)
	rc.Backoff(200 * time.Millisecond)
	long := rc.CooldownRemaining()
	rc.Backoff(10 * time.Millisecond)
	if got := rc.CooldownRemaining(); got < long-50*time.Millisecond {
		t.Fatalf("shorter hint shrank the window: %s -> %s", long, got)
	}
}

func TestWaitClearWhenNoCooldown(t *testing.T) {
	rc := NewRateController(1000, 1000, time.Second)
	start := time.Now()
	if err := rc.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("Wait stalled with no cooldown set")
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	rc := NewRateController(1000, 1000, 0)
	rc.Backoff(5 * time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := rc.Wait(ctx); err == nil {
		t.Fatal("expected context error while waiting out cooldown")
	}
}

func TestWaitEnforcesTokenBudget(t *testing.T) {
	// 20 rps, burst 1: three sends need roughly 100ms of pacing
	rc := NewRateController(20, 1, 0)
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := rc.Wait(context.Background()); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Fatalf("token bucket not enforced: 3 sends in %s", elapsed)
	}
}
