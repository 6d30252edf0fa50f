package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestDetectionLimiterAccounting(t *testing.T) {
	limiter := NewDetectionLimiter(2, time.Second)
	ctx := context.Background()

	if s := limiter.Status(); s.Active != 0 || s.Available != 2 || s.MaxConcurrent != 2 {
		t.Fatalf("fresh limiter status = %+v", s)
	}

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if s := limiter.Status(); s.Active != 2 || s.Available != 0 {
		t.Errorf("full limiter status = %+v", s)
	}

	limiter.Release()
	if got := limiter.ActiveCount(); got != 1 {
		t.Errorf("ActiveCount after one Release = %d, want 1", got)
	}
	limiter.Release()
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount after both Releases = %d, want 0", got)
	}
}

func TestDetectionLimiterFullQueueTimesOut(t *testing.T) {
	limiter := NewDetectionLimiter(1, 80*time.Millisecond)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer limiter.Release()

	start := time.Now()
	err := limiter.Acquire(ctx)
	if !errors.Is(err, ErrTooManyDetections) {
		t.Fatalf("Acquire on full queue = %v, want ErrTooManyDetections", err)
	}
	if waited := time.Since(start); waited < 70*time.Millisecond {
		t.Errorf("rejected after %v, before the wait window elapsed", waited)
	}
}

func TestDetectionLimiterHonorsCap(t *testing.T) {
	const cap = 3
	limiter := NewDetectionLimiter(cap, time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	peak := 0

	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := limiter.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer limiter.Release()

			mu.Lock()
			if n := limiter.ActiveCount(); n > peak {
				peak = n
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)
		}()
	}
	wg.Wait()

	if peak > cap {
		t.Errorf("observed %d concurrent holders, cap is %d", peak, cap)
	}
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount after all released = %d, want 0", got)
	}
}

func TestDetectionLimiterCallerCancellation(t *testing.T) {
	limiter := NewDetectionLimiter(1, 5*time.Second)

	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan error, 1)
	go func() { got <- limiter.Acquire(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-got:
		// Cancellation must not be mistaken for a full queue.
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Acquire after cancel = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Error("Acquire did not return after cancellation")
	}
}

func TestDetectionLimiterWakesWaiter(t *testing.T) {
	limiter := NewDetectionLimiter(1, time.Second)

	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		if err := limiter.Acquire(context.Background()); err != nil {
			t.Errorf("waiting Acquire: %v", err)
			return
		}
		close(acquired)
		limiter.Release()
	}()

	time.Sleep(30 * time.Millisecond)
	limiter.Release()

	select {
	case <-acquired:
	case <-time.After(500 * time.Millisecond):
		t.Error("waiter never got the freed slot")
	}
}

func TestDetectionLimiterWaitForDrain(t *testing.T) {
	limiter := NewDetectionLimiter(2, time.Second)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	drained := make(chan error, 1)
	go func() { drained <- limiter.WaitForDrain(context.Background()) }()

	// Drain must hold while either slot is occupied.
	for released := 0; released < 2; released++ {
		select {
		case <-drained:
			t.Fatalf("WaitForDrain returned with %d slots still held", 2-released)
		case <-time.After(80 * time.Millisecond):
		}
		limiter.Release()
	}

	select {
	case err := <-drained:
		if err != nil {
			t.Errorf("WaitForDrain = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Error("WaitForDrain never returned after full drain")
	}
}

func TestDetectionLimiterWaitForDrainCancelled(t *testing.T) {
	limiter := NewDetectionLimiter(1, time.Second)

	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	drained := make(chan error, 1)
	go func() { drained <- limiter.WaitForDrain(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-drained:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("WaitForDrain after cancel = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Error("WaitForDrain did not return after cancellation")
	}
}

func TestDetectionLimiterDefaults(t *testing.T) {
	limiter := NewDetectionLimiter(0, 0)

	if got := limiter.Status().MaxConcurrent; got != DefaultMaxConcurrentDetections {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentDetections)
	}
	if limiter.maxWait != DefaultMaxWaitTime {
		t.Errorf("maxWait = %v, want %v", limiter.maxWait, DefaultMaxWaitTime)
	}
}
