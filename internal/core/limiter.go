package core

// limiter.go bounds concurrent detection work.
//
// Scanning a grid is the one CPU- and memory-heavy step in a session's
// life, so the service caps how many detections run at once. When every
// slot is taken, a new session waits up to maxWait for one to free
// before failing with ErrTooManyDetections.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyDetections is returned when all detection slots stay occupied
// for the full wait window. Clients should retry after a short delay.
var ErrTooManyDetections = errors.New("too many concurrent detections, please try again later")

const (
	// DefaultMaxConcurrentDetections caps parallel detections when the
	// configuration does not set a limit.
	DefaultMaxConcurrentDetections = 5

	// DefaultMaxWaitTime is how long Acquire waits for a slot before
	// giving up.
	DefaultMaxWaitTime = 30 * time.Second
)

// DetectionLimiter is a slot semaphore with an active counter for the
// queue-status endpoint and drain-aware shutdown.
type DetectionLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int32
}

// NewDetectionLimiter builds a limiter allowing maxConcurrent
// simultaneous detections. Non-positive arguments fall back to the
// package defaults.
func NewDetectionLimiter(maxConcurrent int, maxWait time.Duration) *DetectionLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentDetections
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &DetectionLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire claims a detection slot, waiting up to the limiter's wait
// window for one to free. Caller cancellation is reported as the
// context's error, a full queue as ErrTooManyDetections. Release must
// be called exactly once per successful Acquire (use defer).
func (l *DetectionLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyDetections
	}
}

// Release frees a slot claimed by Acquire.
func (l *DetectionLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// ActiveCount reports how many detections hold a slot right now.
func (l *DetectionLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// WaitForDrain blocks until every active detection finishes or ctx is
// cancelled. The server calls this during graceful shutdown so in-flight
// sessions reach a persisted state before the process exits.
func (l *DetectionLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of the limiter, served on the queue-status
// endpoint.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
}

// Status reports the limiter's current occupancy.
func (l *DetectionLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        int(l.active.Load()),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
