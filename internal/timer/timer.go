// Package timer provides the rearmable single-shot inactivity countdown.
package timer

import (
	"sync"
	"time"
)

// Timer fires onExpire once after the most recently armed duration elapses
// without another Arm.
//
// onExpire runs in the time.AfterFunc goroutine while the timer's lock is
// held, so it must not block and must not call back into the Timer.
type Timer struct {
	mu        sync.Mutex
	t         *time.Timer
	gen       uint64
	cancelled bool
	onExpire  func()
}

func New(onExpire func()) *Timer {
	return &Timer{onExpire: onExpire}
}

// Arm schedules expiry at now+d, replacing any pending expiry. It reports
// false once the timer has been cancelled.
func (t *Timer) Arm(d time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return false
	}
	t.gen++
	gen := t.gen
	if t.t != nil {
		t.t.Stop()
	}
	t.t = time.AfterFunc(d, func() { t.fire(gen) })
	return true
}

// Pending reports whether an expiry is scheduled and has not fired yet.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.t != nil && !t.cancelled
}

// Cancel stops any pending expiry. When it returns, no expiry callback is
// running and none will run again. Safe to call more than once.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = true
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	// A newer Arm or a Cancel won the race against this expiry.
	if t.cancelled || gen != t.gen {
		return
	}
	t.t = nil
	if t.onExpire != nil {
		t.onExpire()
	}
}
