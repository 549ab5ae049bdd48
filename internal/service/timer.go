package service

import (
	"sync"
	"time"
)

// expiryTickInterval bounds how often a timer re-checks its deadline.
const expiryTickInterval = time.Second

// ExpiryTimer is a cancellable countdown bound 1:1 to an in-flight
// reservation. Remaining time is recomputed from the absolute deadline
// on every tick rather than decremented, so a suspended and resumed
// process reports a correct (possibly already-expired) remaining time
// instead of drifting.
//
// Cancel guarantees the callback never fires afterward: if cancellation
// completes before the callback is dispatched, cancellation wins; if
// the callback has already been dispatched, Cancel is a harmless no-op.
type ExpiryTimer struct {
	mu        sync.Mutex
	deadline  time.Time
	timer     *time.Timer
	onExpire  func()
	cancelled bool
	fired     bool
}

// StartExpiryTimer begins counting from wall-clock now.
func StartExpiryTimer(duration time.Duration, onExpire func()) *ExpiryTimer {
	t := &ExpiryTimer{
		deadline: time.Now().Add(duration),
		onExpire: onExpire,
	}
	t.mu.Lock()
	t.schedule()
	t.mu.Unlock()
	return t
}

// schedule arms the underlying timer for the next check. Caller holds mu.
func (t *ExpiryTimer) schedule() {
	wait := time.Until(t.deadline)
	if wait > expiryTickInterval {
		wait = expiryTickInterval
	}
	if wait < 0 {
		wait = 0
	}
	t.timer = time.AfterFunc(wait, t.tick)
}

func (t *ExpiryTimer) tick() {
	t.mu.Lock()
	if t.cancelled || t.fired {
		t.mu.Unlock()
		return
	}
	if time.Now().Before(t.deadline) {
		t.schedule()
		t.mu.Unlock()
		return
	}
	t.fired = true
	cb := t.onExpire
	t.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// Cancel stops the timer. After Cancel returns, the callback will not
// fire unless it had already been dispatched.
func (t *ExpiryTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = true
	if t.timer != nil {
		t.timer.Stop()
	}
}

// Remaining returns the time left until expiry, negative once overdue.
func (t *ExpiryTimer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Until(t.deadline)
}

// Expired reports whether the deadline has passed.
func (t *ExpiryTimer) Expired() bool {
	return t.Remaining() <= 0
}
