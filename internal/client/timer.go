package client

import (
	"sync"
	"time"
)

// ViolationLimit is how many proctoring violations (tab switches, focus
// loss) are tolerated before the attempt is closed.
const ViolationLimit = 3

// ExamTimer runs the local countdown and violation counter for one
// attempt. Whichever trips first — the clock reaching zero or the
// violation limit — fires the auto-submit callback exactly once. Stop
// disarms the timer; nothing fires after it.
type ExamTimer struct {
	mu         sync.Mutex
	violations int
	timer      *time.Timer
	deadline   time.Time
	once       sync.Once
	stopped    bool
	onExpire   func(reason string)
}

// NewExamTimer arms a timer for the given duration. onExpire is invoked at
// most once, from its own goroutine, with the reason ("timeout" or
// "violations").
func NewExamTimer(d time.Duration, onExpire func(reason string)) *ExamTimer {
	t := &ExamTimer{
		deadline: time.Now().Add(d),
		onExpire: onExpire,
	}
	t.timer = time.AfterFunc(d, func() { t.fire("timeout") })
	return t
}

// Remaining reports the time left on the countdown.
func (t *ExamTimer) Remaining() time.Duration {
	rem := time.Until(t.deadline)
	if rem < 0 {
		return 0
	}
	return rem
}

// Violations reports the current violation count.
func (t *ExamTimer) Violations() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.violations
}

// RecordViolation bumps the violation counter and returns the new count.
// Hitting ViolationLimit trips the auto-submit.
func (t *ExamTimer) RecordViolation() int {
	t.mu.Lock()
	if t.stopped {
		n := t.violations
		t.mu.Unlock()
		return n
	}
	t.violations++
	n := t.violations
	t.mu.Unlock()

	if n >= ViolationLimit {
		t.fire("violations")
	}
	return n
}

// Stop disarms the timer, e.g. after a normal submit. Safe to call more
// than once.
func (t *ExamTimer) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.timer.Stop()
	// Swallow any fire that would otherwise still be pending.
	t.once.Do(func() {})
}

func (t *ExamTimer) fire(reason string) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.once.Do(func() {
		t.timer.Stop()
		go t.onExpire(reason)
	})
}
