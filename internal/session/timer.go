package session

import (
	"context"
	"sync"
	"time"
)

// Timer counts down whole seconds. It decrements only through Tick, which
// the Run loop calls once per interval; expiry fires exactly once.
type Timer struct {
	mu       sync.Mutex
	total    int
	left     int
	paused   bool
	pausedAt *time.Time
	stopped  bool
	expired  bool
	now      Clock

	onTick   func(left int)
	onExpire func()
}

func NewTimer(seconds int, now Clock) *Timer {
	if now == nil {
		now = time.Now
	}
	if seconds < 0 {
		seconds = 0
	}
	return &Timer{total: seconds, left: seconds, now: now}
}

// OnTick and OnExpire must be set before Run starts.
func (t *Timer) OnTick(fn func(left int)) { t.onTick = fn }
func (t *Timer) OnExpire(fn func())       { t.onExpire = fn }

// Pause is allowed only while running with time left; a second Pause is a
// no-op and keeps the first pause instant.
func (t *Timer) Pause() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pauseLocked()
}

func (t *Timer) Resume() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resumeLocked()
}

// Toggle pauses a running timer or resumes a paused one and reports
// whether the timer is paused afterwards.
func (t *Timer) Toggle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused {
		t.resumeLocked()
	} else {
		t.pauseLocked()
	}
	return t.paused
}

func (t *Timer) pauseLocked() bool {
	if t.paused || t.stopped || t.left <= 0 {
		return false
	}
	at := t.now()
	t.paused = true
	t.pausedAt = &at
	return true
}

func (t *Timer) resumeLocked() bool {
	if !t.paused {
		return false
	}
	t.paused = false
	t.pausedAt = nil
	return true
}

// Tick decrements one second when running.
func (t *Timer) Tick() {
	t.mu.Lock()
	if t.stopped || t.paused || t.left <= 0 {
		t.mu.Unlock()
		return
	}
	t.left--
	left := t.left
	fire := false
	if left == 0 && !t.expired {
		t.expired = true
		t.stopped = true
		fire = true
	}
	onTick, onExpire := t.onTick, t.onExpire
	t.mu.Unlock()

	if onTick != nil {
		onTick(left)
	}
	if fire && onExpire != nil {
		onExpire()
	}
}

// Stop halts the timer for good.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *Timer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	tk := time.NewTicker(interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			t.Tick()
			if t.Stopped() {
				return
			}
		}
	}
}

func (t *Timer) Left() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.left
}

// Elapsed is the number of counted-down seconds.
func (t *Timer) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total - t.left
}

func (t *Timer) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

func (t *Timer) PausedAt() *time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pausedAt == nil {
		return nil
	}
	at := *t.pausedAt
	return &at
}

func (t *Timer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (t *Timer) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expired
}
