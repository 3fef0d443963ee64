// Package timer implements the exam countdown.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Ticker is the subset of time.Ticker the countdown needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

// SystemTicker backs the countdown with time.NewTicker.
func SystemTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

// Timer counts down whole seconds and calls onExpire exactly once per Start
// when it reaches zero.
type Timer struct {
	mu         sync.Mutex
	total      int
	remaining  int
	running    bool
	expired    bool
	cancel     context.CancelFunc
	generation int

	newTicker TickerFunc
	onExpire  func()
	onTick    func(remaining int)
}

// Option configures a Timer.
type Option func(*Timer)

// WithTicker replaces the tick source.
func WithTicker(fn TickerFunc) Option {
	return func(t *Timer) { t.newTicker = fn }
}

// WithOnTick registers a callback invoked after every decrement.
func WithOnTick(fn func(remaining int)) Option {
	return func(t *Timer) { t.onTick = fn }
}

// New creates a stopped timer. onExpire runs on the tick goroutine, or on the
// caller of Start when the time is already used up.
func New(onExpire func(), opts ...Option) *Timer {
	t := &Timer{
		newTicker: SystemTicker,
		onExpire:  onExpire,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins counting down from totalSeconds minus elapsedSeconds. A
// running countdown is stopped first.
func (t *Timer) Start(ctx context.Context, totalSeconds, elapsedSeconds int) {
	t.mu.Lock()
	t.stopLocked()

	if totalSeconds < 0 {
		totalSeconds = 0
	}
	remaining := totalSeconds - elapsedSeconds
	if remaining < 0 {
		remaining = 0
	}
	t.total = totalSeconds
	t.remaining = remaining
	t.expired = false
	t.generation++

	if remaining == 0 {
		t.expired = true
		t.mu.Unlock()
		t.fire()
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.running = true
	ticker := t.newTicker(time.Second)
	gen := t.generation
	t.mu.Unlock()

	go t.loop(loopCtx, ticker, gen)
}

func (t *Timer) loop(ctx context.Context, ticker Ticker, gen int) {
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if done := t.tick(gen); done {
				return
			}
		}
	}
}

// tick decrements once and reports whether the loop must end.
func (t *Timer) tick(gen int) bool {
	t.mu.Lock()
	if !t.running || gen != t.generation {
		t.mu.Unlock()
		return true
	}
	if t.remaining > 0 {
		t.remaining--
	}
	remaining := t.remaining
	expire := remaining == 0 && !t.expired
	if expire {
		t.expired = true
		t.stopLocked()
	}
	onTick := t.onTick
	t.mu.Unlock()

	if onTick != nil {
		onTick(remaining)
	}
	if expire {
		t.fire()
		return true
	}
	return false
}

func (t *Timer) fire() {
	if t.onExpire != nil {
		t.onExpire()
	}
}

// Stop cancels the countdown. Safe to call any number of times.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.stopLocked()
	t.mu.Unlock()
}

func (t *Timer) stopLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.running = false
}

// Remaining returns the seconds left.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Total returns the allotted seconds of the current countdown.
func (t *Timer) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Running reports whether the countdown is ticking.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Expired reports whether the countdown reached zero.
func (t *Timer) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expired
}

// Progress is the remaining fraction of the allotted time, in [0, 1].
func (t *Timer) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Progress(t.remaining, t.total)
}

// Progress returns remaining/total, or 0 when total is 0.
func Progress(remaining, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(remaining) / float64(total)
}

// Format renders seconds as MM:SS. Minutes are not capped at 59.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
