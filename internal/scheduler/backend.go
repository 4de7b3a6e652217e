package scheduler

import (
	"sync"
	"time"
)

// Clock is the wall clock hint fire times are computed against.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Backend runs one-shot callbacks at absolute times.
type Backend interface {
	Schedule(key string, at time.Time, fn func())
	// Cancel reports whether the callback was stopped before it started.
	Cancel(key string) bool
}

// TimerBackend keeps timers in process memory.
type TimerBackend struct {
	mu     sync.Mutex
	clock  Clock
	timers map[string]*time.Timer
}

func NewTimerBackend(clock Clock) *TimerBackend {
	return &TimerBackend{clock: clock, timers: map[string]*time.Timer{}}
}

func (b *TimerBackend) Schedule(key string, at time.Time, fn func()) {
	d := at.Sub(b.clock.Now())
	if d < 0 {
		d = 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.timers[key]; ok {
		t.Stop()
	}

	b.timers[key] = time.AfterFunc(d, func() {
		b.mu.Lock()
		delete(b.timers, key)
		b.mu.Unlock()

		fn()
	})
}

func (b *TimerBackend) Cancel(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.timers[key]
	if !ok {
		return false
	}
	delete(b.timers, key)

	return t.Stop()
}

func (b *TimerBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.timers)
}
