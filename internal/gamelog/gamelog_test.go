package gamelog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
	panics bool
}

func (r *recorder) Write(_ context.Context, e Event) error {
	return r.record(e)
}

func (r *recorder) Notify(_ context.Context, e Event) error {
	return r.record(e)
}

func (r *recorder) record(e Event) error {
	if r.panics {
		panic("boom")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)

	return r.err
}

func TestLogSwallowsFailures(t *testing.T) {
	t.Parallel()

	w := &recorder{err: errors.New("chat unreachable")}
	n := &recorder{panics: true}
	l := New(w, n, time.Second)

	ctx := context.Background()
	l.Log(ctx, Event{Kind: KindGameStarted, GameID: 1})
	l.Notify(ctx, Event{Kind: KindLevelUp, GameID: 1})

	if len(w.events) != 1 || w.events[0].Kind != KindGameStarted {
		t.Errorf("expected one %v event got %v", KindGameStarted, w.events)
	}
}

func TestNilLog(t *testing.T) {
	t.Parallel()

	var l *Log
	l.Log(context.Background(), Event{Kind: KindGameStarted})
	New(nil, nil, 0).Notify(context.Background(), Event{Kind: KindLevelUp})
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	a := &recorder{err: errors.New("first")}
	b := &recorder{}

	err := MultiWriter{a, ZapWriter{}, b}.Write(context.Background(), Event{Kind: KindGameFinished})
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(b.events) != 1 {
		t.Errorf("expected %v got %v", 1, len(b.events))
	}
}

type stalled struct {
	release chan struct{}
}

func (s stalled) Write(_ context.Context, _ Event) error {
	<-s.release
	return nil
}

func (s stalled) Notify(_ context.Context, _ Event) error {
	<-s.release
	return nil
}

func TestLogDoesNotWaitForStalledWriter(t *testing.T) {
	t.Parallel()

	s := stalled{release: make(chan struct{})}
	l := New(s, s, 50*time.Millisecond)

	begin := time.Now()
	l.Log(context.Background(), Event{Kind: KindLevelUp, GameID: 1})
	l.Notify(context.Background(), Event{Kind: KindLevelUp, GameID: 1})
	if took := time.Since(begin); took > time.Second {
		t.Fatalf("expected calls bounded by timeout, took %v", took)
	}

	if l.InFlight() != 2 {
		t.Errorf("expected %v got %v", 2, l.InFlight())
	}

	close(s.release)
	deadline := time.Now().Add(time.Second)
	for l.InFlight() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if l.InFlight() != 0 {
		t.Errorf("expected stalled calls to finish got %v in flight", l.InFlight())
	}
}

func TestLogDropsWhenSaturated(t *testing.T) {
	t.Parallel()

	s := stalled{release: make(chan struct{})}
	defer close(s.release)
	l := New(s, nil, time.Millisecond)

	for i := 0; i < maxInFlight+5; i++ {
		l.Log(context.Background(), Event{Kind: KindLevelUp, GameID: 1})
	}

	if l.InFlight() != maxInFlight {
		t.Errorf("expected %v got %v", maxInFlight, l.InFlight())
	}
}
