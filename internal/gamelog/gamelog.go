package gamelog

import (
	"context"
	"fmt"
	"time"

	"github.com/keyhunt-games/keyhunt/internal/logging"
)

// Writer appends events to the game audit log.
type Writer interface {
	Write(ctx context.Context, e Event) error
}

// Notifier alerts the humans addressed by the event.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// maxInFlight bounds the writer and notifier calls still running after the
// caller stopped waiting for them.
const maxInFlight = 64

// Log is the boundary game logic talks to. Failures of the underlying writer
// and notifier are logged and swallowed. With a timeout set a call returns
// once the timeout expires even if the writer ignores its context.
type Log struct {
	writer   Writer
	notifier Notifier
	timeout  time.Duration
	slots    chan struct{}
}

func New(w Writer, n Notifier, timeout time.Duration) *Log {
	return &Log{writer: w, notifier: n, timeout: timeout, slots: make(chan struct{}, maxInFlight)}
}

func (l *Log) Log(ctx context.Context, e Event) {
	if l == nil || l.writer == nil {
		return
	}

	l.call(ctx, "gamelog.Log", e, l.writer.Write)
}

func (l *Log) Notify(ctx context.Context, e Event) {
	if l == nil || l.notifier == nil {
		return
	}

	l.call(ctx, "gamelog.Notify", e, l.notifier.Notify)
}

func (l *Log) call(ctx context.Context, name string, e Event, fn func(context.Context, Event) error) {
	logger := logging.FromContext(ctx).Named(name)

	run := func(ctx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Warnf("event %s recovered: %v", e.Kind, r)
			}
		}()

		if err := fn(ctx, e); err != nil {
			logger.Warnf("event %s, game %d: %v", e.Kind, e.GameID, err)
		}
	}

	if l.timeout <= 0 {
		run(ctx)
		return
	}

	select {
	case l.slots <- struct{}{}:
	default:
		logger.Warnf("event %s, game %d dropped: %d calls in flight", e.Kind, e.GameID, maxInFlight)
		return
	}

	// the call may outlive the caller, it keeps only the logger
	callCtx, cancel := context.WithTimeout(logging.WithLogger(context.Background(), logger), l.timeout)
	done := make(chan struct{})
	go func() {
		defer func() { <-l.slots }()
		defer close(done)
		defer cancel()
		run(callCtx)
	}()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		logger.Warnf("event %s, game %d: gave up after %s", e.Kind, e.GameID, l.timeout)
	case <-ctx.Done():
	}
}

// InFlight returns the number of calls still running.
func (l *Log) InFlight() int {
	if l == nil {
		return 0
	}

	return len(l.slots)
}

// ZapWriter writes events to the structured logger found in the context.
type ZapWriter struct{}

func (ZapWriter) Write(ctx context.Context, e Event) error {
	logger := logging.FromContext(ctx).Named("gamelog")
	logger.Infow(string(e.Kind),
		"game", e.GameID,
		"team", e.TeamID,
		"level", e.LevelNumber,
		"at", e.At,
	)

	if e.Err != "" {
		logger.Warnw(string(e.Kind), "game", e.GameID, "team", e.TeamID, "error", e.Err)
	}

	return nil
}

// MultiWriter writes the event to every writer and returns the first error.
type MultiWriter []Writer

func (m MultiWriter) Write(ctx context.Context, e Event) error {
	var first error
	for _, w := range m {
		if err := w.Write(ctx, e); err != nil && first == nil {
			first = fmt.Errorf("write event: %w", err)
		}
	}

	return first
}
