// Package keylock provides exclusive admission tokens keyed by string.
package keylock

import (
	"context"
	"fmt"
	"sync"
)

type entry struct {
	token chan struct{}
	refs  int
}

// Locker hands out one token per key. Different keys never contend.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func New() *Locker {
	return &Locker{locks: map[string]*entry{}}
}

// Key builds a lock key from a namespace and ids.
func Key(ns string, ids ...int64) string {
	k := ns
	for _, id := range ids {
		k += fmt.Sprintf(":%d", id)
	}
	return k
}

func (l *Locker) acquire(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[key]
	if !ok {
		e = &entry{token: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++

	return e
}

func (l *Locker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// Lock blocks until the token for key is held or ctx is done. The returned
// func releases the token and is safe to call more than once.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	e := l.acquire(key)

	select {
	case e.token <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, fmt.Errorf("lock %s: %w", key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.token
			l.release(key, e)
		})
	}, nil
}

// Len returns the number of keys currently held or awaited.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
