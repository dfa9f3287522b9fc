package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	reservationserrors "docket/internal/reservations/errors"
)

type localEntry struct {
	ch   chan struct{}
	refs int
}

// Local is an in-process keyed mutex. It only serializes reservations
// within one replica.
type Local struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	wait    time.Duration
}

func NewLocal(wait time.Duration) *Local {
	return &Local{
		entries: make(map[string]*localEntry),
		wait:    wait,
	}
}

func (l *Local) Acquire(ctx context.Context, key string) (Release, error) {
	entry := l.ref(key)

	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key)
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrLockTimeout, key)
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-entry.ch
			l.unref(key)
		})
		return nil
	}, nil
}

func (l *Local) ref(key string) *localEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok {
		entry = &localEntry{ch: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	return entry
}

func (l *Local) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, key)
	}
}
