package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is an in-process keyed mutex for single-replica deployments and tests.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
	opts  Options
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker(opts Options) *LocalLocker {
	return &LocalLocker{
		slots: make(map[string]*slot),
		opts:  opts.normalize(),
	}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	s := l.ref(key)
	timer := time.NewTimer(l.opts.Wait)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key)
		return nil, ctx.Err()
	case <-timer.C:
		l.unref(key)
		return nil, ErrAcquireTimeout
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.unref(key)
		})
	}, nil
}

func (l *LocalLocker) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		return
	}
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

var _ Locker = (*LocalLocker)(nil)
