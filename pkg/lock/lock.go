// Package lock serializes writers that share a key, such as all mutations of one cart.
package lock

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmptyKey       = errors.New("lock_key_empty")
	ErrAcquireTimeout = errors.New("lock_acquire_timeout")
)

// Locker grants exclusive ownership of a key until the returned release func runs.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Options tune lock acquisition.
type Options struct {
	TTL        time.Duration
	RetryEvery time.Duration
	Wait       time.Duration
}

func DefaultOptions() Options {
	return Options{
		TTL:        10 * time.Second,
		RetryEvery: 25 * time.Millisecond,
		Wait:       5 * time.Second,
	}
}

func (o Options) normalize() Options {
	def := DefaultOptions()
	if o.TTL <= 0 {
		o.TTL = def.TTL
	}
	if o.RetryEvery <= 0 {
		o.RetryEvery = def.RetryEvery
	}
	if o.Wait <= 0 {
		o.Wait = def.Wait
	}
	return o
}
