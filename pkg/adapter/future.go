package adapter

import (
	"context"
	"sync"
)

// Future represents connection work that completes after Start has returned.
// It settles once; later Resolve or Reject calls are ignored.
type Future struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

// NewFuture returns an unsettled future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Go runs fn in a goroutine and settles the future with its result.
func Go(fn func() (any, error)) *Future {
	f := NewFuture()
	go func() {
		v, err := fn()
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(v)
	}()
	return f
}

// Resolve settles the future with v. It reports whether this call settled it.
func (f *Future) Resolve(v any) bool {
	return f.settle(v, nil)
}

// Reject settles the future with err. It reports whether this call settled it.
func (f *Future) Reject(err error) bool {
	return f.settle(nil, err)
}

func (f *Future) settle(v any, err error) bool {
	settled := false
	f.once.Do(func() {
		f.value, f.err = v, err
		settled = true
		close(f.done)
	})
	return settled
}

// Done is closed once the future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles or ctx is done.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the settled value without blocking. ok is false while pending.
func (f *Future) Result() (v any, ok bool, err error) {
	select {
	case <-f.done:
		return f.value, true, f.err
	default:
		return nil, false, nil
	}
}
