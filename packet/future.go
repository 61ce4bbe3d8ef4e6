package packet

import (
	"context"
	"sync"
)

// Future is the eventual result of an asynchronous packet operation.
//
// A Future settles exactly once, with a value or an error. Continuations
// registered with Then run synchronously on the goroutine that settles the
// future, which for transport futures is the host's tick loop. Code running
// outside the tick loop blocks on Wait instead.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	settled   bool
	val       T
	err       error
	callbacks []func(T, error)
	onCancel  func()
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future already settled with v.
func Resolved[T any](v T) *Future[T] {
	f := newFuture[T]()
	f.settle(v, nil)
	return f
}

// Rejected returns a future already settled with err.
func Rejected[T any](err error) *Future[T] {
	f := newFuture[T]()
	var zero T
	f.settle(zero, err)
	return f
}

// settle stores the outcome and runs continuations. Later calls are no-ops;
// the return value reports whether this call won.
func (f *Future[T]) settle(v T, err error) bool {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return false
	}
	f.settled = true
	f.val, f.err = v, err
	callbacks := f.callbacks
	f.callbacks = nil
	f.onCancel = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(v, err)
	}
	return true
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Settled reports whether the future has a result.
func (f *Future[T]) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

// Result returns the outcome without blocking, or ErrPending.
func (f *Future[T]) Result() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.settled {
		var zero T
		return zero, ErrPending
	}
	return f.val, f.err
}

// Wait blocks until the future settles or ctx is done. Never call Wait from
// the goroutine that drives the host scheduler: the future can only settle
// on a tick.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then registers fn to receive the outcome. If the future is already settled
// fn runs immediately.
func (f *Future[T]) Then(fn func(T, error)) {
	f.mu.Lock()
	if !f.settled {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	v, err := f.val, f.err
	f.mu.Unlock()
	fn(v, err)
}

// Cancel abandons the operation: the underlying request stops polling, its
// pending entry is removed and the future rejects with ErrCanceled. It has
// no effect on a settled future.
func (f *Future[T]) Cancel() {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	hook := f.onCancel
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	var zero T
	f.settle(zero, ErrCanceled)
}

func (f *Future[T]) setCancelHook(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.settled {
		f.onCancel = fn
	}
}

// Map derives a future whose value is fn applied to the value of src.
// Errors of src pass through unchanged; cancelling the derived future
// cancels src.
func Map[T, U any](src *Future[T], fn func(T) (U, error)) *Future[U] {
	return Transform(src, func(v T, err error) (U, error) {
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v)
	})
}

// Transform derives a future from the outcome of src, value or error.
// Cancelling the derived future cancels src.
func Transform[T, U any](src *Future[T], fn func(T, error) (U, error)) *Future[U] {
	dst := newFuture[U]()
	dst.setCancelHook(src.Cancel)
	src.Then(func(v T, err error) {
		dst.settle(fn(v, err))
	})
	return dst
}
