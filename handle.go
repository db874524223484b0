package asyncrt

import "sync"

// joinState mirrors original_source/include/crasy/spawn.hpp's promise_type
// state field: the task's continuation is either still waiting on a
// joiner, has finished and is holding its result for one, or has been
// detached and will clean up after itself.
type joinState int

const (
	joinWaiting joinState = iota
	joinDone
	joinDetached
)

// JoinHandle is the result of Spawn (spec §4.4): a handle to a Task
// running as its own goroutine, which may be joined (blocking until the
// task completes, yielding its Result[T]) or detached (letting it run to
// completion unobserved). Grounded on
// original_source/include/crasy/spawn.hpp's join_handle_impl, with the
// coroutine's promise_type control block reimagined as this plain struct
// guarded by a mutex, since a Task here is a goroutine rather than a
// suspendable coroutine frame.
type JoinHandle[T any] struct {
	mu        sync.Mutex
	state     joinState
	result    Result[T]
	completed chan struct{}
}

// Spawn runs fn as a new Task (its own goroutine) under the Executor the
// calling goroutine is currently bound to (ambient context, per spec §5),
// returning a handle to join or detach it. Returns ErrNotInExecutorContext
// if the caller is not running under an Executor.
func Spawn[T any](fn func() (T, error)) (*JoinHandle[T], error) {
	ex, err := currentExecutorOrErr()
	if err != nil {
		return nil, err
	}
	return SpawnOn(ex, fn), nil
}

// SpawnOn runs fn as a new Task under ex explicitly, for callers outside
// any executor's ambient context (e.g. the goroutine that called New).
func SpawnOn[T any](ex *Executor, fn func() (T, error)) *JoinHandle[T] {
	h := &JoinHandle[T]{completed: make(chan struct{})}
	ex.wg.Add(1)
	go func() {
		defer ex.wg.Done()
		unbind := bindExecutor(ex)
		defer unbind()

		result := runTaskBody(fn)

		h.mu.Lock()
		switch h.state {
		case joinDetached:
			h.mu.Unlock()
			return
		default:
			h.result = result
			h.state = joinDone
			h.mu.Unlock()
			close(h.completed)
		}
	}()
	return h
}

func runTaskBody[T any](fn func() (T, error)) (result Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = Err[T](&PanicError{Value: r})
			_ = zero
		}
	}()
	v, err := fn()
	if err != nil {
		return Err[T](err)
	}
	return Ok(v)
}

// Join blocks the calling goroutine until the task completes, returning
// its Result. Joining a detached or already-joined handle is a caller
// error in the original design; here it simply blocks on completed, which
// is safe to do from multiple goroutines (unlike the original's
// single-owner coroutine_handle, Go's channel close broadcasts to all).
func (h *JoinHandle[T]) Join() (T, error) {
	<-h.completed
	h.mu.Lock()
	result := h.result
	h.mu.Unlock()
	return result.Unwrap()
}

// TryJoin reports whether the task has finished, returning its result
// without blocking if so.
func (h *JoinHandle[T]) TryJoin() (result Result[T], done bool) {
	select {
	case <-h.completed:
		h.mu.Lock()
		r := h.result
		h.mu.Unlock()
		return r, true
	default:
		return Result[T]{}, false
	}
}

// Detach lets the task run to completion without anyone observing its
// result, matching spawn.hpp's detach(): if the task has already
// finished, this is a no-op; otherwise the task's own goroutine discards
// the result when it completes instead of storing it for a joiner.
func (h *JoinHandle[T]) Detach() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == joinWaiting {
		h.state = joinDetached
	}
}
