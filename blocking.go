package asyncrt

import "sync"

// BlockingHandle is the result of SpawnBlocking (spec §4.5): a handle to a
// callable running on the fixed-size blocking-worker pool rather than as
// a Task goroutine, for work that would otherwise park an OS thread (file
// I/O, cgo calls, anything that can't cooperatively yield). Grounded on
// original_source/include/crasy/spawn_blocking.hpp's blocking_join_handle,
// whose heap-allocated state_base (freed by whichever of {consumer
// detach, worker finish} observes the other side already gone) becomes
// this plain mutex-guarded struct, since Go's GC makes the original's
// manual delete-on-last-owner dance unnecessary.
type BlockingHandle[T any] struct {
	mu        sync.Mutex
	state     joinState
	result    Result[T]
	completed chan struct{}
}

// SpawnBlocking posts fn to the blocking-offload pool of the Executor the
// calling goroutine is bound to, returning a handle to join or detach it.
func SpawnBlocking[T any](fn func() (T, error)) (*BlockingHandle[T], error) {
	ex, err := currentExecutorOrErr()
	if err != nil {
		return nil, err
	}
	return SpawnBlockingOn(ex, fn), nil
}

// SpawnBlockingOn posts fn to ex's blocking pool explicitly.
func SpawnBlockingOn[T any](ex *Executor, fn func() (T, error)) *BlockingHandle[T] {
	h := &BlockingHandle[T]{completed: make(chan struct{})}
	ex.RunBlocking(func() {
		result := runTaskBody(fn)

		h.mu.Lock()
		if h.state == joinDetached {
			h.mu.Unlock()
			return
		}
		h.result = result
		h.state = joinDone
		h.mu.Unlock()
		close(h.completed)
	})
	return h
}

// Join blocks until the blocking call completes, returning its result.
func (h *BlockingHandle[T]) Join() (T, error) {
	<-h.completed
	h.mu.Lock()
	result := h.result
	h.mu.Unlock()
	return result.Unwrap()
}

// TryJoin reports whether the call has finished, without blocking.
func (h *BlockingHandle[T]) TryJoin() (result Result[T], done bool) {
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

// Detach discards the result once the call completes instead of holding
// it for a joiner, matching spawn_blocking.hpp's detach() path.
func (h *BlockingHandle[T]) Detach() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == joinWaiting {
		h.state = joinDetached
	}
}
