package asyncrt

import (
	"errors"
	"fmt"
)

// Fatal, programmer-error conditions. These surface immediately rather than
// being captured in a task's result slot, matching spec §7's "programmer
// error" category.
var (
	// ErrNestedExecutor is returned by BlockOn when called from a
	// goroutine that is already running inside an executor context.
	ErrNestedExecutor = errors.New("asyncrt: executor is not reentrant")

	// ErrZeroWorkers is returned by New when either worker count is < 1.
	ErrZeroWorkers = errors.New("asyncrt: core and blocking worker counts must be >= 1")

	// ErrNotInExecutorContext is returned by Spawn, SpawnBlocking,
	// SleepFor, SleepUntil and NewSequence when called from outside any
	// executor's goroutines. The synchronization primitives (Mutex,
	// RWMutex, Cond, LockAll) return no errors and do not check for an
	// executor context.
	ErrNotInExecutorContext = errors.New("asyncrt: operation requires an active executor context")

	// ErrExecutorShutdown is returned by Spawn, SpawnBlocking, SleepFor,
	// SleepUntil and NewSequence when the calling goroutine's executor has
	// begun or completed shutdown.
	ErrExecutorShutdown = errors.New("asyncrt: executor is shut down")
)

// PanicError wraps a panic value recovered from a spawned task or a
// blocking call. Rather than letting the panic unwind and terminate the
// worker, the runtime recovers it, wraps it here, and delivers it through
// the normal task-failure channel (await/join), per spec §7.
type PanicError struct {
	// Value is the recovered panic value (may be any type, including error).
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("asyncrt: task panicked: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// TaskError wraps a task failure, preserving the original error for
// errors.Is/errors.As while identifying it as a runtime-level task
// failure. The runtime does not apply it itself: Join returns a task's
// error exactly as the task returned it.
type TaskError struct {
	Err error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("asyncrt: task failed: %v", e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}
