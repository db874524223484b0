package asyncrt

import "sync/atomic"

// resumer is whatever must run to resume a parked task: a closure that
// hands the continuation back to the scheduler.
type resumer func()

// ioFutureDone is the sentinel stored once an operation completes. It is a
// valid, never-invoked *resumer distinct from any real parked resume,
// mirroring io_future.cpp's `reinterpret_cast<void*>(1)` sentinel.
var ioFutureDone = new(resumer)

// IOFuture is the I/O completion bridge (spec §4.3, §6): a single-use
// wait object shared between the task awaiting an operation and the
// callback that completes it, the primitive the core exposes to protocol
// adapters (UDP, stream files, DNS resolution — all out of scope here,
// and no adapter is included in this module). Grounded directly on
// original_source/include/crasy/io_future.hpp and src/io_future.cpp,
// which hold the same three states in one atomic word: null (nobody
// waiting yet), a resume pointer (a task is parked), or the "finished"
// sentinel.
//
// Both sides of the protocol — Park and Finish — execute at most once per
// IOFuture. Whichever side observes the other having already acted is
// responsible for invoking the resume exactly once.
type IOFuture struct {
	state atomic.Pointer[resumer]
}

// Ready reports whether the operation has already completed.
func (f *IOFuture) Ready() bool {
	return f.state.Load() == ioFutureDone
}

// Park registers resume to be invoked on completion. If the operation had
// already completed by the time Park runs (a race between issuing the I/O
// and the caller parking), Park invokes resume itself, synchronously,
// exactly as io_future::await_suspend reschedules immediately when it
// observes FUTURE_DONE.
func (f *IOFuture) Park(resume func()) {
	prior := f.state.Swap(&resume)
	if prior == ioFutureDone {
		resume()
	}
}

// Finish marks the operation complete, invoking any parked resume.
func (f *IOFuture) Finish() {
	prior := f.state.Swap(ioFutureDone)
	if prior != nil && prior != ioFutureDone {
		(*prior)()
	}
}

// Await blocks the calling Task goroutine until f.Finish is called,
// scheduling its resumption back onto ex's reactor rather than resuming
// inline on whatever goroutine called Finish (typically an I/O callback
// running inline inside PollIO) — so a continuation always runs on a core
// worker, per spec §5's suspension-point contract.
func (f *IOFuture) Await(ex *Executor) {
	done := make(chan struct{})
	f.Park(func() {
		ex.Schedule(func() { close(done) })
	})
	<-done
}
