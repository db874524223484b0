package asyncrt

import (
	"container/heap"
	"sync"
	"time"
)

// IOEvents is a bitmask of I/O readiness conditions, mirrored from
// eventloop/poller_linux.go's IOEvents.
type IOEvents uint32

const (
	EventRead IOEvents = 1 << iota
	EventWrite
	EventError
	EventHangup
)

// IOCallback is invoked by the reactor when a registered file descriptor
// becomes ready.
type IOCallback func(IOEvents)

// ioPoller is the reactor's platform poller seam: platformPoller
// (reactor_linux.go/reactor_darwin.go) is the production implementation,
// and tests can substitute a fake via withPoller to exercise reactor/timer
// logic without real file descriptors.
type ioPoller interface {
	Init() error
	Close() error
	RegisterFD(fd int, events IOEvents, cb IOCallback) error
	UnregisterFD(fd int) error
	ModifyFD(fd int, events IOEvents) error
	PollIO(timeoutMs int) (int, error)
}

// reactor is the shared, thread-safe event loop every core worker drives
// (spec §4.2, §5, §6). It owns I/O registrations (via the platform-specific
// platformPoller embedded per reactor_linux.go/reactor_darwin.go), a timer
// heap for Sleep (spec §4.6), and a queue of scheduled continuations —
// closures posted by completions, lock releases, and CV notifications that
// must run on a core worker.
//
// Exactly one core worker "polls" (blocks in the OS poll syscall) at a
// time; the rest wait on pollCond for posted work, matching spec §4.2's
// "workers wait on a condition variable for work posted; when signaled
// they call run() until it returns, then re-wait" — generalized from the
// teacher's single-goroutine loop.go to the spec's required N-worker pool
// by electing the poller via Executor.corePoller.
type reactor struct {
	poller ioPoller
	nowFn  func() time.Time

	mu      sync.Mutex
	ready   []func() // scheduled continuations awaiting a core worker
	timers  timerHeap
	closed  bool
	woken   bool // a poller wakeup is already pending
	waiting int  // count of workers parked in pollCond.Wait

	pollCond *sync.Cond

	wakeReadFD, wakeWriteFD int
}

type timerEntry struct {
	when time.Time
	fn   func()
	id   uint64
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].when.Before(h[j].when) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)         { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// newReactor constructs a reactor. pollerFactory builds the ioPoller to
// drive (nil selects the real platform poller); now is the clock used for
// timer due-checks (nil selects time.Now).
func newReactor(pollerFactory func() (ioPoller, error), now func() time.Time) (*reactor, error) {
	if pollerFactory == nil {
		pollerFactory = func() (ioPoller, error) { return &platformPoller{}, nil }
	}
	if now == nil {
		now = time.Now
	}
	p, err := pollerFactory()
	if err != nil {
		return nil, err
	}
	r := &reactor{poller: p, nowFn: now}
	r.pollCond = sync.NewCond(&r.mu)
	if err := r.poller.Init(); err != nil {
		return nil, err
	}
	rfd, wfd, err := newWakePipe()
	if err != nil {
		_ = r.poller.Close()
		return nil, err
	}
	r.wakeReadFD, r.wakeWriteFD = rfd, wfd
	if err := r.poller.RegisterFD(rfd, EventRead, func(IOEvents) {
		r.drainWakePipe()
	}); err != nil {
		_ = r.poller.Close()
		closeWakePipe(rfd, wfd)
		return nil, err
	}
	return r, nil
}

func (r *reactor) Close() error {
	r.mu.Lock()
	r.closed = true
	r.pollCond.Broadcast()
	r.mu.Unlock()
	err := r.poller.Close()
	closeWakePipe(r.wakeReadFD, r.wakeWriteFD)
	return err
}

// Schedule queues fn to run on a core worker as soon as one is free, and
// wakes the poller if it is currently blocked.
func (r *reactor) Schedule(fn func()) {
	r.mu.Lock()
	r.ready = append(r.ready, fn)
	r.pollCond.Signal()
	woken := r.woken
	if !woken {
		r.woken = true
	}
	r.mu.Unlock()
	if !woken {
		r.wake()
	}
}

// AddTimer schedules fn to run at or after when, returning a cancel
// function. Grounded on original_source/include/crasy/sleep.hpp's
// awaiter, re-targeted at the reactor's own timer heap (per
// SPEC_FULL.md's supplemented-feature note 8) instead of pulling in an
// asio equivalent.
func (r *reactor) AddTimer(when time.Time, fn func()) (cancel func()) {
	entry := &timerEntry{when: when, fn: fn}
	r.mu.Lock()
	heap.Push(&r.timers, entry)
	r.pollCond.Signal()
	r.mu.Unlock()
	r.wake()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, e := range r.timers {
			if e == entry {
				heap.Remove(&r.timers, i)
				entry.fn = nil
				break
			}
		}
	}
}

// RunOnce is the reactor's "run()" step (spec §4.2): drain all currently
// ready continuations, fire due timers, and — if this caller is the
// elected poller — block in the OS poller for at most the time until the
// next due timer. Returns false when the reactor has been closed and
// there is no more outstanding work.
func (r *reactor) RunOnce(isPoller bool) bool {
	r.mu.Lock()
	ready := r.ready
	r.ready = nil
	r.mu.Unlock()
	for _, fn := range ready {
		fn()
	}

	r.mu.Lock()
	now := r.nowFn()
	var due []func()
	for len(r.timers) > 0 && !r.timers[0].when.After(now) {
		e := heap.Pop(&r.timers).(*timerEntry)
		if e.fn != nil {
			due = append(due, e.fn)
		}
	}
	closed := r.closed
	r.mu.Unlock()
	for _, fn := range due {
		fn()
	}

	if closed && len(ready) == 0 && len(due) == 0 {
		r.mu.Lock()
		empty := len(r.ready) == 0 && len(r.timers) == 0
		r.mu.Unlock()
		if empty {
			return false
		}
	}

	if !isPoller {
		return true
	}

	timeout := r.pollTimeout()
	r.mu.Lock()
	r.woken = false
	r.mu.Unlock()
	_, _ = r.poller.PollIO(timeout)
	return true
}

func (r *reactor) pollTimeout() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ready) > 0 {
		return 0
	}
	if len(r.timers) == 0 {
		return 100 // ms; bounded wait so Schedule/Close wakeups are never missed for long
	}
	d := r.timers[0].when.Sub(r.nowFn())
	if d <= 0 {
		return 0
	}
	ms := int(d / time.Millisecond)
	if ms <= 0 {
		return 1
	}
	return ms
}

func (r *reactor) drainWakePipe() {
	drainWakePipe(r.wakeReadFD)
}
