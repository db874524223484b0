package asyncrt

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/asyncrt/internal/rtlog"
)

// currentExecutor tracks, per goroutine, which *Executor that goroutine is
// currently running under — either as one of its own core/blocking workers,
// or as a Task goroutine spawned from one. It is the Go-native replacement
// for eventloop/loop.go's isLoopThread()/getGoroutineID(), generalized from
// "is this the one loop goroutine" to "which of possibly several executors
// owns this goroutine", since spec §5 requires detecting nested BlockOn
// calls rather than a single always-the-same loop thread.
var currentExecutor sync.Map // map[uint64]*Executor

func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}

func executorOf(goroutineID uint64) (*Executor, bool) {
	v, ok := currentExecutor.Load(goroutineID)
	if !ok {
		return nil, false
	}
	return v.(*Executor), true
}

func bindExecutor(ex *Executor) (unbind func()) {
	id := getGoroutineID()
	currentExecutor.Store(id, ex)
	return func() { currentExecutor.Delete(id) }
}

// Executor is the runtime's scheduler (spec §4.2): a fixed pool of core
// workers sharing one reactor, plus a fixed pool of blocking-offload
// workers draining a shared queue, generalizing eventloop/loop.go's
// single-goroutine Loop to the spec's required N-core-worker model.
type Executor struct {
	reactor *reactor
	log     rtlog.Logger
	nowFn   func() time.Time

	coreWorkers int
	corePoller  atomic.Bool // true while some core worker holds the poller role

	blockingWorkers int
	blockingQueue   *Queue[func()]
	blockingCond    *sync.Cond
	blockingMu      sync.Mutex

	wg sync.WaitGroup

	shutdownOnce sync.Once
	closed       atomic.Bool
}

// New constructs an Executor and starts its worker pools. Callers must call
// Shutdown to release the reactor's poller resources.
func New(opts ...ExecutorOption) (*Executor, error) {
	cfg := resolveExecutorConfig(opts)
	if cfg.coreWorkers <= 0 || cfg.blockingWorkers <= 0 {
		return nil, ErrZeroWorkers
	}

	r, err := newReactor(cfg.pollerFactory, cfg.now)
	if err != nil {
		return nil, err
	}

	ex := &Executor{
		reactor:         r,
		log:             cfg.logger,
		nowFn:           cfg.now,
		coreWorkers:     cfg.coreWorkers,
		blockingWorkers: cfg.blockingWorkers,
		blockingQueue:   NewQueue[func()](),
	}
	ex.blockingCond = sync.NewCond(&ex.blockingMu)

	for i := 0; i < ex.coreWorkers; i++ {
		ex.wg.Add(1)
		go ex.runCoreWorker()
	}
	for i := 0; i < ex.blockingWorkers; i++ {
		ex.wg.Add(1)
		go ex.runBlockingWorker()
	}

	ex.log.Debug("asyncrt: executor started", "coreWorkers", ex.coreWorkers, "blockingWorkers", ex.blockingWorkers)
	return ex, nil
}

// runCoreWorker is one core worker's body (spec §4.2): each worker races to
// become "the poller" (the one blocked in the OS poll syscall at a time),
// the rest wait on the reactor's pollCond for posted work. Generalizes
// eventloop/loop.go's run()/tick() to N goroutines via the corePoller
// flag electing exactly one at a time.
func (ex *Executor) runCoreWorker() {
	defer ex.wg.Done()
	unbind := bindExecutor(ex)
	defer unbind()

	for {
		isPoller := ex.corePoller.CompareAndSwap(false, true)
		more := ex.reactor.RunOnce(isPoller)
		if isPoller {
			ex.corePoller.Store(false)
		}
		if !more {
			return
		}
		if !isPoller {
			ex.reactor.mu.Lock()
			for len(ex.reactor.ready) == 0 && len(ex.reactor.timers) == 0 && !ex.reactor.closed {
				ex.reactor.waiting++
				ex.reactor.pollCond.Wait()
				ex.reactor.waiting--
			}
			closed := ex.reactor.closed && len(ex.reactor.ready) == 0 && len(ex.reactor.timers) == 0
			ex.reactor.mu.Unlock()
			if closed {
				return
			}
		}
	}
}

// runBlockingWorker drains the blocking-offload queue (spec §4.5), the
// fixed-size generalization of eventloop/promisify.go's
// goroutine-per-Promisify-call pattern into a bounded pool.
func (ex *Executor) runBlockingWorker() {
	defer ex.wg.Done()
	unbind := bindExecutor(ex)
	defer unbind()

	for {
		ex.blockingMu.Lock()
		for {
			if task, ok := ex.blockingQueue.Pop(); ok {
				ex.blockingMu.Unlock()
				ex.runBlockingTask(task)
				break
			}
			if ex.closed.Load() {
				ex.blockingMu.Unlock()
				return
			}
			ex.blockingCond.Wait()
		}
	}
}

// runBlockingTask invokes task, recovering panics so one bad blocking call
// cannot take down the worker pool — the pool-level analogue of
// eventloop/promisify.go's per-goroutine panic/Goexit safety. The
// closure SpawnBlockingOn posts (see blocking.go) already captures its
// own panic for the joiner via runTaskBody; this is a last-resort guard so a
// closure that bypasses that (e.g. RunBlocking called directly) can't
// take the worker down, logged at Warn since it indicates a bug upstream.
func (ex *Executor) runBlockingTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			ex.log.Warn("asyncrt: recovered panic from blocking task", "panic", r)
		}
	}()
	task()
}

// now returns the executor's configured clock (time.Now by default,
// overridable via withClock for deterministic Sleep tests).
func (ex *Executor) now() time.Time {
	if ex.nowFn != nil {
		return ex.nowFn()
	}
	return time.Now()
}

// Schedule posts fn to run on a core worker as soon as one is free.
func (ex *Executor) Schedule(fn func()) {
	ex.reactor.Schedule(fn)
}

// RunBlocking posts fn to the blocking-offload queue and wakes a worker.
func (ex *Executor) RunBlocking(fn func()) {
	ex.blockingMu.Lock()
	ex.blockingQueue.Push(fn)
	ex.blockingCond.Signal()
	ex.blockingMu.Unlock()
}

// RegisterFD registers fd with the reactor's poller, per spec §6's I/O
// adapter requirement to post completion-style work onto the reactor. cb
// runs inline on whichever goroutine is polling when fd becomes ready;
// adapters typically call IOFuture.Finish from within cb.
func (ex *Executor) RegisterFD(fd int, events IOEvents, cb IOCallback) error {
	return ex.reactor.poller.RegisterFD(fd, events, cb)
}

// ModifyFD changes the registered interest set for fd.
func (ex *Executor) ModifyFD(fd int, events IOEvents) error {
	return ex.reactor.poller.ModifyFD(fd, events)
}

// UnregisterFD removes fd from the reactor's poller.
func (ex *Executor) UnregisterFD(fd int) error {
	return ex.reactor.poller.UnregisterFD(fd)
}

// Shutdown marks the executor closed (Spawn, SpawnBlocking, SleepFor,
// SleepUntil and NewSequence then return ErrExecutorShutdown), wakes all
// parked workers, and blocks until every core and blocking worker has
// exited. Safe to call more than
// once or concurrently; only the first call does anything.
func (ex *Executor) Shutdown() {
	ex.shutdownOnce.Do(func() {
		ex.closed.Store(true)
		if err := ex.reactor.Close(); err != nil {
			ex.log.Error("asyncrt: reactor close failed", "error", err)
		}
		ex.blockingMu.Lock()
		ex.blockingCond.Broadcast()
		ex.blockingMu.Unlock()
		ex.wg.Wait()
		ex.log.Debug("asyncrt: executor shut down")
	})
}

// Closed reports whether Shutdown has been called. Workers use ex.closed
// directly on their hot path; this is the exported read for callers that
// want to poll executor lifecycle without driving a shutdown themselves.
func (ex *Executor) Closed() bool {
	return ex.closed.Load()
}

// BlockOn runs entry to completion on the calling goroutine, which must not
// already be running under an Executor (spec §5's single-owner-context
// rule) — detected via the goroutine-local currentExecutor registry rather
// than the teacher's single static isLoopThread() check, since multiple
// Executors may coexist in one process.
func BlockOn[T any](ex *Executor, entry func(ex *Executor) (T, error)) (T, error) {
	var zero T
	if _, already := executorOf(getGoroutineID()); already {
		return zero, ErrNestedExecutor
	}
	unbind := bindExecutor(ex)
	defer unbind()
	return entry(ex)
}

// currentExecutorOrErr returns the Executor the calling goroutine is bound
// to, ErrNotInExecutorContext if it was called outside of BlockOn, a
// Task goroutine, or a core/blocking worker, or ErrExecutorShutdown if that
// Executor's Shutdown has been called.
func currentExecutorOrErr() (*Executor, error) {
	ex, ok := executorOf(getGoroutineID())
	if !ok {
		return nil, ErrNotInExecutorContext
	}
	if ex.Closed() {
		return nil, ErrExecutorShutdown
	}
	return ex, nil
}
