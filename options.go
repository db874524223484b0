package asyncrt

import (
	"runtime"
	"time"

	"github.com/joeycumines/asyncrt/internal/rtlog"
)

// ExecutorOption configures New, following the functional-options pattern
// of eventloop/options.go (LoopOption / loopOptionImpl / resolveLoopOptions).
type ExecutorOption interface {
	apply(*executorConfig)
}

type executorConfig struct {
	coreWorkers     int
	blockingWorkers int
	logger          rtlog.Logger
	now             func() time.Time
	pollerFactory   func() (ioPoller, error)
}

type executorOptionFunc func(*executorConfig)

func (f executorOptionFunc) apply(c *executorConfig) { f(c) }

// WithCoreWorkers sets the number of core (reactor-driving) workers.
// Defaults to runtime.NumCPU().
func WithCoreWorkers(n int) ExecutorOption {
	return executorOptionFunc(func(c *executorConfig) { c.coreWorkers = n })
}

// WithBlockingWorkers sets the number of blocking-offload workers.
// Defaults to runtime.NumCPU().
func WithBlockingWorkers(n int) ExecutorOption {
	return executorOptionFunc(func(c *executorConfig) { c.blockingWorkers = n })
}

// WithLogger installs a diagnostics sink. Defaults to a no-op logger; see
// internal/rtlog/rtlogiface for a bridge onto github.com/joeycumines/logiface.
func WithLogger(l rtlog.Logger) ExecutorOption {
	return executorOptionFunc(func(c *executorConfig) { c.logger = l })
}

// withClock overrides time.Now, for deterministic Sleep tests.
func withClock(now func() time.Time) ExecutorOption {
	return executorOptionFunc(func(c *executorConfig) { c.now = now })
}

// withPoller overrides the reactor's platform poller, for tests that need
// to exercise reactor/timer logic without real file descriptors.
func withPoller(factory func() (ioPoller, error)) ExecutorOption {
	return executorOptionFunc(func(c *executorConfig) { c.pollerFactory = factory })
}

func resolveExecutorConfig(opts []ExecutorOption) executorConfig {
	c := executorConfig{
		coreWorkers:     runtime.NumCPU(),
		blockingWorkers: runtime.NumCPU(),
		logger:          rtlog.NoOp(),
		now:             time.Now,
	}
	for _, o := range opts {
		o.apply(&c)
	}
	return c
}
