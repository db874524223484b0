package asyncrt

import "time"

// SleepFor suspends the calling Task goroutine for at least d, scheduling
// its resumption on the ambient Executor's reactor timer heap rather than
// blocking an OS thread in time.Sleep (spec §4.6). Grounded on
// original_source/include/crasy/sleep.hpp's sleep_future, re-targeted at
// the reactor's own timer heap instead of an asio waitable_timer per
// SPEC_FULL.md's supplemented-feature note on Sleep.
func SleepFor(d time.Duration) error {
	ex, err := currentExecutorOrErr()
	if err != nil {
		return err
	}
	return sleepUntil(ex, ex.now().Add(d))
}

// SleepUntil suspends the calling Task goroutine until deadline.
func SleepUntil(deadline time.Time) error {
	ex, err := currentExecutorOrErr()
	if err != nil {
		return err
	}
	return sleepUntil(ex, deadline)
}

func sleepUntil(ex *Executor, deadline time.Time) error {
	done := make(chan struct{})
	ex.reactor.AddTimer(deadline, func() { close(done) })
	<-done
	return nil
}
