package rtlog

import "testing"

func TestNoOpDiscardsEverything(t *testing.T) {
	l := NoOp()
	// None of these should panic; NoOp is a pure sink.
	l.Debug("debug", "k", 1)
	l.Info("info")
	l.Warn("warn", "err", "oops")
	l.Error("error")
}
