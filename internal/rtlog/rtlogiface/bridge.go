// Package rtlogiface bridges rtlog.Logger onto github.com/joeycumines/logiface,
// for embedders who already run a logiface pipeline and want the runtime's
// diagnostics flowing through it instead of a bespoke sink. It defaults to
// github.com/joeycumines/stumpy as the concrete JSON backend, mirroring
// eventloop's own logiface-stumpy wiring.
package rtlogiface

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"github.com/joeycumines/asyncrt/internal/rtlog"
)

// New returns an rtlog.Logger that forwards every call to l, one
// logiface.Builder.Log call per rtlog call. Field pairs in kv are flattened
// key/value; a pair whose key is not a string is skipped, as is a trailing
// key with no value.
func New(l *logiface.Logger[*stumpy.Event]) rtlog.Logger {
	return &bridge{l: l}
}

// NewStumpy constructs a stumpy-backed logiface.Logger and wraps it,
// the default concrete pipeline for embedders who just want JSON-to-writer
// diagnostics without assembling their own logiface.Logger.
func NewStumpy(opts ...stumpy.Option) rtlog.Logger {
	return New(logiface.New[*stumpy.Event](stumpy.WithStumpy(opts...)))
}

type bridge struct {
	l *logiface.Logger[*stumpy.Event]
}

func (b *bridge) Debug(msg string, kv ...any) { b.emit(b.l.Debug(), msg, kv) }
func (b *bridge) Info(msg string, kv ...any)  { b.emit(b.l.Info(), msg, kv) }
func (b *bridge) Warn(msg string, kv ...any)  { b.emit(b.l.Warning(), msg, kv) }
func (b *bridge) Error(msg string, kv ...any) { b.emit(b.l.Err(), msg, kv) }

func (b *bridge) emit(builder *logiface.Builder[*stumpy.Event], msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		builder = builder.Any(key, kv[i+1])
	}
	builder.Log(msg)
}
