package asyncrt

// Sequence is a lazy, producer-driven stream of values (spec §4.12): the
// producer runs as its own Task goroutine, calling yield for each value
// it produces; each yield parks the producer until the consumer asks for
// the next value via Next. Grounded on
// original_source/include/crasy/stream.hpp: its promise_type captures a
// thrown exception in unhandled_exception (std::current_exception()) and
// await_resume rethrows it to the one caller waiting on the next value;
// sequenceItem.err/Next below is that same capture-then-surface-once
// handshake, adapted to Go's explicit error returns instead of an
// exception_ptr.
type Sequence[T any] struct {
	request chan struct{}
	value   chan sequenceItem[T]
}

// sequenceItem is one handshake's payload: either the next value, or (once,
// on the final handshake) the producer's terminal error.
type sequenceItem[T any] struct {
	val Option[T]
	err error
}

// NewSequence starts produce as the sequence's producer Task, running it
// under the Executor the calling goroutine is bound to. produce should call
// yield(v) for each value and return an error to fail the sequence — that
// error surfaces from the Next/ForEach call that was in progress when
// produce returned, exactly once, mirroring stream.hpp's
// unhandled_exception/rethrow_exception pair.
func NewSequence[T any](produce func(yield func(T)) error) (*Sequence[T], error) {
	ex, err := currentExecutorOrErr()
	if err != nil {
		return nil, err
	}
	return NewSequenceOn(ex, produce), nil
}

// NewSequenceOn starts produce as the sequence's producer Task under ex
// explicitly.
func NewSequenceOn[T any](ex *Executor, produce func(yield func(T)) error) *Sequence[T] {
	s := &Sequence[T]{
		request: make(chan struct{}),
		value:   make(chan sequenceItem[T]),
	}
	ex.wg.Add(1)
	go func() {
		defer ex.wg.Done()
		unbind := bindExecutor(ex)
		defer unbind()

		<-s.request // wait for the first Next before running any producer code
		err := produce(func(v T) {
			s.value <- sequenceItem[T]{val: Some(v)}
			<-s.request
		})
		s.value <- sequenceItem[T]{val: None[T](), err: err}
	}()
	return s
}

// Next asks the producer for its next value, blocking until it yields one,
// finishes, or fails. A returned Option that IsNone means the sequence has
// ended; err is non-nil exactly once, on the handshake during which produce
// returned it. Calling Next again after either must not be done.
func (s *Sequence[T]) Next() (Option[T], error) {
	s.request <- struct{}{}
	item := <-s.value
	return item.val, item.err
}

// ForEach drives the sequence to completion, calling fn for each value in
// order, and returns the producer's error, if any, once the sequence ends.
func (s *Sequence[T]) ForEach(fn func(T)) error {
	for {
		opt, err := s.Next()
		if err != nil {
			return err
		}
		v, ok := opt.Get()
		if !ok {
			return nil
		}
		fn(v)
	}
}
