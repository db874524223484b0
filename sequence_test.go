package asyncrt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSequenceProducerConsumerHandshake exercises spec §8's lazy-sequence
// producer/consumer scenario: each yield parks the producer until Next is
// called, and the consumer sees every value exactly once, in order.
func TestSequenceProducerConsumerHandshake(t *testing.T) {
	ex := newTestExecutor(t)

	var collected []int
	_, err := BlockOn(ex, func(ex *Executor) (struct{}, error) {
		seq, err := NewSequence(func(yield func(int)) error {
			for i := 0; i < 5; i++ {
				yield(i)
			}
			return nil
		})
		require.NoError(t, err)

		h, err := Spawn(func() (struct{}, error) {
			return struct{}{}, seq.ForEach(func(v int) {
				collected = append(collected, v)
			})
		})
		require.NoError(t, err)
		return h.Join()
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, collected)
}

func TestSequenceEmpty(t *testing.T) {
	ex := newTestExecutor(t)

	count, err := BlockOn(ex, func(ex *Executor) (int, error) {
		seq, err := NewSequence(func(yield func(int)) error { return nil })
		if err != nil {
			return 0, err
		}
		n := 0
		h, err := Spawn(func() (struct{}, error) {
			return struct{}{}, seq.ForEach(func(int) { n++ })
		})
		if err != nil {
			return 0, err
		}
		_, err = h.Join()
		return n, err
	})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// TestSequenceProducerFailure exercises spec §8 Scenario 4's second half: a
// producer that yields 0..4 then raises on what would have been yield 5; the
// consumer must observe that failure exactly once, with every prior value
// already collected.
func TestSequenceProducerFailure(t *testing.T) {
	ex := newTestExecutor(t)

	errBoom := errors.New("boom on yield 5")

	var collected []int
	_, err := BlockOn(ex, func(ex *Executor) (struct{}, error) {
		seq, err := NewSequence(func(yield func(int)) error {
			for i := 0; i < 5; i++ {
				yield(i)
			}
			return errBoom
		})
		require.NoError(t, err)

		h, err := Spawn(func() (struct{}, error) {
			return struct{}{}, seq.ForEach(func(v int) {
				collected = append(collected, v)
			})
		})
		require.NoError(t, err)
		return h.Join()
	})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, collected)
}
