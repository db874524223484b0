package asyncrt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSleepForWaitsAtLeastDuration exercises spec §8's sleep-precision
// scenario: SleepFor must not return before its duration elapses.
func TestSleepForWaitsAtLeastDuration(t *testing.T) {
	ex := newTestExecutor(t)

	elapsed, err := BlockOn(ex, func(ex *Executor) (time.Duration, error) {
		start := time.Now()
		h, err := Spawn(func() (time.Duration, error) {
			if err := SleepFor(30 * time.Millisecond); err != nil {
				return 0, err
			}
			return time.Since(start), nil
		})
		require.NoError(t, err)
		return h.Join()
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestSleepRequiresExecutorContext(t *testing.T) {
	err := SleepFor(time.Millisecond)
	assert.ErrorIs(t, err, ErrNotInExecutorContext)
}

func TestSleepUntilPastDeadlineReturnsPromptly(t *testing.T) {
	ex := newTestExecutor(t)

	_, err := BlockOn(ex, func(ex *Executor) (struct{}, error) {
		h, err := Spawn(func() (struct{}, error) {
			return struct{}{}, SleepUntil(time.Now().Add(-time.Second))
		})
		require.NoError(t, err)
		return h.Join()
	})
	require.NoError(t, err)
}
