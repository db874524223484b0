package asyncrt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutexTryLock(t *testing.T) {
	m := NewMutex()
	assert.True(t, m.TryLock())
	assert.False(t, m.TryLock())
	m.Unlock()
	assert.True(t, m.TryLock())
}

// TestMutexMutualExclusion spawns many Tasks incrementing a shared
// counter guarded by a Mutex, and asserts the final count reflects every
// increment exactly once (spec §8's mutual-exclusion property).
func TestMutexMutualExclusion(t *testing.T) {
	ex := newTestExecutor(t)
	const tasks = 200

	counter, err := BlockOn(ex, func(ex *Executor) (int, error) {
		mu := NewMutex()
		counter := 0
		handles := make([]*JoinHandle[struct{}], tasks)
		for i := range handles {
			h, err := Spawn(func() (struct{}, error) {
				mu.Lock()
				counter++
				mu.Unlock()
				return struct{}{}, nil
			})
			require.NoError(t, err)
			handles[i] = h
		}
		for _, h := range handles {
			if _, err := h.Join(); err != nil {
				return 0, err
			}
		}
		return counter, nil
	})
	require.NoError(t, err)
	assert.Equal(t, tasks, counter)
}
