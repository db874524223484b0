package asyncrt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLockAllDeadlockFreedom runs many Tasks acquiring the same two
// mutexes in opposite orders via LockAll, which must never deadlock
// (spec §8's multi-lock deadlock-freedom property) because LockAll
// rotates which lock it blocks on across retries rather than acquiring
// in caller-specified order.
func TestLockAllDeadlockFreedom(t *testing.T) {
	ex := newTestExecutor(t)
	const rounds = 200

	counter, err := BlockOn(ex, func(ex *Executor) (int, error) {
		a := NewMutex()
		b := NewMutex()
		counter := 0

		handles := make([]*JoinHandle[struct{}], rounds)
		for i := range handles {
			forward := i%2 == 0
			h, err := Spawn(func() (struct{}, error) {
				if forward {
					LockAll(a, b)
				} else {
					LockAll(b, a)
				}
				counter++
				if forward {
					UnlockAll(a, b)
				} else {
					UnlockAll(b, a)
				}
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
	assert.Equal(t, rounds, counter)
}

func TestLockAllSingleLock(t *testing.T) {
	m := NewMutex()
	LockAll(m)
	assert.False(t, m.TryLock())
	UnlockAll(m)
	assert.True(t, m.TryLock())
}
