package asyncrt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCondNotifyWakesWaiter exercises a classic producer/consumer
// handshake: a consumer Task waits on a predicate guarded by a Mutex, a
// producer Task sets the predicate and notifies (spec §8's CV wake-up
// property).
func TestCondNotifyWakesWaiter(t *testing.T) {
	ex := newTestExecutor(t)

	_, err := BlockOn(ex, func(ex *Executor) (struct{}, error) {
		mu := NewMutex()
		cv := NewCond(mu)
		ready := false

		consumer, err := Spawn(func() (struct{}, error) {
			mu.Lock()
			cv.WaitPredicate(func() bool { return ready })
			mu.Unlock()
			return struct{}{}, nil
		})
		require.NoError(t, err)

		producer, err := Spawn(func() (struct{}, error) {
			mu.Lock()
			ready = true
			cv.Notify()
			mu.Unlock()
			return struct{}{}, nil
		})
		require.NoError(t, err)

		if _, err := producer.Join(); err != nil {
			return struct{}{}, err
		}
		_, err = consumer.Join()
		return struct{}{}, err
	})
	require.NoError(t, err)
}

func TestCondNotifyAllWakesEveryWaiter(t *testing.T) {
	ex := newTestExecutor(t)

	_, err := BlockOn(ex, func(ex *Executor) (struct{}, error) {
		mu := NewMutex()
		cv := NewCond(mu)
		ready := false

		const waiters = 10
		handles := make([]*JoinHandle[struct{}], waiters)
		for i := range handles {
			h, err := Spawn(func() (struct{}, error) {
				mu.Lock()
				cv.WaitPredicate(func() bool { return ready })
				mu.Unlock()
				return struct{}{}, nil
			})
			require.NoError(t, err)
			handles[i] = h
		}

		notifier, err := Spawn(func() (struct{}, error) {
			mu.Lock()
			ready = true
			cv.NotifyAll()
			mu.Unlock()
			return struct{}{}, nil
		})
		require.NoError(t, err)
		if _, err := notifier.Join(); err != nil {
			return struct{}{}, err
		}

		for _, h := range handles {
			if _, err := h.Join(); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	require.NoError(t, err)
}
