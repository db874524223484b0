package asyncrt

// Locker is the minimal interface multi-lock acquisition needs: Mutex and
// RWMutex (via its exclusive side) both satisfy it.
type Locker interface {
	TryLock() bool
	Lock()
	Unlock()
}

// LockAll acquires every Locker in locks, deadlock-free regardless of the
// order any other goroutine locks the same set, by rotating which one it
// blocks on across retries — ported from
// original_source/include/crasy/lock_guard.hpp's detail::lock_impl: block
// on locks[start], try_lock the rest in order, and if any try_lock fails,
// unlock everything acquired so far and retry starting from
// (start + acquired + 1) % N.
//
// Requires len(locks) >= 1. Blocks until all are held.
func LockAll(locks ...Locker) {
	n := len(locks)
	if n == 0 {
		return
	}
	if n == 1 {
		locks[0].Lock()
		return
	}

	start := 0
	for {
		locks[start].Lock()

		acquired := 0
		failedAt := -1
		for i := 1; i < n; i++ {
			idx := (start + i) % n
			if locks[idx].TryLock() {
				acquired++
			} else {
				failedAt = idx
				break
			}
		}

		if failedAt == -1 {
			return // every lock acquired, in rotated order
		}

		// Roll back what we got, including the blocking lock, and retry
		// by blocking on the one that was contended.
		locks[start].Unlock()
		for i := 1; i <= acquired; i++ {
			locks[(start+i)%n].Unlock()
		}
		start = (start + acquired + 1) % n
	}
}

// UnlockAll releases every Locker in locks. Order doesn't matter once all
// are held by the same goroutine.
func UnlockAll(locks ...Locker) {
	for _, l := range locks {
		l.Unlock()
	}
}
