// Package asyncrt is an asynchronous execution runtime: suspendable
// computations (tasks) running cooperatively across a fixed pool of core
// workers that drive a shared I/O reactor, plus a fixed pool of blocking
// workers for synchronous offload. It provides the primitives a
// server-style program needs to express concurrent work as straight-line
// sequential code: Spawn/JoinHandle (a task runs as its own goroutine),
// SpawnBlocking/BlockingHandle, SleepFor/SleepUntil, Mutex, RWMutex, Cond,
// LockAll/UnlockAll, Sequence, and a lock-free Queue.
//
// Concrete protocol bindings (UDP, files, DNS), IP address types, and CLI
// tooling are not part of this package; external I/O is wired onto the
// reactor through Executor.RegisterFD, Executor.Schedule,
// Executor.RunBlocking and IOFuture.
package asyncrt
