// Package lock implements page-level two-phase locking for the buffer pool.
//
// Two lock modes are supported:
//
//   - [SharedLock]: required to read a page; compatible with other shared locks.
//   - [ExclusiveLock]: required to write a page; incompatible with all other locks.
//
// A transaction holding a shared lock may upgrade it to exclusive provided no
// other transaction holds a lock on that page. Downgrades are never performed.
//
// # Components
//
// [LockManager] is the public entry point. It coordinates:
//
//   - [LockTable]: which pages each transaction holds locks on, and which
//     transactions hold locks on each page.
//   - [WaitQueue]: per-page FIFO queues of pending [LockRequest] entries.
//   - [DependencyGraph]: the wait-for graph. An edge A→B means A waits for a
//     lock held by B; a cycle is a deadlock.
//   - [LockGrantor]: compatibility checks and grants.
//
// # Waiting
//
// A request that cannot be granted is queued and its wait-for edges are
// recorded. If that closes a cycle the request is withdrawn and LockPage fails
// with dberror.ErrDeadlock, so the caller can abort. Otherwise the caller sleeps
// until a release grants the request or a short backoff expires, and retries.
// A configured timeout bounds the total wait (dberror.ErrLockTimeout).
package lock
