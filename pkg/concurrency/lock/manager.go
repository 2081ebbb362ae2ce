package lock

import (
	"sync"
	"time"

	"heapstore/pkg/dberror"
	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
)

const (
	baseRetryDelay = time.Millisecond
	maxRetryDelay  = 50 * time.Millisecond
)

// LockManager manages page-level locks for transactions.
// It provides deadlock detection, lock upgrades and a bounded wait.
type LockManager struct {
	depGraph    *DependencyGraph
	mutex       sync.Mutex
	waitQueue   *WaitQueue
	lockTable   *LockTable
	lockGrantor *LockGrantor
	timeout     time.Duration
}

// NewLockManager creates a lock manager whose waits give up after timeout.
// A zero timeout waits until the lock is granted or a deadlock is detected.
func NewLockManager(timeout time.Duration) *LockManager {
	lockTable := NewLockTable()
	waitQueue := NewWaitQueue()

	return &LockManager{
		depGraph:    NewDependencyGraph(),
		waitQueue:   waitQueue,
		lockTable:   lockTable,
		lockGrantor: NewLockGrantor(lockTable, waitQueue),
		timeout:     timeout,
	}
}

// LockPage acquires a shared or exclusive lock on pid for tid, blocking while
// the lock is held incompatibly by another transaction.
//
// Parameters:
//   - tid: The transaction requesting the lock (must not be nil)
//   - pid: The page to lock
//   - exclusive: If true, requests an exclusive lock; otherwise a shared lock
//
// Returns:
//   - error: NIL_TRANSACTION if tid is nil, DEADLOCK_DETECTED if waiting would close a cycle in the wait-for
//     graph, LOCK_TIMEOUT if the lock was not granted in time
func (lm *LockManager) LockPage(tid *primitives.TransactionID, pid primitives.PageID, exclusive bool) error {
	if tid == nil {
		return dberror.Newf(dberror.ErrNilTransaction, "LockPage", "LockManager", "lock on %s", pid)
	}

	lockType := SharedLock
	if exclusive {
		lockType = ExclusiveLock
	}

	lm.mutex.Lock()
	if lm.lockTable.HasSufficientLock(tid, pid, lockType) {
		lm.mutex.Unlock()
		return nil
	}
	lm.mutex.Unlock()

	return lm.attemptToAcquireLock(tid, pid, lockType)
}

// attemptToAcquireLock grants the lock as soon as it is compatible. While it is
// not, the request sits in the page's wait queue and the caller sleeps until
// either a release grants it or the backoff delay passes. Deadlock detection
// runs before every sleep.
func (lm *LockManager) attemptToAcquireLock(tid *primitives.TransactionID, pid primitives.PageID, lockType LockType) error {
	var deadline time.Time
	if lm.timeout > 0 {
		deadline = time.Now().Add(lm.timeout)
	}

	for attempt := 0; ; attempt++ {
		lm.mutex.Lock()

		if lm.lockTable.HasSufficientLock(tid, pid, lockType) {
			lm.stopWaiting(tid, pid)
			lm.mutex.Unlock()
			return nil
		}

		if lm.lockGrantor.CanGrantImmediately(tid, pid, lockType) {
			lm.lockGrantor.GrantLock(tid, pid, lockType)
			lm.depGraph.RemoveWaiter(tid.ID())
			lm.mutex.Unlock()
			return nil
		}

		request := lm.waitQueue.Add(tid, pid, lockType)
		lm.depGraph.RemoveWaiter(tid.ID())
		lm.updateDependencies(tid, pid, lockType)

		if lm.depGraph.HasCycle() {
			lm.stopWaiting(tid, pid)
			lm.mutex.Unlock()

			logging.WithLock(tid.ID(), pid.String()).Warn("deadlock detected", "lock_type", lockType)
			return dberror.Newf(dberror.ErrDeadlock, "LockPage", "LockManager",
				"%s waiting for %s lock on page %s", tid, lockType, pid)
		}

		wait := calculateRetryDelay(attempt)
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				lm.stopWaiting(tid, pid)
				lm.mutex.Unlock()
				return dberror.Newf(dberror.ErrLockTimeout, "LockPage", "LockManager",
					"%s gave up on %s lock for page %s after %s", tid, lockType, pid, lm.timeout)
			}
			wait = min(wait, remaining)
		}
		lm.mutex.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-request.Chan:
		case <-timer.C:
		}
		timer.Stop()
	}
}

func (lm *LockManager) stopWaiting(tid *primitives.TransactionID, pid primitives.PageID) {
	lm.waitQueue.RemoveRequest(tid, pid)
	lm.depGraph.RemoveWaiter(tid.ID())
}

// updateDependencies adds wait-for edges from tid to every conflicting holder of pid.
// An exclusive request conflicts with all holders; a shared one only with exclusive holders.
func (lm *LockManager) updateDependencies(tid *primitives.TransactionID, pid primitives.PageID, lockType LockType) {
	for _, lock := range lm.lockTable.GetPageLocks(pid) {
		if lock.TID.Equals(tid) {
			continue
		}
		if lockType == ExclusiveLock || lock.LockType == ExclusiveLock {
			lm.depGraph.AddEdge(tid.ID(), lock.TID.ID())
		}
	}
}

// calculateRetryDelay doubles the wait every five attempts, capped at maxRetryDelay.
func calculateRetryDelay(attempt int) time.Duration {
	exponentialFactor := min(attempt/5, 6)
	return min(baseRetryDelay*time.Duration(1<<uint(exponentialFactor)), maxRetryDelay) // #nosec G115
}

// UnlockPage releases tid's lock on pid and grants compatible waiters.
func (lm *LockManager) UnlockPage(tid *primitives.TransactionID, pid primitives.PageID) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	lm.lockTable.ReleaseLock(tid, pid)
	lm.processWaitQueue(pid)
}

// UnlockAllPages releases every lock held by tid and drops its pending requests.
// It is called on commit and abort.
func (lm *LockManager) UnlockAllPages(tid *primitives.TransactionID) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	pages := lm.lockTable.ReleaseAllLocks(tid)
	lm.depGraph.RemoveTransaction(tid.ID())
	lm.waitQueue.RemoveAllForTransaction(tid)

	for _, pid := range pages {
		lm.processWaitQueue(pid)
	}
}

// processWaitQueue grants, in arrival order, every waiting request on pid that
// has become compatible, and refreshes the wait-for edges of those still waiting.
func (lm *LockManager) processWaitQueue(pid primitives.PageID) {
	for _, request := range lm.waitQueue.GetRequests(pid) {
		waiter := request.TID.ID()

		if lm.lockGrantor.CanGrantImmediately(request.TID, pid, request.LockType) {
			lm.lockGrantor.GrantLock(request.TID, pid, request.LockType)
			lm.depGraph.RemoveWaiter(waiter)
			select {
			case request.Chan <- struct{}{}:
			default:
			}
			continue
		}

		lm.depGraph.RemoveWaiter(waiter)
		lm.updateDependencies(request.TID, pid, request.LockType)
	}
}

// IsPageLocked reports whether any transaction holds a lock on pid.
func (lm *LockManager) IsPageLocked(pid primitives.PageID) bool {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	return lm.lockTable.IsPageLocked(pid)
}

// HoldsLock reports whether tid holds any lock on pid.
func (lm *LockManager) HoldsLock(tid *primitives.TransactionID, pid primitives.PageID) bool {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	_, held := lm.lockTable.HeldLock(tid, pid)
	return held
}

// LockedPages returns the pages tid currently holds locks on.
func (lm *LockManager) LockedPages(tid *primitives.TransactionID) []primitives.PageID {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	return lm.lockTable.LockedPages(tid)
}
