package lock

import (
	"slices"

	"heapstore/pkg/primitives"
)

// LockGrantor applies the shared/exclusive compatibility matrix against the
// lock table. A transaction never conflicts with its own locks, which is what
// lets a sole shared holder upgrade in place.
type LockGrantor struct {
	lockTable *LockTable
	waitQueue *WaitQueue
}

func NewLockGrantor(lockTable *LockTable, waitQueue *WaitQueue) *LockGrantor {
	return &LockGrantor{lockTable: lockTable, waitQueue: waitQueue}
}

func (lg *LockGrantor) CanGrantImmediately(tid *primitives.TransactionID, pid primitives.PageID, lockType LockType) bool {
	conflicts := func(l *Lock) bool {
		if l.TID.Equals(tid) {
			return false
		}
		return lockType == ExclusiveLock || l.LockType == ExclusiveLock
	}
	return !slices.ContainsFunc(lg.lockTable.GetPageLocks(pid), conflicts)
}

// GrantLock records the lock and retires tid's queued request for pid.
func (lg *LockGrantor) GrantLock(tid *primitives.TransactionID, pid primitives.PageID, lockType LockType) {
	lg.lockTable.AddLock(tid, pid, lockType)
	lg.waitQueue.RemoveRequest(tid, pid)
}
