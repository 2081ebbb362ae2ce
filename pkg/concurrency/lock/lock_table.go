package lock

import "heapstore/pkg/primitives"

// LockTable manages the mapping of pages to locks and transactions to their held locks.
// Transactions are keyed by their numeric id so that two TransactionID values
// for the same transaction share their locks.
type LockTable struct {
	pageLocks        map[primitives.PageID][]*Lock
	transactionLocks map[int64]map[primitives.PageID]LockType
}

func NewLockTable() *LockTable {
	return &LockTable{
		pageLocks:        make(map[primitives.PageID][]*Lock),
		transactionLocks: make(map[int64]map[primitives.PageID]LockType),
	}
}

// HasSufficientLock checks if the transaction already holds a lock on the page
// at least as strong as reqLockType.
func (lt *LockTable) HasSufficientLock(tid *primitives.TransactionID, pid primitives.PageID, reqLockType LockType) bool {
	current, ok := lt.transactionLocks[tid.ID()][pid]
	if !ok {
		return false
	}
	return current == ExclusiveLock || reqLockType == SharedLock
}

func (lt *LockTable) HasLockType(tid *primitives.TransactionID, pid primitives.PageID, lockType LockType) bool {
	current, ok := lt.transactionLocks[tid.ID()][pid]
	return ok && current == lockType
}

// HeldLock returns the lock type tid holds on pid, if any.
func (lt *LockTable) HeldLock(tid *primitives.TransactionID, pid primitives.PageID) (LockType, bool) {
	current, ok := lt.transactionLocks[tid.ID()][pid]
	return current, ok
}

func (lt *LockTable) GetPageLocks(pid primitives.PageID) []*Lock {
	return lt.pageLocks[pid]
}

// AddLock records a grant. A transaction that already holds a shared lock on
// the page and is granted an exclusive one is upgraded in place.
func (lt *LockTable) AddLock(tid *primitives.TransactionID, pid primitives.PageID, lockType LockType) {
	if current, held := lt.HeldLock(tid, pid); held {
		if current == SharedLock && lockType == ExclusiveLock {
			lt.UpgradeLock(tid, pid)
		}
		return
	}

	lt.pageLocks[pid] = append(lt.pageLocks[pid], NewLock(tid, lockType))

	if lt.transactionLocks[tid.ID()] == nil {
		lt.transactionLocks[tid.ID()] = make(map[primitives.PageID]LockType)
	}
	lt.transactionLocks[tid.ID()][pid] = lockType
}

func (lt *LockTable) IsPageLocked(pid primitives.PageID) bool {
	return len(lt.pageLocks[pid]) > 0
}

func (lt *LockTable) UpgradeLock(tid *primitives.TransactionID, pid primitives.PageID) {
	for _, lock := range lt.pageLocks[pid] {
		if lock.TID.Equals(tid) {
			lock.LockType = ExclusiveLock
			break
		}
	}
	lt.transactionLocks[tid.ID()][pid] = ExclusiveLock
}

// LockedPages returns every page tid holds a lock on, in no particular order.
func (lt *LockTable) LockedPages(tid *primitives.TransactionID) []primitives.PageID {
	txPages := lt.transactionLocks[tid.ID()]
	pages := make([]primitives.PageID, 0, len(txPages))
	for pid := range txPages {
		pages = append(pages, pid)
	}
	return pages
}

// ReleaseAllLocks drops every lock of tid and returns the pages that were affected.
func (lt *LockTable) ReleaseAllLocks(tid *primitives.TransactionID) []primitives.PageID {
	affected := lt.LockedPages(tid)
	for _, pid := range affected {
		lt.removePageLock(tid, pid)
	}
	delete(lt.transactionLocks, tid.ID())
	return affected
}

func (lt *LockTable) ReleaseLock(tid *primitives.TransactionID, pid primitives.PageID) {
	lt.removePageLock(tid, pid)

	if txPages, exists := lt.transactionLocks[tid.ID()]; exists {
		delete(txPages, pid)
		if len(txPages) == 0 {
			delete(lt.transactionLocks, tid.ID())
		}
	}
}

func (lt *LockTable) removePageLock(tid *primitives.TransactionID, pid primitives.PageID) {
	removeWhere(lt.pageLocks, pid, func(l *Lock) bool {
		return l.TID.Equals(tid)
	})
}
