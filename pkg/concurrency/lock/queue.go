package lock

import (
	"slices"

	"heapstore/pkg/primitives"
)

// WaitQueue holds the pending lock requests of each page in FIFO order, plus a
// reverse index from transaction to the pages it waits on.
type WaitQueue struct {
	pageWaitQueue      map[primitives.PageID][]*LockRequest
	transactionWaiting map[int64][]primitives.PageID
}

func NewWaitQueue() *WaitQueue {
	return &WaitQueue{
		pageWaitQueue:      make(map[primitives.PageID][]*LockRequest),
		transactionWaiting: make(map[int64][]primitives.PageID),
	}
}

// Add enqueues a request for pid. If tid is already waiting on pid the
// existing request is returned instead.
func (wq *WaitQueue) Add(tid *primitives.TransactionID, pid primitives.PageID, lockType LockType) *LockRequest {
	if req := wq.find(tid, pid); req != nil {
		if lockType == ExclusiveLock {
			req.LockType = ExclusiveLock
		}
		return req
	}

	request := NewLockRequest(tid, lockType)
	wq.pageWaitQueue[pid] = append(wq.pageWaitQueue[pid], request)
	wq.transactionWaiting[tid.ID()] = append(wq.transactionWaiting[tid.ID()], pid)
	return request
}

// RemoveRequest removes tid's request on pid from both indexes.
func (wq *WaitQueue) RemoveRequest(tid *primitives.TransactionID, pid primitives.PageID) {
	removeWhere(wq.pageWaitQueue, pid, func(req *LockRequest) bool {
		return req.TID.Equals(tid)
	})
	removeWhere(wq.transactionWaiting, tid.ID(), func(p primitives.PageID) bool {
		return p == pid
	})
}

// RemoveAllForTransaction drops every pending request of tid.
func (wq *WaitQueue) RemoveAllForTransaction(tid *primitives.TransactionID) {
	for _, pid := range slices.Clone(wq.transactionWaiting[tid.ID()]) {
		wq.RemoveRequest(tid, pid)
	}
}

// GetRequests returns the requests waiting on pid in arrival order.
func (wq *WaitQueue) GetRequests(pid primitives.PageID) []*LockRequest {
	return slices.Clone(wq.pageWaitQueue[pid])
}

// GetPagesRequestedFor returns the pages tid is waiting on.
func (wq *WaitQueue) GetPagesRequestedFor(tid *primitives.TransactionID) []primitives.PageID {
	return slices.Clone(wq.transactionWaiting[tid.ID()])
}

func (wq *WaitQueue) find(tid *primitives.TransactionID, pid primitives.PageID) *LockRequest {
	for _, req := range wq.pageWaitQueue[pid] {
		if req.TID.Equals(tid) {
			return req
		}
	}
	return nil
}
