package lock

import (
	"time"

	"heapstore/pkg/primitives"
)

type LockType int

const (
	SharedLock LockType = iota
	ExclusiveLock
)

func (lt LockType) String() string {
	if lt == ExclusiveLock {
		return "exclusive"
	}
	return "shared"
}

// Lock is one grant held by a transaction on a page.
type Lock struct {
	TID       *primitives.TransactionID
	LockType  LockType
	GrantTime time.Time
}

// LockRequest is a pending request. Chan receives a value when the request is
// granted by a release on the page.
type LockRequest struct {
	TID      *primitives.TransactionID
	LockType LockType
	Chan     chan struct{}
}

func NewLock(tid *primitives.TransactionID, lockType LockType) *Lock {
	return &Lock{
		TID:       tid,
		LockType:  lockType,
		GrantTime: time.Now(),
	}
}

func NewLockRequest(tid *primitives.TransactionID, lockType LockType) *LockRequest {
	return &LockRequest{
		TID:      tid,
		LockType: lockType,
		Chan:     make(chan struct{}, 1),
	}
}
