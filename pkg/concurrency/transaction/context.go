package transaction

import (
	"fmt"
	"sync"
	"time"

	"heapstore/pkg/primitives"
)

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus int

const (
	TxActive TransactionStatus = iota
	TxCommitting
	TxAborting
	TxCommitted
	TxAborted
)

var statusNames = [...]string{
	TxActive:     "ACTIVE",
	TxCommitting: "COMMITTING",
	TxAborting:   "ABORTING",
	TxCommitted:  "COMMITTED",
	TxAborted:    "ABORTED",
}

func (ts TransactionStatus) String() string {
	if ts < 0 || int(ts) >= len(statusNames) {
		return "UNKNOWN"
	}
	return statusNames[ts]
}

// Permissions is the access level requested for a page. ReadWrite takes an
// exclusive page lock, ReadOnly a shared one.
type Permissions int

const (
	ReadOnly Permissions = iota
	ReadWrite
)

func (p Permissions) String() string {
	if p == ReadWrite {
		return "READ_WRITE"
	}
	return "READ_ONLY"
}

type TransactionStats struct {
	PagesRead     int
	PagesWritten  int
	TuplesWritten int
	TuplesDeleted int
	LockedPages   int
	DirtyPages    int
}

// pageAccess is what a transaction knows about one page. An entry lives while
// the page is either held or dirty.
type pageAccess struct {
	perm  Permissions
	held  bool
	dirty bool
}

// TransactionContext holds the buffer-pool-visible state of one transaction:
// which pages it has fetched (and with what permission) and which it has dirtied.
type TransactionContext struct {
	ID *primitives.TransactionID

	mutex     sync.RWMutex
	status    TransactionStatus
	startTime time.Time
	endTime   time.Time
	pages     map[primitives.PageID]*pageAccess
	stats     TransactionStats
}

func NewTransactionContext(tid *primitives.TransactionID) *TransactionContext {
	return &TransactionContext{
		ID:        tid,
		status:    TxActive,
		startTime: time.Now(),
		pages:     make(map[primitives.PageID]*pageAccess),
	}
}

func (tc *TransactionContext) IsActive() bool {
	return tc.GetStatus() == TxActive
}

func (tc *TransactionContext) GetStatus() TransactionStatus {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.status
}

// SetStatus moves the transaction to status. Reaching COMMITTED or ABORTED
// stops the clock.
func (tc *TransactionContext) SetStatus(status TransactionStatus) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.status = status
	if status == TxCommitted || status == TxAborted {
		tc.endTime = time.Now()
	}
}

func (tc *TransactionContext) entry(pid primitives.PageID) *pageAccess {
	a, ok := tc.pages[pid]
	if !ok {
		a = &pageAccess{}
		tc.pages[pid] = a
	}
	return a
}

// RecordPageAccess notes that the transaction now holds a lock on pid.
// A ReadWrite entry is never downgraded.
func (tc *TransactionContext) RecordPageAccess(pid primitives.PageID, perm Permissions) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	a := tc.entry(pid)
	if !a.held {
		tc.stats.PagesRead++
		a.held = true
		a.perm = perm
	}
	a.perm = max(a.perm, perm)
}

// ReleasePageAccess forgets the lock on pid. Dirty tracking is unaffected.
func (tc *TransactionContext) ReleasePageAccess(pid primitives.PageID) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	a, ok := tc.pages[pid]
	if !ok {
		return
	}
	a.held = false
	if !a.dirty {
		delete(tc.pages, pid)
	}
}

func (tc *TransactionContext) MarkPageDirty(pid primitives.PageID) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	a := tc.entry(pid)
	if !a.dirty {
		a.dirty = true
		tc.stats.PagesWritten++
	}
}

func (tc *TransactionContext) IsPageDirty(pid primitives.PageID) bool {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	a, ok := tc.pages[pid]
	return ok && a.dirty
}

// GetPagePermission reports the permission pid is held with, if it is held.
func (tc *TransactionContext) GetPagePermission(pid primitives.PageID) (Permissions, bool) {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	a, ok := tc.pages[pid]
	if !ok || !a.held {
		return ReadOnly, false
	}
	return a.perm, true
}

func (tc *TransactionContext) GetDirtyPages() []primitives.PageID {
	return tc.collect(func(a *pageAccess) bool { return a.dirty })
}

func (tc *TransactionContext) GetLockedPages() []primitives.PageID {
	return tc.collect(func(a *pageAccess) bool { return a.held })
}

func (tc *TransactionContext) collect(match func(*pageAccess) bool) []primitives.PageID {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	var pids []primitives.PageID
	for pid, a := range tc.pages {
		if match(a) {
			pids = append(pids, pid)
		}
	}
	return pids
}

func (tc *TransactionContext) RecordTupleWrite() {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.stats.TuplesWritten++
}

func (tc *TransactionContext) RecordTupleDelete() {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.stats.TuplesDeleted++
}

// GetStatistics returns a snapshot of the counters and current page sets.
func (tc *TransactionContext) GetStatistics() TransactionStats {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	stats := tc.stats
	for _, a := range tc.pages {
		if a.held {
			stats.LockedPages++
		}
		if a.dirty {
			stats.DirtyPages++
		}
	}
	return stats
}

// Duration is the time since Begin, frozen once the transaction ends.
func (tc *TransactionContext) Duration() time.Duration {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.durationLocked()
}

func (tc *TransactionContext) durationLocked() time.Duration {
	end := tc.endTime
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(tc.startTime)
}

func (tc *TransactionContext) String() string {
	stats := tc.GetStatistics()

	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return fmt.Sprintf("Transaction %s [Status=%s, Duration=%v, Dirty=%d, Locked=%d]",
		tc.ID, tc.status, tc.durationLocked(), stats.DirtyPages, stats.LockedPages)
}
