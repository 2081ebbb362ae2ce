package memory

import (
	"heapstore/pkg/concurrency/transaction"
	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
)

// CommitTransaction makes tid's changes durable and releases its locks.
//
// Dirty pages are written first; only after every write succeeded do they take
// a new before-image. If a write fails tid keeps its locks and may still abort.
func (bp *BufferPool) CommitTransaction(tid *primitives.TransactionID) error {
	ctx, err := bp.txRegistry.Get(tid)
	if err != nil {
		bp.lockManager.UnlockAllPages(tid)
		return nil
	}
	ctx.SetStatus(transaction.TxCommitting)

	dirty := bp.framesFor(ctx.GetDirtyPages())
	if err := bp.writePages(dirty); err != nil {
		ctx.SetStatus(transaction.TxActive)
		logging.WithTx(tid.ID()).Error("commit failed", "error", err)
		return err
	}

	for _, p := range dirty {
		p.SetBeforeImage()
	}
	bp.forgetStolen(ctx.GetDirtyPages())

	ctx.SetStatus(transaction.TxCommitted)
	bp.finish(ctx)

	logging.WithTx(tid.ID()).Info("transaction committed",
		"pages_written", len(dirty), "duration", ctx.Duration())
	return nil
}

// AbortTransaction discards tid's changes and releases its locks. Each page tid
// dirtied is replaced in memory by its before-image. Disk is untouched unless
// a flush wrote one of those pages early, in which case the before-image is
// written back. Locks are released even if that write fails.
func (bp *BufferPool) AbortTransaction(tid *primitives.TransactionID) error {
	ctx, err := bp.txRegistry.Get(tid)
	if err != nil {
		bp.lockManager.UnlockAllPages(tid)
		return nil
	}
	ctx.SetStatus(transaction.TxAborting)

	var undo []page.Page
	bp.mutex.Lock()
	for _, pid := range ctx.GetDirtyPages() {
		p, ok := bp.frames[pid]
		if !ok {
			continue
		}

		before := p.GetBeforeImage()
		if before != nil {
			bp.frames[pid] = before
		} else {
			delete(bp.frames, pid)
		}

		if _, ok := bp.stolen[pid]; ok {
			delete(bp.stolen, pid)
			if before != nil {
				undo = append(undo, before)
			}
		}
	}
	bp.mutex.Unlock()

	err = bp.writePages(undo)
	if err != nil {
		logging.WithTx(tid.ID()).Error("abort could not restore flushed pages", "error", err)
	}

	ctx.SetStatus(transaction.TxAborted)
	bp.finish(ctx)

	logging.WithTx(tid.ID()).Info("transaction aborted",
		"pages_restored", len(undo), "duration", ctx.Duration())
	return err
}

func (bp *BufferPool) forgetStolen(pids []primitives.PageID) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()
	for _, pid := range pids {
		delete(bp.stolen, pid)
	}
}

// finish forgets ctx, releases all of its locks and moves the pages it held
// to the clean cache.
func (bp *BufferPool) finish(ctx *transaction.TransactionContext) {
	held := append(ctx.GetLockedPages(), ctx.GetDirtyPages()...)

	bp.txRegistry.Remove(ctx.ID)
	bp.lockManager.UnlockAllPages(ctx.ID)

	bp.mutex.Lock()
	defer bp.mutex.Unlock()
	for _, pid := range held {
		bp.demoteLocked(pid)
	}
}

func (bp *BufferPool) framesFor(pids []primitives.PageID) []page.Page {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	pages := make([]page.Page, 0, len(pids))
	for _, pid := range pids {
		if p, ok := bp.frames[pid]; ok {
			pages = append(pages, p)
		}
	}
	return pages
}
