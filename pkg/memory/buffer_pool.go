package memory

import (
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"heapstore/pkg/concurrency/lock"
	"heapstore/pkg/concurrency/transaction"
	"heapstore/pkg/config"
	"heapstore/pkg/dberror"
	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
	"heapstore/pkg/tuple"
)

var _ page.PageAccessor = (*BufferPool)(nil)

// BufferPool hands out lock-protected page instances to transactions and owns
// every page that is in memory.
//
// Frames live in one of two places:
//   - frames: pages some transaction has locked or dirtied. They are never
//     evicted, so uncommitted changes never reach disk (NO-STEAL). At most
//     maxPinned pages live here.
//   - clean: pages nobody holds. They match disk and may be dropped at any time.
//
// A page moves from clean to frames when it is locked and back when its last
// lock goes away and it is not dirty.
//
// FlushPage and FlushAllPages are the one way uncommitted data reaches disk.
// Pages they write on behalf of a live transaction are remembered in stolen,
// and abort writes their before-images back.
type BufferPool struct {
	files       *fileRegistry
	frames      map[primitives.PageID]page.Page
	clean       *cleanCache
	lockManager *lock.LockManager
	txRegistry  *transaction.TransactionRegistry
	maxPinned   int
	stolen      map[primitives.PageID]struct{}
	mutex       sync.Mutex
	log         *slog.Logger
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	PinnedPages        int
	DirtyPages         int
	CleanHits          uint64
	CleanMisses        uint64
	ActiveTransactions int
	Files              int
}

// NewBufferPool creates a pool sized by cfg.CachePages clean pages and
// cfg.MaxPinnedPages pinned pages. Locks wait at most cfg.LockTimeout.
func NewBufferPool(cfg config.Config) (*BufferPool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clean, err := newCleanCache(cfg.CachePages)
	if err != nil {
		return nil, dberror.WrapAs(dberror.ErrInvalidConfig, err, "NewBufferPool", "BufferPool")
	}

	return &BufferPool{
		files:       newFileRegistry(),
		frames:      make(map[primitives.PageID]page.Page),
		clean:       clean,
		lockManager: lock.NewLockManager(cfg.LockTimeout),
		txRegistry:  transaction.NewTransactionRegistry(),
		maxPinned:   cfg.MaxPinnedPages,
		stolen:      make(map[primitives.PageID]struct{}),
		log:         logging.WithComponent("bufferpool"),
	}, nil
}

// RegisterFile makes f's pages reachable through the pool.
func (bp *BufferPool) RegisterFile(f page.DbFile) {
	bp.files.add(f)
	bp.log.Debug("file registered", "file_id", f.GetID())
}

// GetFile returns the registered file with the given id.
func (bp *BufferPool) GetFile(id primitives.FileID) (page.DbFile, error) {
	return bp.files.get(id)
}

// BeginTransaction allocates a fresh transaction id and registers its context.
func (bp *BufferPool) BeginTransaction() *primitives.TransactionID {
	return bp.txRegistry.Begin().ID
}

// GetPage returns the page pid on behalf of tid, first acquiring a shared lock
// for ReadOnly or an exclusive lock for ReadWrite. The call blocks while a
// conflicting lock is held.
//
// Returns:
//   - page.Page: The pooled page instance; every caller holding it sees the same object
//   - error: FILE_NOT_REGISTERED, DEADLOCK or LOCK_TIMEOUT from locking,
//     BUFFER_POOL_FULL when no frame can be freed, or the file's read error
func (bp *BufferPool) GetPage(tid *primitives.TransactionID, pid primitives.PageID, perm transaction.Permissions) (page.Page, error) {
	file, err := bp.files.get(pid.FileID())
	if err != nil {
		return nil, err
	}

	if err := bp.lockManager.LockPage(tid, pid, perm == transaction.ReadWrite); err != nil {
		return nil, err
	}
	bp.txRegistry.GetOrCreate(tid).RecordPageAccess(pid, perm)

	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	if p, ok := bp.frames[pid]; ok {
		return p, nil
	}

	if err := bp.reserveFrameLocked(); err != nil {
		return nil, err
	}

	if p, ok := bp.clean.Get(pid); ok {
		bp.clean.Remove(pid)
		bp.frames[pid] = p
		return p, nil
	}

	p, err := file.ReadPage(pid)
	if err != nil {
		return nil, err
	}
	bp.frames[pid] = p
	return p, nil
}

// ReleasePage gives up tid's lock on pid before the transaction ends. A page
// tid has dirtied stays locked until commit or abort.
func (bp *BufferPool) ReleasePage(tid *primitives.TransactionID, pid primitives.PageID) {
	if tid == nil {
		return
	}

	if ctx, err := bp.txRegistry.Get(tid); err == nil {
		if ctx.IsPageDirty(pid) {
			return
		}
		ctx.ReleasePageAccess(pid)
	}
	bp.lockManager.UnlockPage(tid, pid)

	bp.mutex.Lock()
	bp.demoteLocked(pid)
	bp.mutex.Unlock()
}

// HoldsLock reports whether tid holds any lock on pid.
func (bp *BufferPool) HoldsLock(tid *primitives.TransactionID, pid primitives.PageID) bool {
	return bp.lockManager.HoldsLock(tid, pid)
}

// InsertTuple adds t to the registered file fileID on behalf of tid. The pages
// the file modified are marked dirty by tid and stay locked until tid ends.
func (bp *BufferPool) InsertTuple(tid *primitives.TransactionID, fileID primitives.FileID, t *tuple.Tuple) error {
	file, err := bp.files.get(fileID)
	if err != nil {
		return err
	}

	pages, err := file.InsertTuple(tid, t)
	if err != nil {
		return err
	}

	ctx := bp.txRegistry.GetOrCreate(tid)
	bp.markDirty(ctx, pages)
	ctx.RecordTupleWrite()
	return nil
}

// DeleteTuple removes t, located by its record id, on behalf of tid.
func (bp *BufferPool) DeleteTuple(tid *primitives.TransactionID, t *tuple.Tuple) error {
	if t.RecordID == nil {
		return dberror.Newf(dberror.ErrInvalidRecordID, "DeleteTuple", "BufferPool",
			"tuple has no record id")
	}

	file, err := bp.files.get(t.RecordID.PageID.FileID())
	if err != nil {
		return err
	}

	pages, err := file.DeleteTuple(tid, t)
	if err != nil {
		return err
	}

	ctx := bp.txRegistry.GetOrCreate(tid)
	bp.markDirty(ctx, pages)
	ctx.RecordTupleDelete()
	return nil
}

func (bp *BufferPool) markDirty(ctx *transaction.TransactionContext, pages []page.Page) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	for _, p := range pages {
		p.MarkDirty(true, ctx.ID)
		ctx.MarkPageDirty(p.GetID())
		bp.frames[p.GetID()] = p
	}
}

// FlushPage writes pid to its file if it is dirty and marks it clean. The
// page still belongs to the transaction that dirtied it; if that transaction
// aborts, the before-image is written back.
func (bp *BufferPool) FlushPage(pid primitives.PageID) error {
	bp.mutex.Lock()
	p, ok := bp.frames[pid]
	if !ok || p.IsDirty() == nil {
		bp.mutex.Unlock()
		return nil
	}
	bp.stolen[pid] = struct{}{}
	bp.mutex.Unlock()

	return bp.writePages([]page.Page{p})
}

// FlushAllPages writes every dirty page to disk, one goroutine per file, with
// the same abort guarantee as FlushPage.
func (bp *BufferPool) FlushAllPages() error {
	bp.mutex.Lock()
	dirty := make([]page.Page, 0)
	for pid, p := range bp.frames {
		if p.IsDirty() != nil {
			dirty = append(dirty, p)
			bp.stolen[pid] = struct{}{}
		}
	}
	bp.mutex.Unlock()

	return bp.writePages(dirty)
}

// writePages writes pages grouped by file. Pages of one file are written
// sequentially; different files are written in parallel.
func (bp *BufferPool) writePages(pages []page.Page) error {
	byFile := make(map[primitives.FileID][]page.Page)
	for _, p := range pages {
		fid := p.GetID().FileID()
		byFile[fid] = append(byFile[fid], p)
	}

	var g errgroup.Group
	for fid, filePages := range byFile {
		g.Go(func() error {
			file, err := bp.files.get(fid)
			if err != nil {
				return err
			}

			for _, p := range filePages {
				if err := file.WritePage(p); err != nil {
					return err
				}
				p.MarkDirty(false, nil)
			}
			return nil
		})
	}
	return g.Wait()
}

// demoteLocked moves pid to the clean cache once nobody holds it.
// Callers hold bp.mutex.
func (bp *BufferPool) demoteLocked(pid primitives.PageID) {
	p, ok := bp.frames[pid]
	if !ok || p.IsDirty() != nil || bp.lockManager.IsPageLocked(pid) {
		return
	}

	delete(bp.frames, pid)
	bp.clean.Put(p)
}

// reserveFrameLocked makes room for one more pinned page, demoting unheld
// clean frames if the pool is at its limit. Callers hold bp.mutex.
func (bp *BufferPool) reserveFrameLocked() error {
	if len(bp.frames) < bp.maxPinned {
		return nil
	}
	for pid := range bp.frames {
		bp.demoteLocked(pid)
	}
	if len(bp.frames) >= bp.maxPinned {
		return dberror.Newf(dberror.ErrBufferPoolFull, "GetPage", "BufferPool",
			"%d pages pinned by active transactions", len(bp.frames))
	}
	return nil
}

// Stats returns current pool counters.
func (bp *BufferPool) Stats() Stats {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	dirty := 0
	for _, p := range bp.frames {
		if p.IsDirty() != nil {
			dirty++
		}
	}

	return Stats{
		PinnedPages:        len(bp.frames),
		DirtyPages:         dirty,
		CleanHits:          bp.clean.Hits(),
		CleanMisses:        bp.clean.Misses(),
		ActiveTransactions: bp.txRegistry.Count(),
		Files:              len(bp.files.all()),
	}
}

// Close drops every cached page and closes the registered files. Changes of
// transactions that have not committed are discarded.
func (bp *BufferPool) Close() error {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	if active := bp.txRegistry.Count(); active > 0 {
		bp.log.Warn("closing with active transactions", "count", active)
	}

	bp.frames = make(map[primitives.PageID]page.Page)
	bp.clean.Clear()
	bp.clean.Close()

	var errs []error
	for _, f := range bp.files.all() {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
