package heap

import (
	"errors"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"heapstore/pkg/concurrency/transaction"
	"heapstore/pkg/config"
	"heapstore/pkg/dberror"
	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
	"heapstore/pkg/tuple"
)

// HeapFile stores the tuples of one table as an unordered sequence of
// fixed-size pages in a single backing store.
//
// Storage Layout:
//   - Each page is exactly pageSize bytes
//   - Pages are numbered sequentially starting from 0
//   - Page offsets are calculated as: pageNo * pageSize
//
// The page count only grows. Every index in [0, NumPages()) is a fully
// allocated region of the store, so a count snapshot stays valid forever.
// numPagesMu guards the count and the store's length; page contents are
// protected by the buffer pool's page locks, not by the file.
type HeapFile struct {
	*page.BaseFile
	tupleDesc   *tuple.TupleDescription
	accessor    page.PageAccessor
	syncOnWrite bool

	numPagesMu sync.RWMutex
	numPages   primitives.PageNumber

	version atomic.Int64
	log     *slog.Logger
}

// NewHeapFile opens (creating if needed) the heap file at filePath.
//
// Parameters:
//   - filePath: Path to the heap file on disk (cannot be empty)
//   - td: Schema definition for tuples that will be stored in this file
//   - accessor: Page cache the file goes through for tuple mutations
//   - cfg: Supplies the page size and write sync policy
//
// Returns:
//   - *HeapFile: The initialized heap file
//   - error: If the path is empty, the page size cannot hold one tuple, or I/O fails
func NewHeapFile(filePath primitives.Filepath, td *tuple.TupleDescription, accessor page.PageAccessor, cfg config.Config) (*HeapFile, error) {
	if err := checkLayout(td, cfg.PageSize); err != nil {
		return nil, err
	}

	baseFile, err := page.NewBaseFile(filePath, cfg.PageSize)
	if err != nil {
		return nil, dberror.WrapAs(dberror.ErrStoreIO, err, "NewHeapFile", "HeapFile")
	}

	return newHeapFile(baseFile, td, accessor, cfg)
}

// NewHeapFileFromStore builds a heap file over an already open store.
func NewHeapFileFromStore(store page.BackingStore, fileID primitives.FileID, td *tuple.TupleDescription, accessor page.PageAccessor, cfg config.Config) (*HeapFile, error) {
	if err := checkLayout(td, cfg.PageSize); err != nil {
		return nil, err
	}
	return newHeapFile(page.NewBaseFileFromStore(store, fileID, cfg.PageSize), td, accessor, cfg)
}

func newHeapFile(baseFile *page.BaseFile, td *tuple.TupleDescription, accessor page.PageAccessor, cfg config.Config) (*HeapFile, error) {
	hf := &HeapFile{
		BaseFile:    baseFile,
		tupleDesc:   td,
		accessor:    accessor,
		syncOnWrite: cfg.SyncOnWrite,
		log:         logging.WithFile(uint64(baseFile.GetID())),
	}

	size, err := baseFile.Size()
	if err != nil {
		_ = baseFile.Close()
		return nil, dberror.WrapAs(dberror.ErrStoreIO, err, "NewHeapFile", "HeapFile")
	}

	pageSize := int64(cfg.PageSize)
	hf.numPages = primitives.PageNumber((size + pageSize - 1) / pageSize) // #nosec G115

	// A trailing partial page is padded so every counted page is fully allocated.
	if size%pageSize != 0 {
		if err := baseFile.Extend(hf.numPages); err != nil {
			_ = baseFile.Close()
			return nil, dberror.WrapAs(dberror.ErrStoreIO, err, "NewHeapFile", "HeapFile")
		}
		hf.log.Warn("padded partial trailing page", "size", size, "pages", hf.numPages)
	}

	hf.log.Debug("heap file opened", "pages", hf.numPages, "schema", td.String())
	return hf, nil
}

func checkLayout(td *tuple.TupleDescription, pageSize int) error {
	slots := NumSlots(pageSize, td.GetSize())
	if slots < 1 {
		return dberror.Newf(dberror.ErrPageTooSmall, "NewHeapFile", "HeapFile",
			"page size %d cannot hold a %d-byte tuple", pageSize, td.GetSize())
	}
	if slots > math.MaxUint16 {
		return dberror.Newf(dberror.ErrInvalidConfig, "NewHeapFile", "HeapFile",
			"page size %d yields %d slots, more than a slot id can address", pageSize, slots)
	}
	return nil
}

// GetTupleDesc returns the schema definition for tuples stored in this file.
func (hf *HeapFile) GetTupleDesc() *tuple.TupleDescription {
	return hf.tupleDesc
}

// NumPages returns a snapshot of the current page count.
func (hf *HeapFile) NumPages() primitives.PageNumber {
	hf.numPagesMu.RLock()
	defer hf.numPagesMu.RUnlock()
	return hf.numPages
}

// Version returns the mutation counter. It increases by exactly one for every
// successful InsertTuple or DeleteTuple and is never rolled back.
func (hf *HeapFile) Version() int64 {
	return hf.version.Load()
}

// ReadPage reads the specified page from disk into memory.
// This method performs physical I/O and is called by the buffer pool on a miss.
//
// Parameters:
//   - pid: The page identifier; its file must be this file
//
// Returns:
//   - page.Page: The loaded HeapPage with tuple data
//   - error: INVALID_PAGE_ID if pid is outside [0, NumPages()) or names another file,
//     STORE_IO_FAILURE if the read fails, CORRUPT_PAGE if the bytes do not parse
func (hf *HeapFile) ReadPage(pid primitives.PageID) (page.Page, error) {
	if err := hf.checkPageID(pid, "ReadPage"); err != nil {
		return nil, err
	}

	pageData, err := hf.ReadPageData(pid.PageNo())
	if err != nil {
		return nil, dberror.WrapAs(dberror.ErrStoreIO, err, "ReadPage", "HeapFile")
	}

	return NewHeapPage(pid, pageData, hf.tupleDesc, hf.PageSize())
}

// WritePage writes the page's header followed by its slot array at the page's
// offset. Exactly pageSize bytes are written.
//
// Parameters:
//   - p: The page to write; must be a *HeapPage of this file
//
// Returns:
//   - error: INVALID_PAGE_ID for a foreign or out-of-range page,
//     STORE_IO_FAILURE if the write or sync fails
func (hf *HeapFile) WritePage(p page.Page) error {
	hp, ok := p.(*HeapPage)
	if !ok || hp == nil {
		return dberror.Newf(dberror.ErrInvalidPageID, "WritePage", "HeapFile",
			"cannot write %T to a heap file", p)
	}

	pid := hp.GetID()
	if err := hf.checkPageID(pid, "WritePage"); err != nil {
		return err
	}

	data, err := encodePage(hp.Header(), hp.Tuples(), hf.tupleDesc, hf.PageSize())
	if err != nil {
		return dberror.WrapAs(dberror.ErrCorruptPage, err, "WritePage", "HeapFile")
	}

	if err := hf.WritePageData(pid.PageNo(), data, hf.syncOnWrite); err != nil {
		return dberror.WrapAs(dberror.ErrStoreIO, err, "WritePage", "HeapFile")
	}
	return nil
}

// InsertTuple adds t to the first page with a free slot, growing the file by one
// page when every existing page is full.
//
// Pages are requested from the accessor with ReadWrite permission. A full page
// is released immediately; the page that receives the tuple stays held by tid.
//
// Returns:
//   - []page.Page: The single page that now contains t
//   - error: SCHEMA_MISMATCH if t's types differ from the file's schema, or any
//     error raised by the accessor or the backing store
func (hf *HeapFile) InsertTuple(tid *primitives.TransactionID, t *tuple.Tuple) ([]page.Page, error) {
	if !t.TupleDesc.Equals(hf.tupleDesc) {
		return nil, dberror.Newf(dberror.ErrSchemaMismatch, "InsertTuple", "HeapFile",
			"tuple %s, file %s", t.TupleDesc, hf.tupleDesc)
	}

	for {
		numPages := hf.NumPages()

		for pageNo := primitives.PageNumber(0); pageNo < numPages; pageNo++ {
			hp, err := hf.fetchPage(tid, primitives.NewPageID(hf.GetID(), pageNo))
			if err != nil {
				return nil, err
			}

			err = hp.InsertTuple(t)
			if errors.Is(err, dberror.ErrPageFull) {
				hf.accessor.ReleasePage(tid, hp.GetID())
				continue
			}
			if err != nil {
				return nil, err
			}

			hf.version.Add(1)
			return []page.Page{hp}, nil
		}

		if err := hf.extend(numPages); err != nil {
			return nil, err
		}
	}
}

// DeleteTuple removes the tuple addressed by t.RecordID.
//
// Returns:
//   - []page.Page: The single page the tuple was removed from
//   - error: SCHEMA_MISMATCH if t's types differ from the file's schema;
//     INVALID_RECORD_ID if t has no record id, the id belongs to another file
//     or an unallocated page, or the slot is already empty
func (hf *HeapFile) DeleteTuple(tid *primitives.TransactionID, t *tuple.Tuple) ([]page.Page, error) {
	if !t.TupleDesc.Equals(hf.tupleDesc) {
		return nil, dberror.Newf(dberror.ErrSchemaMismatch, "DeleteTuple", "HeapFile",
			"tuple %s, file %s", t.TupleDesc, hf.tupleDesc)
	}

	rid := t.RecordID
	if rid == nil {
		return nil, dberror.Newf(dberror.ErrInvalidRecordID, "DeleteTuple", "HeapFile",
			"tuple has no record id")
	}

	if rid.PageID.FileID() != hf.GetID() || rid.PageID.PageNo() >= hf.NumPages() {
		return nil, dberror.Newf(dberror.ErrInvalidRecordID, "DeleteTuple", "HeapFile",
			"%s does not address a page of file %d", rid, hf.GetID())
	}

	hp, err := hf.fetchPage(tid, rid.PageID)
	if err != nil {
		return nil, err
	}

	if err := hp.DeleteTuple(t); err != nil {
		return nil, err
	}

	hf.version.Add(1)
	return []page.Page{hp}, nil
}

// Iterator returns a scan over every tuple of the file on behalf of tid.
func (hf *HeapFile) Iterator(tid *primitives.TransactionID) *HeapFileIterator {
	return NewHeapFileIterator(hf, tid)
}

// extend grows the file by one zeroed page, unless the count has already moved
// past observed, in which case the caller's rescan will find the new page.
func (hf *HeapFile) extend(observed primitives.PageNumber) error {
	hf.numPagesMu.Lock()
	defer hf.numPagesMu.Unlock()

	if hf.numPages != observed {
		return nil
	}

	if err := hf.Extend(hf.numPages + 1); err != nil {
		return dberror.WrapAs(dberror.ErrStoreIO, err, "InsertTuple", "HeapFile")
	}
	hf.numPages++

	hf.log.Debug("heap file extended", "pages", hf.numPages)
	return nil
}

func (hf *HeapFile) fetchPage(tid *primitives.TransactionID, pid primitives.PageID) (*HeapPage, error) {
	p, err := hf.accessor.GetPage(tid, pid, transaction.ReadWrite)
	if err != nil {
		return nil, err
	}

	hp, ok := p.(*HeapPage)
	if !ok {
		hf.accessor.ReleasePage(tid, pid)
		return nil, dberror.Newf(dberror.ErrCorruptPage, "fetchPage", "HeapFile",
			"page %s is a %T, not a heap page", pid, p)
	}
	return hp, nil
}

func (hf *HeapFile) checkPageID(pid primitives.PageID, op string) error {
	if pid.FileID() != hf.GetID() {
		return dberror.Newf(dberror.ErrInvalidPageID, op, "HeapFile",
			"page %s belongs to another file than %d", pid, hf.GetID())
	}

	numPages := hf.NumPages()
	if pid.PageNo() >= numPages {
		return dberror.Newf(dberror.ErrInvalidPageID, op, "HeapFile",
			"page %d outside [0, %d)", pid.PageNo(), numPages)
	}
	return nil
}
