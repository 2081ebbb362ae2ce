package heap

import (
	"bytes"
	"sync"

	"heapstore/pkg/dberror"
	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
	"heapstore/pkg/tuple"
)

// HeapPage is the in-memory form of one heap file page: an occupancy bitmap
// and a fixed array of tuple slots. It implements page.Page.
type HeapPage struct {
	pageID    primitives.PageID
	tupleDesc *tuple.TupleDescription
	pageSize  int
	numSlots  int
	header    []byte
	tuples    []*tuple.Tuple // indexed by slot; nil for empty slots
	dirtier   *primitives.TransactionID
	oldData   []byte // before-image, restored on abort
	mutex     sync.RWMutex
}

// NewEmptyHeapPage creates a page with every slot free.
func NewEmptyHeapPage(pid primitives.PageID, td *tuple.TupleDescription, pageSize int) (*HeapPage, error) {
	return NewHeapPage(pid, CreateEmptyPageData(pageSize), td, pageSize)
}

// NewHeapPage parses a page image read from disk.
//
// Parameters:
//   - pid: Identifier of the page being parsed
//   - data: Exactly pageSize bytes
//   - td: Schema of the tuples in the page's slots
//   - pageSize: Configured page size
//
// Returns:
//   - *HeapPage: The parsed page; occupied slots carry RecordIDs
//   - error: CORRUPT_PAGE if the size is wrong, the header marks slots past
//     the end of the slot array, or an occupied slot does not decode
func NewHeapPage(pid primitives.PageID, data []byte, td *tuple.TupleDescription, pageSize int) (*HeapPage, error) {
	if len(data) != pageSize {
		return nil, dberror.Newf(dberror.ErrCorruptPage, "NewHeapPage", "HeapPage",
			"page %s: expected %d bytes, got %d", pid, pageSize, len(data))
	}

	numSlots := NumSlots(pageSize, td.GetSize())
	header := make([]byte, HeaderSize(numSlots))
	copy(header, data)

	for i := numSlots; i < len(header)*8; i++ {
		if isBitSet(header, i) {
			return nil, dberror.Newf(dberror.ErrCorruptPage, "NewHeapPage", "HeapPage",
				"page %s: header marks slot %d but page holds %d slots", pid, i, numSlots)
		}
	}

	tuples, err := decodeSlots(pid, data, header, td, numSlots)
	if err != nil {
		return nil, dberror.Newf(dberror.ErrCorruptPage, "NewHeapPage", "HeapPage",
			"page %s: %v", pid, err)
	}

	oldData := make([]byte, pageSize)
	copy(oldData, data)

	return &HeapPage{
		pageID:    pid,
		tupleDesc: td,
		pageSize:  pageSize,
		numSlots:  numSlots,
		header:    header,
		tuples:    tuples,
		oldData:   oldData,
	}, nil
}

// GetID returns the unique page identifier for this heap page.
func (hp *HeapPage) GetID() primitives.PageID {
	return hp.pageID
}

// IsDirty returns the transaction that last modified this page.
// A nil return indicates the page is clean.
func (hp *HeapPage) IsDirty() *primitives.TransactionID {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.dirtier
}

// MarkDirty marks this page as dirty or clean for a specific transaction.
// This is called by the buffer pool when a page is modified or flushed.
func (hp *HeapPage) MarkDirty(dirty bool, tid *primitives.TransactionID) {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	if dirty {
		hp.dirtier = tid
	} else {
		hp.dirtier = nil
	}
}

// GetPageData serializes the page into its pageSize-byte disk image.
func (hp *HeapPage) GetPageData() []byte {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.encodeLocked()
}

func (hp *HeapPage) encodeLocked() []byte {
	data, err := encodePage(hp.header, hp.tuples, hp.tupleDesc, hp.pageSize)
	if err != nil {
		// InsertTuple rejects tuples that do not encode, so this means the
		// page was mutated behind its back.
		logging.WithPage(hp.pageID).Error("heap page failed to encode", "error", err)
		return nil
	}
	return data
}

// GetBeforeImage returns the page as it was when the before-image was last taken.
func (hp *HeapPage) GetBeforeImage() page.Page {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	beforePage, err := NewHeapPage(hp.pageID, hp.oldData, hp.tupleDesc, hp.pageSize)
	if err != nil {
		logging.WithPage(hp.pageID).Error("before-image does not parse", "error", err)
		return nil
	}
	return beforePage
}

// SetBeforeImage captures the current page state as the before-image.
func (hp *HeapPage) SetBeforeImage() {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	if data := hp.encodeLocked(); data != nil {
		hp.oldData = data
	}
}

// InsertTuple stores t in the first free slot and sets t.RecordID.
//
// Returns:
//   - error: SCHEMA_MISMATCH if t's types differ from the page's schema,
//     PAGE_FULL if no slot is free, or the codec error if t cannot be encoded
func (hp *HeapPage) InsertTuple(t *tuple.Tuple) error {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	if !t.TupleDesc.Equals(hp.tupleDesc) {
		return dberror.Newf(dberror.ErrSchemaMismatch, "InsertTuple", "HeapPage",
			"tuple %s, page %s", t.TupleDesc, hp.tupleDesc)
	}

	slot := hp.findFirstEmptySlot()
	if slot < 0 {
		return dberror.Newf(dberror.ErrPageFull, "InsertTuple", "HeapPage",
			"page %s has %d slots", hp.pageID, hp.numSlots)
	}

	if err := t.Serialize(&bytes.Buffer{}); err != nil {
		return dberror.WrapAs(dberror.ErrSchemaMismatch, err, "InsertTuple", "HeapPage")
	}

	// The slot owns its own copy, so the caller may insert t again.
	stored := t.Clone()
	stored.RecordID = tuple.NewRecordID(hp.pageID, primitives.SlotID(slot)) // #nosec G115

	setBit(hp.header, slot, true)
	hp.tuples[slot] = stored
	t.RecordID = tuple.NewRecordID(hp.pageID, primitives.SlotID(slot)) // #nosec G115
	return nil
}

// DeleteTuple clears the slot addressed by t.RecordID and resets t.RecordID to nil.
// It fails with INVALID_RECORD_ID when t has no record id, the id names another
// page, or the slot is already empty.
func (hp *HeapPage) DeleteTuple(t *tuple.Tuple) error {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	rid := t.RecordID
	if rid == nil {
		return dberror.Newf(dberror.ErrInvalidRecordID, "DeleteTuple", "HeapPage",
			"tuple has no record id")
	}

	if rid.PageID != hp.pageID {
		return dberror.Newf(dberror.ErrInvalidRecordID, "DeleteTuple", "HeapPage",
			"%s is not on page %s", rid, hp.pageID)
	}

	slot := int(rid.TupleNum)
	if !hp.isSlotUsed(slot) {
		return dberror.Newf(dberror.ErrInvalidRecordID, "DeleteTuple", "HeapPage",
			"slot %d of page %s is empty", slot, hp.pageID)
	}

	setBit(hp.header, slot, false)
	hp.tuples[slot] = nil
	t.RecordID = nil
	return nil
}

// Header returns a copy of the occupancy bitmap.
func (hp *HeapPage) Header() []byte {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	header := make([]byte, len(hp.header))
	copy(header, hp.header)
	return header
}

// Tuples returns a copy of the slot array; empty slots are nil.
func (hp *HeapPage) Tuples() []*tuple.Tuple {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	tuples := make([]*tuple.Tuple, len(hp.tuples))
	copy(tuples, hp.tuples)
	return tuples
}

// GetTuples returns the stored tuples in slot order, skipping empty slots.
func (hp *HeapPage) GetTuples() []*tuple.Tuple {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	tuples := make([]*tuple.Tuple, 0, hp.numSlots-hp.numEmptySlotsLocked())
	for _, t := range hp.tuples {
		if t != nil {
			tuples = append(tuples, t)
		}
	}
	return tuples
}

// GetTupleAt returns the tuple at the specified slot index, or nil if the slot is empty.
func (hp *HeapPage) GetTupleAt(idx primitives.SlotID) (*tuple.Tuple, error) {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	if int(idx) >= hp.numSlots {
		return nil, dberror.Newf(dberror.ErrInvalidRecordID, "GetTupleAt", "HeapPage",
			"slot %d out of bounds [0, %d)", idx, hp.numSlots)
	}
	return hp.tuples[idx], nil
}

// NumSlots returns the capacity of the page in tuples.
func (hp *HeapPage) NumSlots() int {
	return hp.numSlots
}

// GetNumEmptySlots returns the count of unoccupied tuple slots on this page.
func (hp *HeapPage) GetNumEmptySlots() int {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.numEmptySlotsLocked()
}

// IsSlotUsed reports whether header bit i is set.
func (hp *HeapPage) IsSlotUsed(i int) bool {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.isSlotUsed(i)
}

// GetTupleDesc returns the tuple description (schema) for this page
func (hp *HeapPage) GetTupleDesc() *tuple.TupleDescription {
	return hp.tupleDesc
}

// Iterator returns a cursor over a snapshot of the page's tuples in slot
// order. Later inserts and deletes on the page are not seen by it.
func (hp *HeapPage) Iterator() *tuple.Iterator {
	return tuple.NewIterator(hp.GetTuples(), hp.tupleDesc)
}

func (hp *HeapPage) numEmptySlotsLocked() int {
	empty := 0
	for i := range hp.numSlots {
		if !isBitSet(hp.header, i) {
			empty++
		}
	}
	return empty
}

func (hp *HeapPage) isSlotUsed(i int) bool {
	if i < 0 || i >= hp.numSlots {
		return false
	}
	return isBitSet(hp.header, i)
}

func (hp *HeapPage) findFirstEmptySlot() int {
	for i := range hp.numSlots {
		if !isBitSet(hp.header, i) {
			return i
		}
	}
	return -1
}
