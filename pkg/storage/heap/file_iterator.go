package heap

import (
	"heapstore/pkg/concurrency/transaction"
	"heapstore/pkg/dberror"
	"heapstore/pkg/primitives"
	"heapstore/pkg/tuple"
)

type iteratorState int

const (
	iterUnopened iteratorState = iota
	iterOpen
	iterClosed
)

// HeapFileIterator scans every tuple of a HeapFile in page order, then slot
// order. Pages are fetched lazily from the file's accessor with ReadOnly
// permission as the scan crosses page boundaries.
//
// The page count is re-read at every page boundary, so pages appended after
// Open are visited. Fetched pages are not released by the iterator; they belong
// to the transaction.
//
// Before Open, HasNext and Next report end of sequence, even if Close was
// called. After an opened iterator is closed they fail with ITERATOR_CLOSED
// until it is opened again.
type HeapFileIterator struct {
	file     *HeapFile
	tid      *primitives.TransactionID
	state    iteratorState
	pageNo   primitives.PageNumber
	pageIter *tuple.Iterator
	next     *tuple.Tuple
}

// NewHeapFileIterator creates a new iterator for the given HeapFile
func NewHeapFileIterator(file *HeapFile, tid *primitives.TransactionID) *HeapFileIterator {
	return &HeapFileIterator{
		file: file,
		tid:  tid,
	}
}

// Open positions the iterator at the start of page 0, fetching that page if the
// file has one.
func (it *HeapFileIterator) Open() error {
	it.state = iterOpen
	it.pageNo = 0
	it.pageIter = nil
	it.next = nil

	if it.file.NumPages() == 0 {
		return nil
	}
	return it.loadPage(0)
}

// HasNext returns true if there are more tuples
func (it *HeapFileIterator) HasNext() (bool, error) {
	if it.next != nil {
		return true, nil
	}

	t, err := it.readNext()
	if err != nil {
		return false, err
	}
	it.next = t
	return t != nil, nil
}

// Next returns the next tuple, or nil at the end of the sequence.
func (it *HeapFileIterator) Next() (*tuple.Tuple, error) {
	if it.next != nil {
		t := it.next
		it.next = nil
		return t, nil
	}
	return it.readNext()
}

// Rewind restarts the scan from the first tuple of page 0.
func (it *HeapFileIterator) Rewind() error {
	return it.Open()
}

// Close releases the in-page cursor. Closing an iterator that was never
// opened leaves it unopened.
func (it *HeapFileIterator) Close() error {
	if it.pageIter != nil {
		_ = it.pageIter.Close()
		it.pageIter = nil
	}
	it.next = nil
	if it.state == iterOpen {
		it.state = iterClosed
	}
	return nil
}

func (it *HeapFileIterator) readNext() (*tuple.Tuple, error) {
	switch it.state {
	case iterUnopened:
		return nil, nil
	case iterClosed:
		return nil, dberror.Newf(dberror.ErrIteratorClosed, "Next", "HeapFileIterator",
			"scan of file %d", it.file.GetID())
	}

	for {
		if it.pageIter != nil {
			hasNext, err := it.pageIter.HasNext()
			if err != nil {
				return nil, err
			}
			if hasNext {
				return it.pageIter.Next()
			}
		}

		nextPage := it.pageNo
		if it.pageIter != nil {
			nextPage++
		}

		if nextPage >= it.file.NumPages() {
			return nil, nil
		}

		if err := it.loadPage(nextPage); err != nil {
			return nil, err
		}
	}
}

func (it *HeapFileIterator) loadPage(pageNo primitives.PageNumber) error {
	pid := primitives.NewPageID(it.file.GetID(), pageNo)

	p, err := it.file.accessor.GetPage(it.tid, pid, transaction.ReadOnly)
	if err != nil {
		return err
	}

	hp, ok := p.(*HeapPage)
	if !ok {
		return dberror.Newf(dberror.ErrCorruptPage, "Next", "HeapFileIterator",
			"page %s is a %T, not a heap page", pid, p)
	}

	it.pageNo = pageNo
	it.pageIter = hp.Iterator()
	return it.pageIter.Open()
}
