package execution

import (
	"fmt"

	"heapstore/pkg/iterator"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/heap"
	"heapstore/pkg/tuple"
)

var (
	_ iterator.DbIterator     = (*SequentialScan)(nil)
	_ iterator.DbFileIterator = (*heap.HeapFileIterator)(nil)
	_ iterator.DbIterator     = (*tuple.Iterator)(nil)
)

// SequentialScan reads every tuple of a heap file in page then slot order.
// Field names of the produced tuples are qualified with the scan's alias.
type SequentialScan struct {
	base      *iterator.BaseIterator
	tid       *primitives.TransactionID
	file      *heap.HeapFile
	alias     string
	fileIter  iterator.DbFileIterator
	tupleDesc *tuple.TupleDescription
}

// NewSeqScan creates a scan of file on behalf of tid. With an empty alias the
// file's own field names are kept.
func NewSeqScan(tid *primitives.TransactionID, file *heap.HeapFile, alias string) *SequentialScan {
	td := file.GetTupleDesc()
	if alias != "" {
		td = td.WithPrefix(alias)
	}

	ss := &SequentialScan{
		tid:       tid,
		file:      file,
		alias:     alias,
		tupleDesc: td,
	}
	ss.base = iterator.NewBaseIterator(ss.readNext)
	return ss
}

// Open starts the scan at page 0. Reopening restarts it.
func (ss *SequentialScan) Open() error {
	if ss.fileIter == nil {
		ss.fileIter = ss.file.Iterator(ss.tid)
	}

	if err := ss.fileIter.Open(); err != nil {
		return err
	}

	ss.base.MarkOpened()
	return nil
}

func (ss *SequentialScan) readNext() (*tuple.Tuple, error) {
	t, err := ss.fileIter.Next()
	if err != nil || t == nil {
		return nil, err
	}

	if ss.alias == "" {
		return t, nil
	}
	return t.WithDesc(ss.tupleDesc)
}

// Alias returns the name that qualifies this scan's fields.
func (ss *SequentialScan) Alias() string {
	return ss.alias
}

func (ss *SequentialScan) GetTupleDesc() *tuple.TupleDescription {
	return ss.tupleDesc
}

// Rewind restarts the scan from the first tuple of page 0.
func (ss *SequentialScan) Rewind() error {
	if ss.fileIter == nil {
		return fmt.Errorf("scan of %q not opened", ss.alias)
	}
	if err := ss.fileIter.Rewind(); err != nil {
		return err
	}
	return ss.base.Rewind()
}

// Close releases the file cursor. Page locks stay with the transaction.
func (ss *SequentialScan) Close() error {
	if ss.fileIter != nil {
		_ = ss.fileIter.Close()
		ss.fileIter = nil
	}
	return ss.base.Close()
}

func (ss *SequentialScan) HasNext() (bool, error) { return ss.base.HasNext() }

func (ss *SequentialScan) Next() (*tuple.Tuple, error) { return ss.base.Next() }
