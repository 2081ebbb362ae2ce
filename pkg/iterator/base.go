package iterator

import (
	"errors"

	"heapstore/pkg/tuple"
)

// ErrNotOpened is returned by HasNext and Next before Open.
var ErrNotOpened = errors.New("iterator not opened")

// ReadNextFunc pulls the next tuple from an operator's source, returning
// nil, nil at exhaustion.
type ReadNextFunc func() (*tuple.Tuple, error)

// BaseIterator gives operators one tuple of lookahead plus open/closed
// bookkeeping. Operators only have to supply a ReadNextFunc.
type BaseIterator struct {
	peeked *tuple.Tuple
	opened bool
	read   ReadNextFunc
}

func NewBaseIterator(read ReadNextFunc) *BaseIterator {
	return &BaseIterator{read: read}
}

func (it *BaseIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, ErrNotOpened
	}
	if it.peeked != nil {
		return true, nil
	}
	t, err := it.read()
	if err != nil {
		return false, err
	}
	it.peeked = t
	return t != nil, nil
}

// Next returns nil, nil once the source is exhausted.
func (it *BaseIterator) Next() (*tuple.Tuple, error) {
	if !it.opened {
		return nil, ErrNotOpened
	}
	if t := it.peeked; t != nil {
		it.peeked = nil
		return t, nil
	}
	return it.read()
}

func (it *BaseIterator) Close() error {
	it.peeked, it.opened = nil, false
	return nil
}

// Rewind only clears the lookahead; the operator rewinds its own source.
func (it *BaseIterator) Rewind() error {
	it.peeked = nil
	return nil
}

func (it *BaseIterator) MarkOpened() {
	it.peeked, it.opened = nil, true
}
