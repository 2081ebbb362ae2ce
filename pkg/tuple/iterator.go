package tuple

import "errors"

var errNotOpened = errors.New("iterator not opened")

// Iterator is a cursor over an in-memory slice of tuples: a page snapshot,
// materialised operator output, or test fixtures.
type Iterator struct {
	tuples []*Tuple
	desc   *TupleDescription
	pos    int // index of the next tuple to return
	opened bool
}

// NewIterator creates an iterator over tuples that reports desc as its schema.
// A nil slice is an empty result.
func NewIterator(tuples []*Tuple, desc *TupleDescription) *Iterator {
	return &Iterator{tuples: tuples, desc: desc}
}

func (it *Iterator) Open() error {
	it.opened, it.pos = true, 0
	return nil
}

func (it *Iterator) Close() error {
	it.opened = false
	return nil
}

func (it *Iterator) HasNext() (bool, error) {
	if !it.opened {
		return false, errNotOpened
	}
	return it.pos < len(it.tuples), nil
}

// Next returns nil, nil once the slice is exhausted.
func (it *Iterator) Next() (*Tuple, error) {
	if ok, err := it.HasNext(); !ok {
		return nil, err
	}
	t := it.tuples[it.pos]
	it.pos++
	return t, nil
}

func (it *Iterator) Rewind() error {
	if !it.opened {
		return errNotOpened
	}
	it.pos = 0
	return nil
}

func (it *Iterator) GetTupleDesc() *TupleDescription {
	return it.desc
}
