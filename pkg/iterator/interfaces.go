package iterator

import "heapstore/pkg/tuple"

// TupleIterator is the pull protocol every scan and operator speaks. HasNext
// may be called any number of times without consuming a tuple; Next returns
// nil, nil once the sequence is exhausted.
type TupleIterator interface {
	HasNext() (bool, error)
	Next() (*tuple.Tuple, error)
}

// DbFileIterator is a restartable scan over a stored file. Open must precede
// iteration; Rewind behaves like a fresh Open; Close is idempotent and the
// iterator may be reopened afterwards.
type DbFileIterator interface {
	TupleIterator
	Open() error
	Rewind() error
	Close() error
}

// DbIterator is a DbFileIterator that also knows the schema of its output,
// which operators need to build their own schemas before any tuple flows.
// GetTupleDesc is valid in every state.
type DbIterator interface {
	DbFileIterator
	GetTupleDesc() *tuple.TupleDescription
}
