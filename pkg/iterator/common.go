package iterator

import "heapstore/pkg/tuple"

// Iterate pulls tuples from an opened iterator until it is exhausted or visit
// returns false or an error.
func Iterate(iter TupleIterator, visit func(*tuple.Tuple) (more bool, err error)) error {
	for {
		ok, err := iter.HasNext()
		if err != nil || !ok {
			return err
		}

		t, err := iter.Next()
		if err != nil {
			return err
		}
		if t == nil {
			return nil
		}

		more, err := visit(t)
		if err != nil || !more {
			return err
		}
	}
}

// ForEach calls fn for every remaining tuple and stops at the first error.
func ForEach(iter TupleIterator, fn func(*tuple.Tuple) error) error {
	return Iterate(iter, func(t *tuple.Tuple) (bool, error) {
		return true, fn(t)
	})
}

// Filter drains iter and keeps the tuples accepted by keep.
func Filter(iter TupleIterator, keep func(*tuple.Tuple) (bool, error)) ([]*tuple.Tuple, error) {
	var kept []*tuple.Tuple
	err := ForEach(iter, func(t *tuple.Tuple) error {
		ok, err := keep(t)
		if ok {
			kept = append(kept, t)
		}
		return err
	})
	return kept, err
}

// Take returns at most n tuples and leaves the rest of iter unread.
func Take(iter TupleIterator, n int) ([]*tuple.Tuple, error) {
	if n <= 0 {
		return nil, nil
	}

	taken := make([]*tuple.Tuple, 0, n)
	err := Iterate(iter, func(t *tuple.Tuple) (bool, error) {
		taken = append(taken, t)
		return len(taken) < n, nil
	})
	return taken, err
}

// Count drains iter and returns how many tuples it produced.
func Count(iter TupleIterator) (int, error) {
	n := 0
	err := ForEach(iter, func(*tuple.Tuple) error {
		n++
		return nil
	})
	return n, err
}

// Collect drains iter into a slice.
func Collect(iter TupleIterator) ([]*tuple.Tuple, error) {
	var all []*tuple.Tuple
	err := ForEach(iter, func(t *tuple.Tuple) error {
		all = append(all, t)
		return nil
	})
	return all, err
}
