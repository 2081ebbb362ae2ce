package aggregation

import (
	"fmt"

	"heapstore/pkg/primitives"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"
)

type group struct {
	value types.Field // nil without grouping
	acc   accumulator
}

// groupAggregator merges tuples into per-group accumulators. Groups are found
// by field hash and confirmed with Equals, and are kept in the order their
// first tuple arrived.
type groupAggregator struct {
	gField     int
	aField     int
	newAcc     accumulatorFactory
	buckets    map[primitives.HashCode][]*group
	order      []*group
	resultDesc *tuple.TupleDescription
}

func newGroupAggregator(gField, aField int, newAcc accumulatorFactory, resultDesc *tuple.TupleDescription) *groupAggregator {
	return &groupAggregator{
		gField:     gField,
		aField:     aField,
		newAcc:     newAcc,
		buckets:    make(map[primitives.HashCode][]*group),
		resultDesc: resultDesc,
	}
}

// merge folds tup into its group, creating the group on first sight.
func (ga *groupAggregator) merge(tup *tuple.Tuple) error {
	aggValue, err := tup.GetField(ga.aField)
	if err != nil {
		return fmt.Errorf("failed to get aggregate field: %w", err)
	}

	var groupValue types.Field
	if ga.gField != NoGrouping {
		if groupValue, err = tup.GetField(ga.gField); err != nil {
			return fmt.Errorf("failed to get grouping field: %w", err)
		}
	}

	g, err := ga.lookup(groupValue)
	if err != nil {
		return err
	}
	return g.acc.add(aggValue)
}

func (ga *groupAggregator) lookup(value types.Field) (*group, error) {
	var key primitives.HashCode
	if value != nil {
		h, err := value.Hash()
		if err != nil {
			return nil, fmt.Errorf("failed to hash group value %s: %w", value, err)
		}
		key = h
	}

	for _, g := range ga.buckets[key] {
		if g.value == nil || g.value.Equals(value) {
			return g, nil
		}
	}

	g := &group{value: value, acc: ga.newAcc()}
	ga.buckets[key] = append(ga.buckets[key], g)
	ga.order = append(ga.order, g)
	return g, nil
}

// results builds one output tuple per group: (group, aggregate) or (aggregate).
func (ga *groupAggregator) results() ([]*tuple.Tuple, error) {
	out := make([]*tuple.Tuple, 0, len(ga.order))
	for _, g := range ga.order {
		t := tuple.NewTuple(ga.resultDesc)

		idx := 0
		if g.value != nil {
			if err := t.SetField(0, g.value); err != nil {
				return nil, err
			}
			idx = 1
		}
		if err := t.SetField(idx, g.acc.result()); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
