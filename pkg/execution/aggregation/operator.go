package aggregation

import (
	"fmt"

	"heapstore/pkg/iterator"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"
)

var _ iterator.DbIterator = (*Aggregate)(nil)

// Aggregate computes one aggregate over a child operator, optionally grouped
// by one column. Open drains the child and materialises every group; Next then
// replays the result.
//
// Output schema:
//   - NoGrouping: (aggregate)
//   - otherwise:  (group, aggregate)
//
// The aggregate column is named "OP(child field name)".
type Aggregate struct {
	base      *iterator.BaseIterator
	child     iterator.DbIterator
	aField    int
	gField    int
	op        AggregateOp
	newAcc    accumulatorFactory
	tupleDesc *tuple.TupleDescription
	results   *tuple.Iterator
}

// NewAggregate validates the field indexes and the operation against the
// child's schema.
//
// Parameters:
//   - child: Source of input tuples
//   - aField: Index of the column to aggregate
//   - gField: Index of the grouping column, or NoGrouping
//   - op: Aggregate operation
//
// Returns:
//   - *Aggregate: The operator, not yet opened
//   - error: For out-of-range indexes, or SCHEMA_MISMATCH when op is not
//     defined on the aggregate column's type
func NewAggregate(child iterator.DbIterator, aField, gField int, op AggregateOp) (*Aggregate, error) {
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}

	childDesc := child.GetTupleDesc()
	if aField < 0 || aField >= childDesc.NumFields() {
		return nil, fmt.Errorf("invalid aggregate field index: %d", aField)
	}
	if gField != NoGrouping && (gField < 0 || gField >= childDesc.NumFields()) {
		return nil, fmt.Errorf("invalid group field index: %d", gField)
	}

	newAcc, resultType, err := resolveAccumulator(childDesc.Types[aField], op)
	if err != nil {
		return nil, err
	}

	tupleDesc, err := resultDesc(childDesc, aField, gField, op, resultType)
	if err != nil {
		return nil, err
	}

	agg := &Aggregate{
		child:     child,
		aField:    aField,
		gField:    gField,
		op:        op,
		newAcc:    newAcc,
		tupleDesc: tupleDesc,
	}
	agg.base = iterator.NewBaseIterator(agg.readNext)
	return agg, nil
}

func resultDesc(childDesc *tuple.TupleDescription, aField, gField int, op AggregateOp, resultType types.Type) (*tuple.TupleDescription, error) {
	aggName, _ := childDesc.GetFieldName(aField)
	aggName = fmt.Sprintf("%s(%s)", op, aggName)

	if gField == NoGrouping {
		return tuple.NewTupleDesc([]types.Type{resultType}, []string{aggName})
	}

	groupName, _ := childDesc.GetFieldName(gField)
	return tuple.NewTupleDesc(
		[]types.Type{childDesc.Types[gField], resultType},
		[]string{groupName, aggName},
	)
}

// Open drains the child into per-group accumulators. Without grouping, an
// empty input still yields a single COUNT of 0; the other operations yield
// no tuple because they are undefined on an empty set.
func (agg *Aggregate) Open() error {
	if err := agg.child.Open(); err != nil {
		return fmt.Errorf("failed to open child operator: %w", err)
	}

	groups := newGroupAggregator(agg.gField, agg.aField, agg.newAcc, agg.tupleDesc)
	if err := iterator.ForEach(agg.child, groups.merge); err != nil {
		return fmt.Errorf("error merging tuple: %w", err)
	}

	tuples, err := groups.results()
	if err != nil {
		return err
	}

	if len(tuples) == 0 && agg.gField == NoGrouping && agg.op == Count {
		t := tuple.NewTuple(agg.tupleDesc)
		if err := t.SetField(0, types.NewIntField(0)); err != nil {
			return err
		}
		tuples = append(tuples, t)
	}

	agg.results = tuple.NewIterator(tuples, agg.tupleDesc)
	if err := agg.results.Open(); err != nil {
		return err
	}

	agg.base.MarkOpened()
	return nil
}

func (agg *Aggregate) readNext() (*tuple.Tuple, error) {
	return agg.results.Next()
}

// Rewind replays the materialised result without re-reading the child.
func (agg *Aggregate) Rewind() error {
	if agg.results == nil {
		return fmt.Errorf("aggregate operator not opened")
	}
	if err := agg.results.Rewind(); err != nil {
		return err
	}
	return agg.base.Rewind()
}

// Close closes the child and drops the materialised result.
func (agg *Aggregate) Close() error {
	if agg.results != nil {
		_ = agg.results.Close()
		agg.results = nil
	}
	if err := agg.child.Close(); err != nil {
		return err
	}
	return agg.base.Close()
}

func (agg *Aggregate) HasNext() (bool, error) { return agg.base.HasNext() }

func (agg *Aggregate) Next() (*tuple.Tuple, error) { return agg.base.Next() }

func (agg *Aggregate) GetTupleDesc() *tuple.TupleDescription {
	return agg.tupleDesc
}

// GroupField returns the grouping column index in the input, or NoGrouping.
func (agg *Aggregate) GroupField() int {
	return agg.gField
}

// GroupFieldName returns the name of the grouping column in the output, or ""
// without grouping.
func (agg *Aggregate) GroupFieldName() string {
	if agg.gField == NoGrouping {
		return ""
	}
	name, _ := agg.tupleDesc.GetFieldName(0)
	return name
}

// AggregateField returns the aggregated column index in the input.
func (agg *Aggregate) AggregateField() int {
	return agg.aField
}

// AggregateFieldName returns the name of the aggregate column in the output.
func (agg *Aggregate) AggregateFieldName() string {
	name, _ := agg.tupleDesc.GetFieldName(agg.tupleDesc.NumFields() - 1)
	return name
}

func (agg *Aggregate) AggregateOp() AggregateOp {
	return agg.op
}
