package aggregation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"heapstore/pkg/dberror"
	"heapstore/pkg/types"
)

// avgScale is the number of fractional digits kept by a DECIMAL average.
const avgScale = 8

// accumulator folds the aggregate column of one group.
type accumulator interface {
	add(f types.Field) error
	result() types.Field
}

// accumulatorFactory creates a fresh accumulator for each new group.
type accumulatorFactory func() accumulator

// resolveAccumulator picks the accumulator for an aggregate column of
// fieldType and reports the type of the values it produces. INT, DECIMAL and
// FLOAT columns support every operation; STRING and BOOL columns only COUNT.
func resolveAccumulator(fieldType types.Type, op AggregateOp) (accumulatorFactory, types.Type, error) {
	if op < Min || op > Count {
		return nil, 0, fmt.Errorf("unknown aggregate operation %d", op)
	}

	switch fieldType {
	case types.IntType:
		return func() accumulator { return &intAccumulator{op: op} }, types.IntType, nil
	case types.DecimalType:
		if op == Count {
			return countOnly, types.IntType, nil
		}
		return func() accumulator { return &decimalAccumulator{op: op} }, types.DecimalType, nil
	case types.FloatType:
		if op == Count {
			return countOnly, types.IntType, nil
		}
		return func() accumulator { return &floatAccumulator{op: op} }, types.FloatType, nil
	case types.StringType, types.BoolType:
		if op != Count {
			return nil, 0, dberror.Newf(dberror.ErrSchemaMismatch, "NewAggregate", "Aggregate",
				"%s is not defined on %s columns", op, fieldType)
		}
		return countOnly, types.IntType, nil
	default:
		return nil, 0, dberror.Newf(dberror.ErrSchemaMismatch, "NewAggregate", "Aggregate",
			"cannot aggregate %s columns", fieldType)
	}
}

func countOnly() accumulator { return &countAccumulator{} }

type countAccumulator struct {
	count int64
}

func (a *countAccumulator) add(types.Field) error {
	a.count++
	return nil
}

func (a *countAccumulator) result() types.Field {
	return types.NewIntField(a.count)
}

// intAccumulator averages with integer division.
type intAccumulator struct {
	op    AggregateOp
	value int64
	count int64
}

func (a *intAccumulator) add(f types.Field) error {
	v, ok := f.(*types.IntField)
	if !ok {
		return fmt.Errorf("expected IntField, got %T", f)
	}

	switch a.op {
	case Min:
		if a.count == 0 || v.Value < a.value {
			a.value = v.Value
		}
	case Max:
		if a.count == 0 || v.Value > a.value {
			a.value = v.Value
		}
	case Sum, Avg:
		a.value += v.Value
	}
	a.count++
	return nil
}

func (a *intAccumulator) result() types.Field {
	switch a.op {
	case Count:
		return types.NewIntField(a.count)
	case Avg:
		if a.count == 0 {
			return types.NewIntField(0)
		}
		return types.NewIntField(a.value / a.count)
	default:
		return types.NewIntField(a.value)
	}
}

type decimalAccumulator struct {
	op    AggregateOp
	value decimal.Decimal
	count int64
}

func (a *decimalAccumulator) add(f types.Field) error {
	v, ok := f.(*types.DecimalField)
	if !ok {
		return fmt.Errorf("expected DecimalField, got %T", f)
	}

	switch a.op {
	case Min:
		if a.count == 0 || v.Value.LessThan(a.value) {
			a.value = v.Value
		}
	case Max:
		if a.count == 0 || v.Value.GreaterThan(a.value) {
			a.value = v.Value
		}
	case Sum, Avg:
		a.value = a.value.Add(v.Value)
	}
	a.count++
	return nil
}

func (a *decimalAccumulator) result() types.Field {
	if a.op == Avg && a.count > 0 {
		return types.NewDecimalField(a.value.DivRound(decimal.NewFromInt(a.count), avgScale))
	}
	return types.NewDecimalField(a.value)
}

type floatAccumulator struct {
	op    AggregateOp
	value float64
	count int64
}

func (a *floatAccumulator) add(f types.Field) error {
	v, ok := f.(*types.Float64Field)
	if !ok {
		return fmt.Errorf("expected Float64Field, got %T", f)
	}

	switch a.op {
	case Min:
		if a.count == 0 || v.Value < a.value {
			a.value = v.Value
		}
	case Max:
		if a.count == 0 || v.Value > a.value {
			a.value = v.Value
		}
	case Sum, Avg:
		a.value += v.Value
	}
	a.count++
	return nil
}

func (a *floatAccumulator) result() types.Field {
	if a.op == Avg && a.count > 0 {
		return types.NewFloat64Field(a.value / float64(a.count))
	}
	return types.NewFloat64Field(a.value)
}
