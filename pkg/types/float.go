package types

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"heapstore/pkg/primitives"
)

// floatTolerance is the absolute difference below which two floats are equal.
const floatTolerance = 1e-9

// Float64Field stores an IEEE 754 double as its big-endian bit pattern.
type Float64Field struct {
	Value float64
}

func NewFloat64Field(value float64) *Float64Field {
	return &Float64Field{Value: value}
}

func (f *Float64Field) Serialize(w io.Writer) error {
	return serializeUint64(w, math.Float64bits(f.Value))
}

// Compare accepts another float or an INT, which is widened first.
func (f *Float64Field) Compare(op Predicate, other Field) (bool, error) {
	var rhs float64
	switch o := other.(type) {
	case *Float64Field:
		rhs = o.Value
	case *IntField:
		rhs = float64(o.Value)
	default:
		return false, fmt.Errorf("cannot compare Float64Field with %T", other)
	}

	near := math.Abs(f.Value-rhs) < floatTolerance
	switch op {
	case Equals:
		return near, nil
	case NotEqual:
		return !near, nil
	case Like:
		return false, fmt.Errorf("unsupported predicate for Float64Field: %v", op)
	default:
		return compareOrdered(f.Value, rhs, op), nil
	}
}

func (f *Float64Field) Type() Type {
	return FloatType
}

func (f *Float64Field) String() string {
	return strconv.FormatFloat(f.Value, 'f', -1, 64)
}

func (f *Float64Field) Equals(other Field) bool {
	o, ok := other.(*Float64Field)
	return ok && math.Abs(f.Value-o.Value) < floatTolerance
}

func (f *Float64Field) Hash() (primitives.HashCode, error) {
	return fnvHash(toBytes64(math.Float64bits(f.Value))), nil
}

func (f *Float64Field) Length() uint32 {
	return 8
}
