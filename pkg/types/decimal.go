package types

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"heapstore/pkg/primitives"
)

// DecimalField is an exact fixed-point number. On disk it takes 12 bytes: the
// coefficient as a big-endian int64 followed by the base-10 exponent as a
// big-endian int32, so the value is coefficient * 10^exponent.
type DecimalField struct {
	Value decimal.Decimal
}

func NewDecimalField(value decimal.Decimal) *DecimalField {
	return &DecimalField{Value: value}
}

// NewDecimalFieldFromString parses s (e.g. "12.50") into a DecimalField.
func NewDecimalFieldFromString(s string) (*DecimalField, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return NewDecimalField(d), nil
}

// Serialize fails when the coefficient does not fit in an int64; such values
// cannot be represented in the fixed-width encoding.
func (f *DecimalField) Serialize(w io.Writer) error {
	coeff := f.Value.Coefficient()
	if !coeff.IsInt64() {
		return fmt.Errorf("decimal %s exceeds 64-bit coefficient", f.Value.String())
	}

	buf := make([]byte, 12)
	binary.BigEndian.PutUint64(buf[0:8], uint64(coeff.Int64()))   // #nosec G115
	binary.BigEndian.PutUint32(buf[8:12], uint32(f.Value.Exponent())) // #nosec G115
	_, err := w.Write(buf)
	return err
}

func (f *DecimalField) Compare(op Predicate, other Field) (bool, error) {
	var rhs decimal.Decimal
	switch o := other.(type) {
	case *DecimalField:
		rhs = o.Value
	case *IntField:
		rhs = decimal.NewFromInt(o.Value)
	default:
		return false, fmt.Errorf("cannot compare DecimalField with %T", other)
	}
	return compareOrdered(f.Value.Cmp(rhs), 0, op), nil
}

func (f *DecimalField) Type() Type {
	return DecimalType
}

func (f *DecimalField) String() string {
	return f.Value.String()
}

// Equals compares numerically, so 1.5 and 1.50 are equal.
func (f *DecimalField) Equals(other Field) bool {
	o, ok := other.(*DecimalField)
	if !ok {
		return false
	}
	return f.Value.Equal(o.Value)
}

// Hash is computed over the canonical string form so that numerically equal
// values with different exponents hash alike.
func (f *DecimalField) Hash() (primitives.HashCode, error) {
	return fnvHash([]byte(f.Value.String())), nil
}

func (f *DecimalField) Length() uint32 {
	return 12
}
