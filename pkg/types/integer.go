package types

import (
	"fmt"
	"io"
	"strconv"

	"heapstore/pkg/primitives"
)

// IntField represents a 64-bit signed integer field, stored big-endian.
type IntField struct {
	Value int64
}

func NewIntField(value int64) *IntField {
	return &IntField{Value: value}
}

func (f *IntField) Serialize(w io.Writer) error {
	return serializeUint64(w, uint64(f.Value)) // #nosec G115
}

func (f *IntField) Compare(op Predicate, other Field) (bool, error) {
	o, ok := other.(*IntField)
	if !ok {
		return false, fmt.Errorf("cannot compare IntField with %T", other)
	}
	return compareOrdered(f.Value, o.Value, op), nil
}

func (f *IntField) Type() Type {
	return IntType
}

func (f *IntField) String() string {
	return strconv.FormatInt(f.Value, 10)
}

func (f *IntField) Equals(other Field) bool {
	o, ok := other.(*IntField)
	if !ok {
		return false
	}
	return f.Value == o.Value
}

func (f *IntField) Hash() (primitives.HashCode, error) {
	return fnvHash(toBytes64(uint64(f.Value))), nil // #nosec G115
}

func (f *IntField) Length() uint32 {
	return 8
}
