package types

import (
	"fmt"
	"io"

	"heapstore/pkg/primitives"
)

// BoolField occupies one byte on disk: 1 for true, 0 for false.
type BoolField struct {
	Value bool
}

func NewBoolField(value bool) *BoolField {
	return &BoolField{Value: value}
}

func (b *BoolField) byteValue() byte {
	if b.Value {
		return 1
	}
	return 0
}

func (b *BoolField) Serialize(w io.Writer) error {
	_, err := w.Write([]byte{b.byteValue()})
	return err
}

// Compare orders false before true. LIKE is rejected.
func (b *BoolField) Compare(op Predicate, other Field) (bool, error) {
	o, ok := other.(*BoolField)
	if !ok {
		return false, fmt.Errorf("cannot compare BoolField with %T", other)
	}
	if op == Like {
		return false, fmt.Errorf("unsupported predicate for BoolField: %v", op)
	}
	return compareOrdered(b.byteValue(), o.byteValue(), op), nil
}

func (b *BoolField) Type() Type {
	return BoolType
}

func (b *BoolField) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

func (b *BoolField) Equals(other Field) bool {
	o, ok := other.(*BoolField)
	return ok && b.Value == o.Value
}

func (b *BoolField) Hash() (primitives.HashCode, error) {
	return fnvHash([]byte{b.byteValue()}), nil
}

func (b *BoolField) Length() uint32 {
	return 1
}
