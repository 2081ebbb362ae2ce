package types

import (
	"io"

	"heapstore/pkg/primitives"
)

// Field is a single typed value inside a tuple. Every implementation serializes
// to exactly Type().Size() bytes.
type Field interface {
	Serialize(w io.Writer) error

	Compare(op Predicate, other Field) (bool, error)

	Type() Type

	String() string

	Equals(other Field) bool

	Hash() (primitives.HashCode, error)

	Length() uint32
}
