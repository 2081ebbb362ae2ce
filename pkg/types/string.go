package types

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"heapstore/pkg/primitives"
)

// StringMaxSize is the number of payload bytes reserved for every string field.
// Longer values are truncated on construction.
const (
	StringMaxSize = 128
)

// StringField represents a fixed-capacity string field.
type StringField struct {
	Value string
}

// NewStringField creates a new StringField. Values longer than StringMaxSize
// bytes are truncated to fit, never splitting a multi-byte rune.
//
// Parameters:
//   - value: The string value to store in the field
//
// Returns:
//   - *StringField: A pointer to the newly created StringField
func NewStringField(value string) *StringField {
	if len(value) > StringMaxSize {
		cut := StringMaxSize
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		value = value[:cut]
	}
	return &StringField{Value: value}
}

// Compare performs a comparison operation between this StringField and another Field
// using the specified predicate. String comparisons are performed lexicographically.
//
// Parameters:
//   - op: The comparison predicate to apply (supports all standard predicates plus Like)
//   - other: The other Field to compare against (must be a *StringField)
//
// Returns:
//   - bool: The result of the comparison operation
//   - error: An error if the other field is not a StringField
func (s *StringField) Compare(op Predicate, other Field) (bool, error) {
	o, ok := other.(*StringField)
	if !ok {
		return false, fmt.Errorf("cannot compare StringField with %T", other)
	}

	if op == Like {
		return strings.Contains(s.Value, o.Value), nil
	}
	return compareOrdered(s.Value, o.Value, op), nil
}

// Serialize writes the string field to the provided writer in binary format.
// The serialization format consists of:
// 1. 4 bytes for the actual string length (big-endian uint32)
// 2. The string bytes
// 3. Zero padding up to StringMaxSize
//
// Parameters:
//   - w: The io.Writer to write the serialized data to
//
// Returns:
//   - error: An error if any write operation fails, nil otherwise
func (s *StringField) Serialize(w io.Writer) error {
	length := min(len(s.Value), StringMaxSize)

	if err := serializeUint32(w, uint32(length)); err != nil { // #nosec G115
		return err
	}

	buf := make([]byte, StringMaxSize)
	copy(buf, s.Value[:length])
	_, err := w.Write(buf)
	return err
}

// Type returns the type identifier for this field.
func (s *StringField) Type() Type {
	return StringType
}

// String returns the string value stored in this field.
func (s *StringField) String() string {
	return s.Value
}

func (s *StringField) Equals(other Field) bool {
	o, ok := other.(*StringField)
	if !ok {
		return false
	}
	return s.Value == o.Value
}

func (s *StringField) Hash() (primitives.HashCode, error) {
	return fnvHash([]byte(s.Value)), nil
}

// Length returns the total serialized size of this string field in bytes.
func (s *StringField) Length() uint32 {
	return 4 + StringMaxSize
}
