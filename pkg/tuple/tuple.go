package tuple

import (
	"fmt"
	"io"
	"strings"

	"heapstore/pkg/types"
)

// Tuple represents a row of data in the database
type Tuple struct {
	TupleDesc *TupleDescription // Schema of this tuple
	fields    []types.Field     // The actual field values
	RecordID  *RecordID         // Where this tuple is stored; nil while transient
}

// NewTuple creates a new tuple with the given schema
func NewTuple(td *TupleDescription) *Tuple {
	return &Tuple{
		TupleDesc: td,
		fields:    make([]types.Field, td.NumFields()),
	}
}

func (t *Tuple) SetField(i int, field types.Field) error {
	if i < 0 || i >= len(t.fields) {
		return fmt.Errorf("field index %d out of bounds [0, %d)", i, len(t.fields))
	}

	expectedType, _ := t.TupleDesc.TypeAtIndex(i)
	if field.Type() != expectedType {
		return fmt.Errorf("field type mismatch: expected %v, got %v",
			expectedType, field.Type())
	}

	t.fields[i] = field
	return nil
}

// GetField returns the value of the ith field
func (t *Tuple) GetField(i int) (types.Field, error) {
	if i < 0 || i >= len(t.fields) {
		return nil, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(t.fields))
	}
	return t.fields[i], nil
}

// Serialize writes every field in schema order. The output is always exactly
// TupleDesc.GetSize() bytes; a tuple with an unset field cannot be serialized.
func (t *Tuple) Serialize(w io.Writer) error {
	for i, f := range t.fields {
		if f == nil {
			return fmt.Errorf("field %d is not set", i)
		}
		if err := f.Serialize(w); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
	}
	return nil
}

// ParseTuple reads one fixed-width tuple of schema td from r.
// The returned tuple has no RecordID.
func ParseTuple(r io.Reader, td *TupleDescription) (*Tuple, error) {
	t := NewTuple(td)

	for i, fieldType := range td.Types {
		field, err := types.ParseField(r, fieldType)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		t.fields[i] = field
	}
	return t, nil
}

// Equals reports whether both tuples have equal schemas and equal field values.
// Record identifiers are ignored.
func (t *Tuple) Equals(other *Tuple) bool {
	if other == nil || !t.TupleDesc.Equals(other.TupleDesc) {
		return false
	}

	for i, f := range t.fields {
		o := other.fields[i]
		if f == nil || o == nil {
			if f != o {
				return false
			}
			continue
		}
		if !f.Equals(o) {
			return false
		}
	}
	return true
}

// String returns a string representation of this tuple
// Format: field1\tfield2\tfield3\t...\tfieldN\n
func (t *Tuple) String() string {
	var parts []string
	for _, field := range t.fields {
		if field != nil {
			parts = append(parts, field.String())
		} else {
			parts = append(parts, "null")
		}
	}
	return strings.Join(parts, "\t") + "\n"
}

// Clone creates a copy of this tuple's field values under the same schema.
// The copy is transient: its RecordID is nil.
func (t *Tuple) Clone() *Tuple {
	newTup := NewTuple(t.TupleDesc)
	copy(newTup.fields, t.fields)
	return newTup
}

// WithDesc returns a copy of this tuple that reports td as its schema. td must
// have the same types; only names may differ.
func (t *Tuple) WithDesc(td *TupleDescription) (*Tuple, error) {
	if !td.Equals(t.TupleDesc) {
		return nil, fmt.Errorf("schema %s is not compatible with %s", td, t.TupleDesc)
	}

	newTup := t.Clone()
	newTup.TupleDesc = td
	newTup.RecordID = t.RecordID
	return newTup, nil
}
