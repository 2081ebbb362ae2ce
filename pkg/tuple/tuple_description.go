package tuple

import (
	"fmt"
	"slices"
	"strings"

	"heapstore/pkg/types"
)

// TupleDescription is the fixed schema shared by every tuple of a heap file:
// the ordered field types and, optionally, their names. Because every type is
// fixed-width, the schema alone determines the byte size of a slot.
type TupleDescription struct {
	Types      []types.Type
	FieldNames []string // nil when the fields are unnamed
}

// NewTupleDesc builds a schema from field types and optional names. Both
// slices are copied.
//
// Parameters:
//   - fieldTypes: one entry per field, at least one
//   - fieldNames: nil, or exactly one name per type
//
// Returns:
//   - *TupleDescription: the schema
//   - error: if there are no types or the name count differs from the type count
func NewTupleDesc(fieldTypes []types.Type, fieldNames []string) (*TupleDescription, error) {
	if len(fieldTypes) == 0 {
		return nil, fmt.Errorf("must provide at least one field type")
	}
	if fieldNames != nil && len(fieldNames) != len(fieldTypes) {
		return nil, fmt.Errorf("got %d field names for %d field types", len(fieldNames), len(fieldTypes))
	}

	return &TupleDescription{
		Types:      slices.Clone(fieldTypes),
		FieldNames: slices.Clone(fieldNames),
	}, nil
}

func (td *TupleDescription) NumFields() int {
	return len(td.Types)
}

func (td *TupleDescription) checkIndex(i int) error {
	if i < 0 || i >= len(td.Types) {
		return fmt.Errorf("field index %d out of bounds [0, %d)", i, len(td.Types))
	}
	return nil
}

// GetFieldName returns the name of field i, or "" for an unnamed schema.
func (td *TupleDescription) GetFieldName(i int) (string, error) {
	if err := td.checkIndex(i); err != nil {
		return "", err
	}
	if td.FieldNames == nil {
		return "", nil
	}
	return td.FieldNames[i], nil
}

func (td *TupleDescription) TypeAtIndex(i int) (types.Type, error) {
	if err := td.checkIndex(i); err != nil {
		return 0, err
	}
	return td.Types[i], nil
}

// GetSize is the width in bytes of one serialized tuple, and therefore of one
// heap page slot.
func (td *TupleDescription) GetSize() uint32 {
	var size uint32
	for _, t := range td.Types {
		size += t.Size()
	}
	return size
}

// Equals reports whether other has the same field types in the same order.
// Names are ignored, so an aliased schema still equals its source.
func (td *TupleDescription) Equals(other *TupleDescription) bool {
	return other != nil && slices.Equal(td.Types, other.Types)
}

// String renders the schema as "TYPE(name),TYPE(name)"; unnamed fields
// print as "null".
func (td *TupleDescription) String() string {
	parts := make([]string, len(td.Types))
	for i, t := range td.Types {
		name, _ := td.GetFieldName(i)
		if name == "" {
			name = "null"
		}
		parts[i] = fmt.Sprintf("%s(%s)", t, name)
	}
	return strings.Join(parts, ",")
}

// FindFieldIndex returns the position of the first field named fieldName.
// The match is case-sensitive.
func (td *TupleDescription) FindFieldIndex(fieldName string) (int, error) {
	if i := slices.Index(td.FieldNames, fieldName); i >= 0 {
		return i, nil
	}
	return -1, fmt.Errorf("column %s not found", fieldName)
}

// WithPrefix returns a copy of the descriptor whose field names are qualified
// as "prefix.name". Unnamed fields become "prefix.null".
func (td *TupleDescription) WithPrefix(prefix string) *TupleDescription {
	names := make([]string, td.NumFields())
	for i := range names {
		name, _ := td.GetFieldName(i)
		if name == "" {
			name = "null"
		}
		names[i] = prefix + "." + name
	}
	return &TupleDescription{Types: slices.Clone(td.Types), FieldNames: names}
}

// ParseSchema builds a descriptor from a comma-separated "name:type" list such
// as "id:int,name:string". A bare type with no name is allowed.
func ParseSchema(columns string) (*TupleDescription, error) {
	var fieldTypes []types.Type
	var names []string

	for _, col := range strings.Split(columns, ",") {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}

		name, typeName, found := strings.Cut(col, ":")
		if !found {
			name, typeName = "", col
		}

		t, err := types.ParseType(typeName)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}

		fieldTypes = append(fieldTypes, t)
		names = append(names, strings.TrimSpace(name))
	}

	return NewTupleDesc(fieldTypes, names)
}
