package types

import (
	"fmt"
	"strings"
)

type Type int

const (
	IntType Type = iota
	StringType
	BoolType
	FloatType
	DecimalType
)

// String returns a string representation of the type
func (t Type) String() string {
	switch t {
	case IntType:
		return "INT_TYPE"
	case StringType:
		return "STRING_TYPE"
	case BoolType:
		return "BOOL_TYPE"
	case FloatType:
		return "FLOAT_TYPE"
	case DecimalType:
		return "DECIMAL_TYPE"
	default:
		return "UNKNOWN_TYPE"
	}
}

// Size returns the fixed number of bytes a field of this type occupies on disk.
// Every type is fixed-width; unknown types report 0.
func (t Type) Size() uint32 {
	switch t {
	case IntType, FloatType:
		return 8
	case StringType:
		return 4 + StringMaxSize
	case BoolType:
		return 1
	case DecimalType:
		return 12
	default:
		return 0
	}
}

// ParseType maps a schema keyword ("int", "string", "bool", "float", "decimal")
// to its Type. Matching is case-insensitive.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int", "integer", "int64":
		return IntType, nil
	case "string", "varchar", "text":
		return StringType, nil
	case "bool", "boolean":
		return BoolType, nil
	case "float", "double", "float64":
		return FloatType, nil
	case "decimal", "numeric":
		return DecimalType, nil
	default:
		return 0, fmt.Errorf("unknown field type %q", name)
	}
}
