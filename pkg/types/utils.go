package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CreateFieldFromConstant parses a textual constant (as typed on a command line)
// into a field of type t.
func CreateFieldFromConstant(t Type, constant string) (Field, error) {
	constant = strings.TrimSpace(constant)

	switch t {
	case IntType:
		v, err := strconv.ParseInt(constant, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid INT constant %q: %w", constant, err)
		}
		return NewIntField(v), nil

	case BoolType:
		v, err := strconv.ParseBool(constant)
		if err != nil {
			return nil, fmt.Errorf("invalid BOOL constant %q: %w", constant, err)
		}
		return NewBoolField(v), nil

	case FloatType:
		v, err := strconv.ParseFloat(constant, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid FLOAT constant %q: %w", constant, err)
		}
		return NewFloat64Field(v), nil

	case DecimalType:
		f, err := NewDecimalFieldFromString(constant)
		if err != nil {
			return nil, fmt.Errorf("invalid DECIMAL constant %q: %w", constant, err)
		}
		return f, nil

	case StringType:
		return NewStringField(constant), nil

	default:
		return nil, fmt.Errorf("unsupported field type: %v", t)
	}
}

// ZeroField returns the zero value of t.
func ZeroField(t Type) (Field, error) {
	switch t {
	case IntType:
		return NewIntField(0), nil
	case StringType:
		return NewStringField(""), nil
	case BoolType:
		return NewBoolField(false), nil
	case FloatType:
		return NewFloat64Field(0), nil
	case DecimalType:
		return NewDecimalField(decimal.Zero), nil
	default:
		return nil, fmt.Errorf("unsupported field type: %v", t)
	}
}
