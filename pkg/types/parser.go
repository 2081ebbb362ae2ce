package types

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/shopspring/decimal"
)

// ParseField reads and parses a field from the given reader based on the specified field type.
// This function acts as a dispatcher to the appropriate type-specific parsing function.
//
// Parameters:
//   - r: The io.Reader to read the serialized field data from
//   - fieldType: The Type of field to parse
//
// Returns:
//   - Field: The parsed field instance of the appropriate type
//   - error: An error if the field type is unsupported or the data is incomplete
func ParseField(r io.Reader, fieldType Type) (Field, error) {
	size := fieldType.Size()
	if size == 0 {
		return nil, fmt.Errorf("invalid field type size: %v", fieldType)
	}

	switch fieldType {
	case IntType:
		return parseIntField(r, size)

	case StringType:
		return parseStringField(r)

	case BoolType:
		return parseBoolField(r)

	case FloatType:
		return parseFloat64Field(r, size)

	case DecimalType:
		return parseDecimalField(r, size)

	default:
		return nil, fmt.Errorf("unsupported field type: %v", fieldType)
	}
}

func parseIntField(r io.Reader, size uint32) (*IntField, error) {
	b, err := readBytes(r, size)
	if err != nil {
		return nil, err
	}
	return NewIntField(int64(binary.BigEndian.Uint64(b))), nil // #nosec G115
}

// parseStringField reads and parses a string field from the reader.
// The string is expected to be serialized in the format:
// 1. 4 bytes for the actual string length (big-endian uint32)
// 2. StringMaxSize bytes of payload, of which only the first length are meaningful
//
// A length larger than StringMaxSize means the bytes are not a string field.
func parseStringField(r io.Reader) (*StringField, error) {
	lengthBytes, err := readBytes(r, 4)
	if err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(lengthBytes)
	if length > StringMaxSize {
		return nil, fmt.Errorf("string length %d exceeds maximum %d", length, StringMaxSize)
	}

	payload, err := readBytes(r, StringMaxSize)
	if err != nil {
		return nil, err
	}

	return NewStringField(string(payload[:length])), nil
}

// parseBoolField reads a single byte; any non-zero value is true.
func parseBoolField(r io.Reader) (*BoolField, error) {
	b, err := readBytes(r, 1)
	if err != nil {
		return nil, err
	}
	return NewBoolField(b[0] != 0), nil
}

func parseFloat64Field(r io.Reader, size uint32) (*Float64Field, error) {
	b, err := readBytes(r, size)
	if err != nil {
		return nil, err
	}
	return NewFloat64Field(math.Float64frombits(binary.BigEndian.Uint64(b))), nil
}

func parseDecimalField(r io.Reader, size uint32) (*DecimalField, error) {
	b, err := readBytes(r, size)
	if err != nil {
		return nil, err
	}

	coeff := int64(binary.BigEndian.Uint64(b[0:8])) // #nosec G115
	exp := int32(binary.BigEndian.Uint32(b[8:12]))  // #nosec G115
	return NewDecimalField(decimal.New(coeff, exp)), nil
}
