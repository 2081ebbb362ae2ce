package tuple

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"

	"heapstore/pkg/primitives"
	"heapstore/pkg/types"
)

func mustCreateTupleDesc(fieldTypes []types.Type, fieldNames []string) *TupleDescription {
	td, err := NewTupleDesc(fieldTypes, fieldNames)
	if err != nil {
		panic(err)
	}
	return td
}

func TestNewTuple(t *testing.T) {
	td := mustCreateTupleDesc([]types.Type{types.IntType, types.StringType}, []string{"id", "name"})

	tuple := NewTuple(td)

	if tuple.TupleDesc != td {
		t.Errorf("Expected TupleDesc to be %v, got %v", td, tuple.TupleDesc)
	}
	if len(tuple.fields) != 2 {
		t.Errorf("Expected 2 fields, got %d", len(tuple.fields))
	}
	if tuple.RecordID != nil {
		t.Errorf("Expected RecordID to be nil, got %v", tuple.RecordID)
	}
}

func TestTuple_SetField(t *testing.T) {
	td := mustCreateTupleDesc([]types.Type{types.IntType, types.StringType}, []string{"id", "name"})
	tuple := NewTuple(td)

	tests := []struct {
		name          string
		index         int
		field         types.Field
		expectedError bool
	}{
		{"Valid int field at index 0", 0, types.NewIntField(42), false},
		{"Valid string field at index 1", 1, types.NewStringField("test"), false},
		{"Invalid negative index", -1, types.NewIntField(1), true},
		{"Invalid index out of bounds", 2, types.NewIntField(1), true},
		{"Type mismatch", 0, types.NewStringField("x"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tuple.SetField(tt.index, tt.field)
			if tt.expectedError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.expectedError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestTuple_SerializeRoundTrip(t *testing.T) {
	td := mustCreateTupleDesc(
		[]types.Type{types.IntType, types.StringType, types.BoolType, types.FloatType, types.DecimalType},
		[]string{"id", "name", "active", "score", "price"},
	)

	price := decimal.RequireFromString("19.95")
	original := NewBuilder(td).
		AddInt(-7).
		AddString("widget").
		AddBool(true).
		AddFloat(3.5).
		AddDecimal(price).
		MustBuild()

	var buf bytes.Buffer
	if err := original.Serialize(&buf); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if uint32(buf.Len()) != td.GetSize() {
		t.Fatalf("Expected %d bytes, got %d", td.GetSize(), buf.Len())
	}

	parsed, err := ParseTuple(&buf, td)
	if err != nil {
		t.Fatalf("ParseTuple failed: %v", err)
	}
	if !original.Equals(parsed) {
		t.Errorf("Round trip mismatch: %s vs %s", original, parsed)
	}
	if parsed.RecordID != nil {
		t.Error("Parsed tuple should have no RecordID")
	}

	for i, want := range []types.Field{
		types.NewIntField(-7), types.NewStringField("widget"), types.NewBoolField(true),
		types.NewFloat64Field(3.5), types.NewDecimalField(price),
	} {
		got, err := parsed.GetField(i)
		if err != nil {
			t.Fatalf("GetField(%d) failed: %v", i, err)
		}
		if !got.Equals(want) {
			t.Errorf("field %d: expected %s, got %s", i, want, got)
		}
	}
}

func TestTuple_SerializeUnsetField(t *testing.T) {
	td := mustCreateTupleDesc([]types.Type{types.IntType}, nil)
	var buf bytes.Buffer
	if err := NewTuple(td).Serialize(&buf); err == nil {
		t.Error("Expected error serializing a tuple with an unset field")
	}
}

func TestTuple_ParseShortInput(t *testing.T) {
	td := mustCreateTupleDesc([]types.Type{types.IntType, types.IntType}, nil)
	if _, err := ParseTuple(bytes.NewReader(make([]byte, 10)), td); err == nil {
		t.Error("Expected error parsing a truncated tuple")
	}
}

func TestTuple_EqualsIgnoresRecordID(t *testing.T) {
	td := mustCreateTupleDesc([]types.Type{types.IntType}, nil)
	a := NewBuilder(td).AddInt(1).MustBuild()
	b := NewBuilder(td).AddInt(1).MustBuild()
	b.RecordID = NewRecordID(primitives.NewPageID(1, 2), 3)

	if !a.Equals(b) {
		t.Error("Tuples with equal values should be equal")
	}
	if a.Equals(NewBuilder(td).AddInt(2).MustBuild()) {
		t.Error("Tuples with different values should not be equal")
	}
}

func TestTuple_CloneAndWithDesc(t *testing.T) {
	td := mustCreateTupleDesc([]types.Type{types.IntType}, []string{"v"})
	orig := NewBuilder(td).AddInt(9).MustBuild()
	orig.RecordID = NewRecordID(primitives.NewPageID(1, 0), 4)

	clone := orig.Clone()
	if clone.RecordID != nil {
		t.Error("Clone should be transient")
	}
	if !clone.Equals(orig) {
		t.Error("Clone should have the same values")
	}

	renamed, err := orig.WithDesc(td.WithPrefix("t"))
	if err != nil {
		t.Fatalf("WithDesc failed: %v", err)
	}
	name, _ := renamed.TupleDesc.GetFieldName(0)
	if name != "t.v" {
		t.Errorf("Expected t.v, got %s", name)
	}
	if !renamed.RecordID.Equals(orig.RecordID) {
		t.Error("WithDesc should keep the record id")
	}

	other := mustCreateTupleDesc([]types.Type{types.BoolType}, nil)
	if _, err := orig.WithDesc(other); err == nil {
		t.Error("Expected error for incompatible schema")
	}
}

func TestBuilder_Errors(t *testing.T) {
	td := mustCreateTupleDesc([]types.Type{types.IntType, types.StringType}, nil)

	if _, err := NewBuilder(td).AddInt(1).Build(); err == nil {
		t.Error("Expected error for incomplete tuple")
	}
	if _, err := NewBuilder(td).AddString("x").AddInt(1).Build(); err == nil {
		t.Error("Expected error for type mismatch")
	}
}

func TestRecordID_Equals(t *testing.T) {
	a := NewRecordID(primitives.NewPageID(1, 2), 3)
	b := NewRecordID(primitives.NewPageID(1, 2), 3)
	c := NewRecordID(primitives.NewPageID(1, 2), 4)

	if !a.Equals(b) {
		t.Error("Expected equal record ids")
	}
	if a.Equals(c) {
		t.Error("Expected different record ids")
	}
	var nilRID *RecordID
	if !nilRID.Equals(nil) || nilRID.Equals(a) {
		t.Error("Nil record id handling is wrong")
	}
}

func TestIterator(t *testing.T) {
	td := mustCreateTupleDesc([]types.Type{types.IntType}, nil)
	tuples := []*Tuple{
		NewBuilder(td).AddInt(1).MustBuild(),
		NewBuilder(td).AddInt(2).MustBuild(),
	}
	it := NewIterator(tuples, td)

	if _, err := it.HasNext(); err == nil {
		t.Error("Expected error before Open")
	}
	if err := it.Open(); err != nil {
		t.Fatal(err)
	}

	count := 0
	for {
		tup, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		if tup == nil {
			break
		}
		count++
	}
	if count != 2 {
		t.Errorf("Expected 2 tuples, got %d", count)
	}

	if err := it.Rewind(); err != nil {
		t.Fatal(err)
	}
	if tup, _ := it.Next(); tup != tuples[0] {
		t.Error("Rewind should restart at the first tuple")
	}
	if it.GetTupleDesc() != td {
		t.Error("Unexpected tuple desc")
	}
}
