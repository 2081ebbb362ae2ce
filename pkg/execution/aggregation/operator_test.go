package aggregation

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heapstore/pkg/dberror"
	"heapstore/pkg/iterator"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"
)

// salesDesc is (region STRING, units INT, price DECIMAL, rate FLOAT, ok BOOL).
func salesDesc(t *testing.T) *tuple.TupleDescription {
	t.Helper()
	td, err := tuple.NewTupleDesc(
		[]types.Type{types.StringType, types.IntType, types.DecimalType, types.FloatType, types.BoolType},
		[]string{"region", "units", "price", "rate", "ok"},
	)
	require.NoError(t, err)
	return td
}

type sale struct {
	region string
	units  int64
	price  string
	rate   float64
}

func salesChild(t *testing.T, rows ...sale) *tuple.Iterator {
	t.Helper()
	td := salesDesc(t)
	tuples := make([]*tuple.Tuple, len(rows))
	for i, r := range rows {
		tuples[i] = tuple.NewBuilder(td).
			AddString(r.region).
			AddInt(r.units).
			AddDecimal(decimal.RequireFromString(r.price)).
			AddFloat(r.rate).
			AddBool(r.units > 0).
			MustBuild()
	}
	return tuple.NewIterator(tuples, td)
}

func sampleSales(t *testing.T) *tuple.Iterator {
	return salesChild(t,
		sale{"north", 3, "1.50", 0.5},
		sale{"south", 10, "2.25", 1.5},
		sale{"north", 7, "0.75", 2.5},
		sale{"east", -2, "4.00", 3.0},
		sale{"south", 4, "1.00", 0.5},
	)
}

func runAggregate(t *testing.T, child iterator.DbIterator, aField, gField int, op AggregateOp) []*tuple.Tuple {
	t.Helper()
	agg, err := NewAggregate(child, aField, gField, op)
	require.NoError(t, err)
	require.NoError(t, agg.Open())
	defer agg.Close()

	out, err := iterator.Collect(agg)
	require.NoError(t, err)
	return out
}

func field(t *testing.T, tup *tuple.Tuple, i int) types.Field {
	t.Helper()
	f, err := tup.GetField(i)
	require.NoError(t, err)
	return f
}

func TestAggregate_IntNoGrouping(t *testing.T) {
	tests := []struct {
		op   AggregateOp
		want int64
	}{
		{Min, -2},
		{Max, 10},
		{Sum, 22},
		{Avg, 4},
		{Count, 5},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			out := runAggregate(t, sampleSales(t), 1, NoGrouping, tt.op)
			require.Len(t, out, 1)
			assert.Equal(t, tt.want, field(t, out[0], 0).(*types.IntField).Value)
		})
	}
}

func TestAggregate_IntGrouped(t *testing.T) {
	out := runAggregate(t, sampleSales(t), 1, 0, Sum)
	require.Len(t, out, 3)

	got := map[string]int64{}
	var order []string
	for _, tup := range out {
		region := field(t, tup, 0).String()
		order = append(order, region)
		got[region] = field(t, tup, 1).(*types.IntField).Value
	}

	assert.Equal(t, []string{"north", "south", "east"}, order)
	assert.Equal(t, map[string]int64{"north": 10, "south": 14, "east": -2}, got)
}

func TestAggregate_Decimal(t *testing.T) {
	tests := []struct {
		op   AggregateOp
		want string
	}{
		{Min, "0.75"},
		{Max, "4"},
		{Sum, "9.5"},
		{Avg, "1.9"},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			out := runAggregate(t, sampleSales(t), 2, NoGrouping, tt.op)
			require.Len(t, out, 1)
			got := field(t, out[0], 0).(*types.DecimalField).Value
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}

	t.Run("COUNT yields INT", func(t *testing.T) {
		out := runAggregate(t, sampleSales(t), 2, NoGrouping, Count)
		require.Len(t, out, 1)
		assert.Equal(t, int64(5), field(t, out[0], 0).(*types.IntField).Value)
	})

	t.Run("grouped average", func(t *testing.T) {
		out := runAggregate(t, sampleSales(t), 2, 0, Avg)
		require.Len(t, out, 3)
		assert.Equal(t, "north", field(t, out[0], 0).String())
		assert.True(t, field(t, out[0], 1).(*types.DecimalField).Value.Equal(decimal.RequireFromString("1.125")))
	})
}

func TestAggregate_Float(t *testing.T) {
	out := runAggregate(t, sampleSales(t), 3, NoGrouping, Avg)
	require.Len(t, out, 1)
	assert.InDelta(t, 1.6, field(t, out[0], 0).(*types.Float64Field).Value, 1e-9)
}

func TestAggregate_CountOnlyTypes(t *testing.T) {
	t.Run("string count", func(t *testing.T) {
		out := runAggregate(t, sampleSales(t), 0, NoGrouping, Count)
		require.Len(t, out, 1)
		assert.Equal(t, int64(5), field(t, out[0], 0).(*types.IntField).Value)
	})

	t.Run("bool count grouped by bool", func(t *testing.T) {
		out := runAggregate(t, sampleSales(t), 4, 4, Count)
		require.Len(t, out, 2)
		assert.Equal(t, "true", field(t, out[0], 0).String())
		assert.Equal(t, int64(4), field(t, out[0], 1).(*types.IntField).Value)
	})

	for _, op := range []AggregateOp{Min, Max, Sum, Avg} {
		t.Run("string "+op.String(), func(t *testing.T) {
			_, err := NewAggregate(sampleSales(t), 0, NoGrouping, op)
			assert.True(t, errors.Is(err, dberror.ErrSchemaMismatch))
		})
	}

	t.Run("bool sum", func(t *testing.T) {
		_, err := NewAggregate(sampleSales(t), 4, NoGrouping, Sum)
		assert.True(t, errors.Is(err, dberror.ErrSchemaMismatch))
	})
}

func TestAggregate_EmptyInput(t *testing.T) {
	t.Run("count without grouping is zero", func(t *testing.T) {
		out := runAggregate(t, salesChild(t), 1, NoGrouping, Count)
		require.Len(t, out, 1)
		assert.Equal(t, int64(0), field(t, out[0], 0).(*types.IntField).Value)
	})

	t.Run("sum yields nothing", func(t *testing.T) {
		assert.Empty(t, runAggregate(t, salesChild(t), 1, NoGrouping, Sum))
	})

	t.Run("grouped yields nothing", func(t *testing.T) {
		assert.Empty(t, runAggregate(t, salesChild(t), 1, 0, Count))
	})
}

func TestAggregate_Schema(t *testing.T) {
	agg, err := NewAggregate(sampleSales(t), 1, 0, Max)
	require.NoError(t, err)

	td := agg.GetTupleDesc()
	assert.Equal(t, []types.Type{types.StringType, types.IntType}, td.Types)
	assert.Equal(t, []string{"region", "MAX(units)"}, td.FieldNames)
	assert.Equal(t, "region", agg.GroupFieldName())
	assert.Equal(t, "MAX(units)", agg.AggregateFieldName())
	assert.Equal(t, 0, agg.GroupField())
	assert.Equal(t, 1, agg.AggregateField())
	assert.Equal(t, Max, agg.AggregateOp())

	ungrouped, err := NewAggregate(sampleSales(t), 1, NoGrouping, Count)
	require.NoError(t, err)
	assert.Equal(t, 1, ungrouped.GetTupleDesc().NumFields())
	assert.Empty(t, ungrouped.GroupFieldName())
}

func TestAggregate_InvalidArguments(t *testing.T) {
	_, err := NewAggregate(nil, 0, NoGrouping, Count)
	assert.Error(t, err)

	_, err = NewAggregate(sampleSales(t), 9, NoGrouping, Count)
	assert.Error(t, err)

	_, err = NewAggregate(sampleSales(t), 1, 9, Count)
	assert.Error(t, err)

	_, err = NewAggregate(sampleSales(t), 1, NoGrouping, AggregateOp(42))
	assert.Error(t, err)
}

func TestAggregate_RewindReplays(t *testing.T) {
	agg, err := NewAggregate(sampleSales(t), 1, 0, Count)
	require.NoError(t, err)
	require.NoError(t, agg.Open())
	defer agg.Close()

	first, err := iterator.Collect(agg)
	require.NoError(t, err)

	require.NoError(t, agg.Rewind())
	second, err := iterator.Collect(agg)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.True(t, first[i].Equals(second[i]))
	}
}

func TestAggregate_NotOpened(t *testing.T) {
	agg, err := NewAggregate(sampleSales(t), 1, NoGrouping, Sum)
	require.NoError(t, err)

	_, err = agg.Next()
	assert.Error(t, err)
	assert.Error(t, agg.Rewind())
}

func TestParseAggregateOp(t *testing.T) {
	for _, name := range []string{"min", "MAX", "Sum", "avg", "COUNT"} {
		op, err := ParseAggregateOp(name)
		require.NoError(t, err)
		assert.Equal(t, strings.ToUpper(name), op.String())
	}

	_, err := ParseAggregateOp("median")
	assert.Error(t, err)
}

func TestAggregate_GroupsByValueNotText(t *testing.T) {
	child := salesChild(t,
		sale{"north", 1, "1.5", 0},
		sale{"south", 2, "1.50", 0},
		sale{"east", 4, "2", 0},
	)

	out := runAggregate(t, child, 1, 2, Sum)
	require.Len(t, out, 2)

	price, err := out[0].GetField(0)
	require.NoError(t, err)
	assert.True(t, price.Equals(types.NewDecimalField(decimal.RequireFromString("1.5"))))

	sum, err := out[0].GetField(1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.(*types.IntField).Value)
}

func TestAggregate_GroupByBool(t *testing.T) {
	out := runAggregate(t, sampleSales(t), 1, 4, Count)
	require.Len(t, out, 2)

	ok, err := out[0].GetField(0)
	require.NoError(t, err)
	assert.Equal(t, "true", ok.String())

	n, err := out[0].GetField(1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n.(*types.IntField).Value)
}
