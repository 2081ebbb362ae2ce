package tuple

import (
	"fmt"

	"github.com/shopspring/decimal"

	"heapstore/pkg/types"
)

// Builder fills a tuple left to right. The first failing call records the
// error and every later call is a no-op.
type Builder struct {
	tuple *Tuple
	next  int
	err   error
}

func NewBuilder(td *TupleDescription) *Builder {
	return &Builder{tuple: NewTuple(td)}
}

func (b *Builder) AddInt(value int64) *Builder {
	return b.AddField(types.NewIntField(value))
}

func (b *Builder) AddString(value string) *Builder {
	return b.AddField(types.NewStringField(value))
}

func (b *Builder) AddFloat(value float64) *Builder {
	return b.AddField(types.NewFloat64Field(value))
}

func (b *Builder) AddBool(value bool) *Builder {
	return b.AddField(types.NewBoolField(value))
}

func (b *Builder) AddDecimal(value decimal.Decimal) *Builder {
	return b.AddField(types.NewDecimalField(value))
}

func (b *Builder) AddField(field types.Field) *Builder {
	if b.err == nil {
		if err := b.tuple.SetField(b.next, field); err != nil {
			b.err = fmt.Errorf("field %d: %w", b.next, err)
		} else {
			b.next++
		}
	}
	return b
}

// Build fails if any field was rejected or left unset.
func (b *Builder) Build() (*Tuple, error) {
	switch want := b.tuple.TupleDesc.NumFields(); {
	case b.err != nil:
		return nil, b.err
	case b.next != want:
		return nil, fmt.Errorf("incomplete tuple: %d of %d fields set", b.next, want)
	}
	return b.tuple, nil
}

// MustBuild is for tests and literals whose shape is known to match.
func (b *Builder) MustBuild() *Tuple {
	t, err := b.Build()
	if err != nil {
		panic("tuple builder: " + err.Error())
	}
	return t
}
