// Package aggregation implements the Aggregate operator: a single aggregate
// column, optionally grouped by a single column, computed eagerly on Open.
package aggregation

import (
	"fmt"
	"strings"
)

// NoGrouping is passed as the group field when every input tuple falls into
// one group.
const NoGrouping = -1

// AggregateOp selects the function folded over each group.
type AggregateOp int

const (
	Min AggregateOp = iota
	Max
	Sum
	Avg
	Count
)

var opNames = [...]string{Min: "MIN", Max: "MAX", Sum: "SUM", Avg: "AVG", Count: "COUNT"}

func (op AggregateOp) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return "UNKNOWN"
	}
	return opNames[op]
}

// ParseAggregateOp accepts an operation name in any case.
func ParseAggregateOp(name string) (AggregateOp, error) {
	for i, n := range opNames {
		if strings.EqualFold(n, name) {
			return AggregateOp(i), nil
		}
	}
	return 0, fmt.Errorf("unsupported aggregate operation: %s", name)
}
