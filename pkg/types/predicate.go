package types

import (
	"fmt"
	"strings"
)

// Predicate is a comparison operator applied by Field.Compare.
type Predicate int

const (
	Equals Predicate = iota
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	NotEqual
	Like
)

var predicateSymbols = [...]string{
	Equals:             "=",
	LessThan:           "<",
	GreaterThan:        ">",
	LessThanOrEqual:    "<=",
	GreaterThanOrEqual: ">=",
	NotEqual:           "!=",
	Like:               "LIKE",
}

func (p Predicate) String() string {
	if p < 0 || int(p) >= len(predicateSymbols) {
		return "UNKNOWN"
	}
	return predicateSymbols[p]
}

// ParsePredicate maps an operator symbol to its Predicate. "==" and "<>" are
// accepted as aliases and LIKE is case-insensitive.
func ParsePredicate(symbol string) (Predicate, error) {
	switch s := strings.ToUpper(strings.TrimSpace(symbol)); s {
	case "==":
		return Equals, nil
	case "<>":
		return NotEqual, nil
	default:
		for p, sym := range predicateSymbols {
			if sym == s {
				return Predicate(p), nil
			}
		}
	}
	return 0, fmt.Errorf("unknown comparison operator %q", symbol)
}
