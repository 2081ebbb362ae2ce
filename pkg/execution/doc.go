// Package execution holds the query-side operators that read heap files.
//
// Operators follow the iterator (volcano) model: each implements
// iterator.DbIterator with Open / HasNext / Next / Rewind / Close, and a parent
// pulls one tuple at a time from its child.
//
// # Sub-packages
//
//   - [heapstore/pkg/execution/aggregation] – grouped and ungrouped aggregates
//     (COUNT, SUM, AVG, MIN, MAX) over any child operator.
package execution
