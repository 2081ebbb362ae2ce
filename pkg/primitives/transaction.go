package primitives

import (
	"strconv"
	"sync/atomic"
)

var lastTransactionID atomic.Int64

// TransactionID identifies a transaction. IDs come from a process-wide
// counter and are never reused.
type TransactionID struct {
	id int64
}

func NewTransactionID() *TransactionID {
	return &TransactionID{id: lastTransactionID.Add(1)}
}

// NewTransactionIDFromValue wraps a known id without touching the counter.
func NewTransactionIDFromValue(id int64) *TransactionID {
	return &TransactionID{id: id}
}

func (tid *TransactionID) ID() int64 { return tid.id }

func (tid *TransactionID) String() string {
	return "TID-" + strconv.FormatInt(tid.id, 10)
}

// Equals treats two nil ids as equal.
func (tid *TransactionID) Equals(other *TransactionID) bool {
	if tid == nil || other == nil {
		return tid == other
	}
	return tid.id == other.id
}
