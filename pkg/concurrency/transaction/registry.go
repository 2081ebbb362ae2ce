package transaction

import (
	"fmt"
	"sync"

	"heapstore/pkg/primitives"
)

// TransactionRegistry tracks live transaction contexts by numeric id, so two
// TransactionID pointers with the same value share one context.
type TransactionRegistry struct {
	mutex    sync.RWMutex
	contexts map[int64]*TransactionContext
}

func NewTransactionRegistry() *TransactionRegistry {
	return &TransactionRegistry{contexts: make(map[int64]*TransactionContext)}
}

// Begin registers a context for a freshly allocated transaction id.
func (tr *TransactionRegistry) Begin() *TransactionContext {
	return tr.GetOrCreate(primitives.NewTransactionID())
}

func (tr *TransactionRegistry) Get(tid *primitives.TransactionID) (*TransactionContext, error) {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	if ctx, ok := tr.contexts[tid.ID()]; ok {
		return ctx, nil
	}
	return nil, fmt.Errorf("transaction %s not found", tid)
}

func (tr *TransactionRegistry) GetOrCreate(tid *primitives.TransactionID) *TransactionContext {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()

	ctx, ok := tr.contexts[tid.ID()]
	if !ok {
		ctx = NewTransactionContext(tid)
		tr.contexts[tid.ID()] = ctx
	}
	return ctx
}

func (tr *TransactionRegistry) Remove(tid *primitives.TransactionID) {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	delete(tr.contexts, tid.ID())
}

// GetActive returns the registered contexts still in TxActive.
func (tr *TransactionRegistry) GetActive() []*TransactionContext {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	var active []*TransactionContext
	for _, ctx := range tr.contexts {
		if ctx.IsActive() {
			active = append(active, ctx)
		}
	}
	return active
}

func (tr *TransactionRegistry) Count() int {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()
	return len(tr.contexts)
}
