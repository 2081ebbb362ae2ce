package lock

import (
	"maps"
	"slices"
	"sync"
)

// DependencyGraph is the wait-for graph used for deadlock detection. An edge
// waiter -> holder means waiter is blocked on a page lock holder owns; any
// cycle is a deadlock.
type DependencyGraph struct {
	mu    sync.Mutex
	edges map[int64]map[int64]struct{}

	// cycle caches the last HasCycle answer; nil means stale.
	cycle *bool
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{edges: make(map[int64]map[int64]struct{})}
}

func (dg *DependencyGraph) AddEdge(waiter, holder int64) {
	dg.mu.Lock()
	defer dg.mu.Unlock()

	out, ok := dg.edges[waiter]
	if !ok {
		out = make(map[int64]struct{})
		dg.edges[waiter] = out
	}
	out[holder] = struct{}{}
	dg.cycle = nil
}

// RemoveWaiter drops tid's outgoing edges once it is granted or gives up.
func (dg *DependencyGraph) RemoveWaiter(tid int64) {
	dg.mu.Lock()
	defer dg.mu.Unlock()

	delete(dg.edges, tid)
	dg.cycle = nil
}

// RemoveTransaction drops every edge touching tid.
func (dg *DependencyGraph) RemoveTransaction(tid int64) {
	dg.mu.Lock()
	defer dg.mu.Unlock()

	delete(dg.edges, tid)
	for waiter, holders := range dg.edges {
		delete(holders, tid)
		if len(holders) == 0 {
			delete(dg.edges, waiter)
		}
	}
	dg.cycle = nil
}

const (
	unvisited = iota
	onPath
	done
)

func (dg *DependencyGraph) HasCycle() bool {
	dg.mu.Lock()
	defer dg.mu.Unlock()

	if dg.cycle != nil {
		return *dg.cycle
	}

	state := make(map[int64]int, len(dg.edges))
	var visit func(int64) bool
	visit = func(tid int64) bool {
		state[tid] = onPath
		for next := range dg.edges[tid] {
			switch state[next] {
			case onPath:
				return true
			case unvisited:
				if visit(next) {
					return true
				}
			}
		}
		state[tid] = done
		return false
	}

	found := false
	for tid := range dg.edges {
		if state[tid] == unvisited && visit(tid) {
			found = true
			break
		}
	}
	dg.cycle = &found
	return found
}

func (dg *DependencyGraph) GetWaitingTransactions() []int64 {
	dg.mu.Lock()
	defer dg.mu.Unlock()
	return slices.Collect(maps.Keys(dg.edges))
}
