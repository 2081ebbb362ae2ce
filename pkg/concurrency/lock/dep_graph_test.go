package lock

import "testing"

func TestDependencyGraph_Cycle(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]int64
		cycle bool
	}{
		{"Empty", nil, false},
		{"Chain", [][2]int64{{1, 2}, {2, 3}}, false},
		{"Two-cycle", [][2]int64{{1, 2}, {2, 1}}, true},
		{"Three-cycle", [][2]int64{{1, 2}, {2, 3}, {3, 1}}, true},
		{"Diamond", [][2]int64{{1, 2}, {1, 3}, {2, 4}, {3, 4}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dg := NewDependencyGraph()
			for _, e := range tt.edges {
				dg.AddEdge(e[0], e[1])
			}
			if got := dg.HasCycle(); got != tt.cycle {
				t.Errorf("HasCycle() = %v, want %v", got, tt.cycle)
			}
		})
	}
}

func TestDependencyGraph_RemoveBreaksCycle(t *testing.T) {
	dg := NewDependencyGraph()
	dg.AddEdge(1, 2)
	dg.AddEdge(2, 1)
	if !dg.HasCycle() {
		t.Fatal("Expected cycle")
	}

	dg.RemoveWaiter(2)
	if dg.HasCycle() {
		t.Error("Removing a waiter's edges should break the cycle")
	}

	dg.AddEdge(2, 1)
	dg.RemoveTransaction(1)
	if dg.HasCycle() {
		t.Error("Removing a transaction should break the cycle")
	}
	if len(dg.GetWaitingTransactions()) != 0 {
		t.Error("No transaction should be waiting")
	}
}
