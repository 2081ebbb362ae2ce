package heap

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"heapstore/pkg/concurrency/transaction"
	"heapstore/pkg/config"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"
)

// smallPageSize gives 15 INT slots per page: floor(128*8 / (8*8+1)) = 15.
const (
	smallPageSize    = 128
	intSlotsPerSmall = 15
)

func testConfig(pageSize int) config.Config {
	cfg := config.Default()
	cfg.PageSize = pageSize
	cfg.SyncOnWrite = false
	return cfg
}

func createTestTupleDesc(t *testing.T) *tuple.TupleDescription {
	t.Helper()
	td, err := tuple.NewTupleDesc([]types.Type{types.IntType, types.StringType}, []string{"id", "name"})
	require.NoError(t, err)
	return td
}

func createIntTupleDesc(t *testing.T) *tuple.TupleDescription {
	t.Helper()
	td, err := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"v"})
	require.NoError(t, err)
	return td
}

func intTuple(td *tuple.TupleDescription, v int64) *tuple.Tuple {
	return tuple.NewBuilder(td).AddInt(v).MustBuild()
}

func namedTuple(td *tuple.TupleDescription, id int64, name string) *tuple.Tuple {
	return tuple.NewBuilder(td).AddInt(id).AddString(name).MustBuild()
}

// mapAccessor is a minimal page cache: it keeps every page it has read and
// never evicts or locks. It records how often pages are released.
type mapAccessor struct {
	mu       sync.Mutex
	file     *HeapFile
	pages    map[primitives.PageID]page.Page
	gets     map[transaction.Permissions]int
	releases int
}

func newMapAccessor() *mapAccessor {
	return &mapAccessor{
		pages: make(map[primitives.PageID]page.Page),
		gets:  make(map[transaction.Permissions]int),
	}
}

func (a *mapAccessor) GetPage(_ *primitives.TransactionID, pid primitives.PageID, perm transaction.Permissions) (page.Page, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.gets[perm]++
	if p, ok := a.pages[pid]; ok {
		return p, nil
	}

	p, err := a.file.ReadPage(pid)
	if err != nil {
		return nil, err
	}
	a.pages[pid] = p
	return p, nil
}

func (a *mapAccessor) ReleasePage(_ *primitives.TransactionID, _ primitives.PageID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.releases++
}

func (a *mapAccessor) flush(t *testing.T) {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.pages {
		require.NoError(t, a.file.WritePage(p))
	}
}

func (a *mapAccessor) drop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pages = make(map[primitives.PageID]page.Page)
}

func tempPath(t *testing.T, name string) primitives.Filepath {
	t.Helper()
	return primitives.Filepath(filepath.Join(t.TempDir(), name))
}

func openHeapFile(t *testing.T, path primitives.Filepath, td *tuple.TupleDescription, pageSize int) (*HeapFile, *mapAccessor) {
	t.Helper()
	acc := newMapAccessor()
	hf, err := NewHeapFile(path, td, acc, testConfig(pageSize))
	require.NoError(t, err)
	acc.file = hf
	t.Cleanup(func() { _ = hf.Close() })
	return hf, acc
}

var errInjected = errors.New("injected fault")

// faultyStore wraps a real file and fails selected operations on demand.
type faultyStore struct {
	*os.File
	failRead     bool
	failWrite    bool
	failTruncate bool
}

func (s *faultyStore) ReadAt(p []byte, off int64) (int, error) {
	if s.failRead {
		return 0, errInjected
	}
	return s.File.ReadAt(p, off)
}

func (s *faultyStore) WriteAt(p []byte, off int64) (int, error) {
	if s.failWrite {
		return 0, errInjected
	}
	return s.File.WriteAt(p, off)
}

func (s *faultyStore) Truncate(size int64) error {
	if s.failTruncate {
		return errInjected
	}
	return s.File.Truncate(size)
}

func openFaultyHeapFile(t *testing.T, td *tuple.TupleDescription) (*HeapFile, *mapAccessor, *faultyStore) {
	t.Helper()
	f, err := os.OpenFile(filepath.Join(t.TempDir(), "faulty.dat"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)

	store := &faultyStore{File: f}
	acc := newMapAccessor()
	hf, err := NewHeapFileFromStore(store, 42, td, acc, testConfig(smallPageSize))
	require.NoError(t, err)
	acc.file = hf
	t.Cleanup(func() { _ = hf.Close() })
	return hf, acc, store
}

func collect(t *testing.T, it *HeapFileIterator) []*tuple.Tuple {
	t.Helper()
	var out []*tuple.Tuple
	for {
		hasNext, err := it.HasNext()
		require.NoError(t, err)
		if !hasNext {
			return out
		}
		tup, err := it.Next()
		require.NoError(t, err)
		out = append(out, tup)
	}
}

func intValues(t *testing.T, tuples []*tuple.Tuple) []int64 {
	t.Helper()
	vals := make([]int64, len(tuples))
	for i, tup := range tuples {
		f, err := tup.GetField(0)
		require.NoError(t, err)
		vals[i] = f.(*types.IntField).Value
	}
	return vals
}
