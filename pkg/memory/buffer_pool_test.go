package memory

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heapstore/pkg/concurrency/transaction"
	"heapstore/pkg/config"
	"heapstore/pkg/dberror"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/heap"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"
)

// 128-byte pages hold 15 single-INT tuples.
const (
	testPageSize = 128
	slotsPerPage = 15
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.PageSize = testPageSize
	cfg.CachePages = 16
	cfg.MaxPinnedPages = 8
	cfg.LockTimeout = 200 * time.Millisecond
	cfg.SyncOnWrite = false
	return cfg
}

func intDesc(t *testing.T) *tuple.TupleDescription {
	t.Helper()
	td, err := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"v"})
	require.NoError(t, err)
	return td
}

func intTuple(td *tuple.TupleDescription, v int64) *tuple.Tuple {
	return tuple.NewBuilder(td).AddInt(v).MustBuild()
}

type fixture struct {
	cfg  config.Config
	path primitives.Filepath
	td   *tuple.TupleDescription
	bp   *BufferPool
	hf   *heap.HeapFile
}

func newFixture(t *testing.T, cfg config.Config) *fixture {
	t.Helper()
	f := &fixture{
		cfg:  cfg,
		path: primitives.Filepath(filepath.Join(t.TempDir(), "data.heap")),
		td:   intDesc(t),
	}
	f.open(t)
	t.Cleanup(func() { _ = f.bp.Close() })
	return f
}

func (f *fixture) open(t *testing.T) {
	t.Helper()
	bp, err := NewBufferPool(f.cfg)
	require.NoError(t, err)

	hf, err := heap.NewHeapFile(f.path, f.td, bp, f.cfg)
	require.NoError(t, err)
	bp.RegisterFile(hf)

	f.bp, f.hf = bp, hf
}

// reopen closes the pool and its file and opens fresh ones over the same path,
// so every read afterwards comes from disk.
func (f *fixture) reopen(t *testing.T) {
	t.Helper()
	require.NoError(t, f.bp.Close())
	f.open(t)
}

func (f *fixture) insert(t *testing.T, tid *primitives.TransactionID, values ...int64) {
	t.Helper()
	for _, v := range values {
		require.NoError(t, f.bp.InsertTuple(tid, f.hf.GetID(), intTuple(f.td, v)))
	}
}

func (f *fixture) scan(t *testing.T) []int64 {
	t.Helper()
	tid := f.bp.BeginTransaction()
	defer func() { require.NoError(t, f.bp.CommitTransaction(tid)) }()

	it := f.hf.Iterator(tid)
	require.NoError(t, it.Open())
	defer it.Close()

	var values []int64
	for {
		tup, err := it.Next()
		require.NoError(t, err)
		if tup == nil {
			return values
		}
		field, err := tup.GetField(0)
		require.NoError(t, err)
		values = append(values, field.(*types.IntField).Value)
	}
}

func TestNewBufferPool_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.CachePages = 0

	_, err := NewBufferPool(cfg)
	assert.True(t, errors.Is(err, dberror.ErrInvalidConfig))
}

func TestGetPage(t *testing.T) {
	t.Run("unregistered file", func(t *testing.T) {
		f := newFixture(t, testConfig())
		tid := primitives.NewTransactionID()

		_, err := f.bp.GetPage(tid, primitives.NewPageID(f.hf.GetID()+1, 0), transaction.ReadOnly)
		assert.True(t, errors.Is(err, dberror.ErrFileNotRegistered))
	})

	t.Run("locks and returns the same instance", func(t *testing.T) {
		f := newFixture(t, testConfig())
		writer := f.bp.BeginTransaction()
		f.insert(t, writer, 1)
		require.NoError(t, f.bp.CommitTransaction(writer))

		pid := primitives.NewPageID(f.hf.GetID(), 0)
		a, b := f.bp.BeginTransaction(), f.bp.BeginTransaction()

		pa, err := f.bp.GetPage(a, pid, transaction.ReadOnly)
		require.NoError(t, err)
		pb, err := f.bp.GetPage(b, pid, transaction.ReadOnly)
		require.NoError(t, err)

		assert.Same(t, pa, pb)
		assert.True(t, f.bp.HoldsLock(a, pid))
		assert.True(t, f.bp.HoldsLock(b, pid))
	})

	t.Run("out of range page", func(t *testing.T) {
		f := newFixture(t, testConfig())
		tid := f.bp.BeginTransaction()

		_, err := f.bp.GetPage(tid, primitives.NewPageID(f.hf.GetID(), 3), transaction.ReadOnly)
		assert.True(t, errors.Is(err, dberror.ErrInvalidPageID))
	})
}

func TestReleasePage(t *testing.T) {
	f := newFixture(t, testConfig())
	setup := f.bp.BeginTransaction()
	f.insert(t, setup, 1)
	require.NoError(t, f.bp.CommitTransaction(setup))
	pid := primitives.NewPageID(f.hf.GetID(), 0)

	t.Run("clean page is unlocked and demoted", func(t *testing.T) {
		tid := f.bp.BeginTransaction()
		_, err := f.bp.GetPage(tid, pid, transaction.ReadWrite)
		require.NoError(t, err)
		assert.Equal(t, 1, f.bp.Stats().PinnedPages)

		f.bp.ReleasePage(tid, pid)
		assert.False(t, f.bp.HoldsLock(tid, pid))
		assert.Equal(t, 0, f.bp.Stats().PinnedPages)
		require.NoError(t, f.bp.CommitTransaction(tid))
	})

	t.Run("dirty page stays locked", func(t *testing.T) {
		tid := f.bp.BeginTransaction()
		f.insert(t, tid, 2)

		f.bp.ReleasePage(tid, pid)
		assert.True(t, f.bp.HoldsLock(tid, pid))

		require.NoError(t, f.bp.CommitTransaction(tid))
		assert.False(t, f.bp.HoldsLock(tid, pid))
	})
}

func TestCommit_PersistsAcrossReopen(t *testing.T) {
	f := newFixture(t, testConfig())

	tid := f.bp.BeginTransaction()
	for i := range int64(2*slotsPerPage + 3) {
		f.insert(t, tid, i)
	}
	require.NoError(t, f.bp.CommitTransaction(tid))

	stats := f.bp.Stats()
	assert.Equal(t, 0, stats.DirtyPages)
	assert.Equal(t, 0, stats.ActiveTransactions)

	f.reopen(t)
	assert.Equal(t, primitives.PageNumber(3), f.hf.NumPages())
	values := f.scan(t)
	require.Len(t, values, 2*slotsPerPage+3)
	assert.Equal(t, int64(0), values[0])
	assert.Equal(t, int64(2*slotsPerPage+2), values[len(values)-1])
}

func TestAbort(t *testing.T) {
	t.Run("restores before image", func(t *testing.T) {
		f := newFixture(t, testConfig())
		setup := f.bp.BeginTransaction()
		f.insert(t, setup, 1, 2)
		require.NoError(t, f.bp.CommitTransaction(setup))

		tid := f.bp.BeginTransaction()
		f.insert(t, tid, 3)
		versionAfterInsert := f.hf.Version()
		require.NoError(t, f.bp.AbortTransaction(tid))

		assert.Equal(t, []int64{1, 2}, f.scan(t))
		assert.Equal(t, versionAfterInsert, f.hf.Version())
	})

	t.Run("nothing reaches disk", func(t *testing.T) {
		f := newFixture(t, testConfig())
		tid := f.bp.BeginTransaction()
		f.insert(t, tid, 7)
		require.NoError(t, f.bp.AbortTransaction(tid))

		f.reopen(t)
		assert.Empty(t, f.scan(t))
	})

	t.Run("delete is undone", func(t *testing.T) {
		f := newFixture(t, testConfig())
		setup := f.bp.BeginTransaction()
		tup := intTuple(f.td, 5)
		require.NoError(t, f.bp.InsertTuple(setup, f.hf.GetID(), tup))
		require.NoError(t, f.bp.CommitTransaction(setup))

		tid := f.bp.BeginTransaction()
		require.NoError(t, f.bp.DeleteTuple(tid, tup))
		assert.Nil(t, tup.RecordID)
		require.NoError(t, f.bp.AbortTransaction(tid))

		assert.Equal(t, []int64{5}, f.scan(t))
	})

	t.Run("unknown transaction", func(t *testing.T) {
		f := newFixture(t, testConfig())
		assert.NoError(t, f.bp.AbortTransaction(primitives.NewTransactionID()))
	})
}

func TestDeleteTuple_Errors(t *testing.T) {
	f := newFixture(t, testConfig())
	tid := f.bp.BeginTransaction()

	err := f.bp.DeleteTuple(tid, intTuple(f.td, 1))
	assert.True(t, errors.Is(err, dberror.ErrInvalidRecordID))

	foreign := intTuple(f.td, 1)
	foreign.RecordID = tuple.NewRecordID(primitives.NewPageID(f.hf.GetID()+1, 0), 0)
	err = f.bp.DeleteTuple(tid, foreign)
	assert.True(t, errors.Is(err, dberror.ErrFileNotRegistered))
}

func TestInsertTuple_UnregisteredFile(t *testing.T) {
	f := newFixture(t, testConfig())
	err := f.bp.InsertTuple(f.bp.BeginTransaction(), f.hf.GetID()+1, intTuple(f.td, 1))
	assert.True(t, errors.Is(err, dberror.ErrFileNotRegistered))
}

func TestBufferPoolFull(t *testing.T) {
	f := newFixture(t, testConfig())

	setup := f.bp.BeginTransaction()
	for i := range int64(3 * slotsPerPage) {
		f.insert(t, setup, i)
	}
	require.NoError(t, f.bp.CommitTransaction(setup))

	f.cfg.MaxPinnedPages = 2
	f.reopen(t)

	tid := f.bp.BeginTransaction()
	for pageNo := range primitives.PageNumber(2) {
		_, err := f.bp.GetPage(tid, primitives.NewPageID(f.hf.GetID(), pageNo), transaction.ReadOnly)
		require.NoError(t, err)
	}

	_, err := f.bp.GetPage(tid, primitives.NewPageID(f.hf.GetID(), 2), transaction.ReadOnly)
	assert.True(t, errors.Is(err, dberror.ErrBufferPoolFull))

	// Releasing a page frees its frame for the next fetch.
	f.bp.ReleasePage(tid, primitives.NewPageID(f.hf.GetID(), 0))
	_, err = f.bp.GetPage(tid, primitives.NewPageID(f.hf.GetID(), 2), transaction.ReadOnly)
	assert.NoError(t, err)
	require.NoError(t, f.bp.CommitTransaction(tid))
}

func TestBufferPoolFull_CleanHitsCountTowardLimit(t *testing.T) {
	f := newFixture(t, testConfig())

	const numPages = 10
	for batch := range int64(numPages / 2) {
		setup := f.bp.BeginTransaction()
		for i := range int64(2 * slotsPerPage) {
			f.insert(t, setup, batch*2*slotsPerPage+i)
		}
		require.NoError(t, f.bp.CommitTransaction(setup))
	}
	require.Equal(t, primitives.PageNumber(numPages), f.hf.NumPages())
	require.Equal(t, 0, f.bp.Stats().PinnedPages)

	tid := f.bp.BeginTransaction()
	it := f.hf.Iterator(tid)
	require.NoError(t, it.Open())

	scanned := 0
	var err error
	for {
		var tup *tuple.Tuple
		tup, err = it.Next()
		if err != nil || tup == nil {
			break
		}
		scanned++
		assert.LessOrEqual(t, f.bp.Stats().PinnedPages, f.cfg.MaxPinnedPages)
	}

	assert.True(t, errors.Is(err, dberror.ErrBufferPoolFull))
	assert.Equal(t, f.cfg.MaxPinnedPages*slotsPerPage, scanned)
	assert.Equal(t, f.cfg.MaxPinnedPages, f.bp.Stats().PinnedPages)
	require.NoError(t, f.bp.AbortTransaction(tid))
}

func TestCleanCacheServesRepeatedReads(t *testing.T) {
	f := newFixture(t, testConfig())
	setup := f.bp.BeginTransaction()
	f.insert(t, setup, 1)
	require.NoError(t, f.bp.CommitTransaction(setup))

	pid := primitives.NewPageID(f.hf.GetID(), 0)
	for range 3 {
		tid := f.bp.BeginTransaction()
		_, err := f.bp.GetPage(tid, pid, transaction.ReadOnly)
		require.NoError(t, err)
		require.NoError(t, f.bp.CommitTransaction(tid))
	}

	assert.Equal(t, 0, f.bp.Stats().PinnedPages)
	assert.Positive(t, f.bp.Stats().CleanHits+f.bp.Stats().CleanMisses)
}

func TestFlushAllPages(t *testing.T) {
	f := newFixture(t, testConfig())

	tid := f.bp.BeginTransaction()
	f.insert(t, tid, 1, 2, 3)
	assert.Equal(t, 1, f.bp.Stats().DirtyPages)

	require.NoError(t, f.bp.FlushAllPages())
	assert.Equal(t, 0, f.bp.Stats().DirtyPages)

	// Flushed pages are on disk even though tid never committed.
	data, err := f.hf.ReadPageData(0)
	require.NoError(t, err)
	assert.Equal(t, byte(0x07), data[0])
	require.NoError(t, f.bp.CommitTransaction(tid))
}

func TestAbortAfterFlush_RestoresDisk(t *testing.T) {
	flushes := map[string]func(f *fixture) error{
		"all pages": func(f *fixture) error { return f.bp.FlushAllPages() },
		"one page": func(f *fixture) error {
			return f.bp.FlushPage(primitives.NewPageID(f.hf.GetID(), 0))
		},
	}

	for name, flush := range flushes {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, testConfig())

			setup := f.bp.BeginTransaction()
			f.insert(t, setup, 1)
			require.NoError(t, f.bp.CommitTransaction(setup))

			tid := f.bp.BeginTransaction()
			f.insert(t, tid, 2, 3)
			require.NoError(t, flush(f))

			data, err := f.hf.ReadPageData(0)
			require.NoError(t, err)
			assert.Equal(t, byte(0x07), data[0])

			require.NoError(t, f.bp.AbortTransaction(tid))

			data, err = f.hf.ReadPageData(0)
			require.NoError(t, err)
			assert.Equal(t, byte(0x01), data[0])

			f.reopen(t)
			assert.Equal(t, []int64{1}, f.scan(t))
		})
	}
}

func TestFlushPage_CleanIsNoop(t *testing.T) {
	f := newFixture(t, testConfig())
	assert.NoError(t, f.bp.FlushPage(primitives.NewPageID(f.hf.GetID(), 0)))
}

func TestConflictingWriters(t *testing.T) {
	t.Run("second writer waits for commit", func(t *testing.T) {
		cfg := testConfig()
		cfg.LockTimeout = 2 * time.Second
		f := newFixture(t, cfg)

		first := f.bp.BeginTransaction()
		f.insert(t, first, 1)

		done := make(chan error, 1)
		second := f.bp.BeginTransaction()
		go func() {
			done <- f.bp.InsertTuple(second, f.hf.GetID(), intTuple(f.td, 2))
		}()

		select {
		case err := <-done:
			t.Fatalf("second insert finished while page was locked: %v", err)
		case <-time.After(50 * time.Millisecond):
		}

		require.NoError(t, f.bp.CommitTransaction(first))
		require.NoError(t, <-done)
		require.NoError(t, f.bp.CommitTransaction(second))

		assert.ElementsMatch(t, []int64{1, 2}, f.scan(t))
	})

	t.Run("deadlock surfaces to the caller", func(t *testing.T) {
		cfg := testConfig()
		cfg.LockTimeout = 0
		f := newFixture(t, cfg)

		setup := f.bp.BeginTransaction()
		for i := range int64(slotsPerPage + 1) {
			f.insert(t, setup, i)
		}
		require.NoError(t, f.bp.CommitTransaction(setup))

		p0 := primitives.NewPageID(f.hf.GetID(), 0)
		p1 := primitives.NewPageID(f.hf.GetID(), 1)
		a, b := f.bp.BeginTransaction(), f.bp.BeginTransaction()

		_, err := f.bp.GetPage(a, p0, transaction.ReadWrite)
		require.NoError(t, err)
		_, err = f.bp.GetPage(b, p1, transaction.ReadWrite)
		require.NoError(t, err)

		errA := make(chan error, 1)
		go func() {
			_, err := f.bp.GetPage(a, p1, transaction.ReadWrite)
			errA <- err
		}()
		time.Sleep(20 * time.Millisecond)

		_, errB := f.bp.GetPage(b, p0, transaction.ReadWrite)
		require.True(t, errors.Is(errB, dberror.ErrDeadlock), "got %v", errB)
		require.NoError(t, f.bp.AbortTransaction(b))

		require.NoError(t, <-errA)
		require.NoError(t, f.bp.CommitTransaction(a))
	})
}

func TestConcurrentTransactions(t *testing.T) {
	cfg := testConfig()
	cfg.LockTimeout = 0
	cfg.MaxPinnedPages = 64
	f := newFixture(t, cfg)

	const workers, perWorker = 4, 10
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				for {
					tid := f.bp.BeginTransaction()
					err := f.bp.InsertTuple(tid, f.hf.GetID(), intTuple(f.td, int64(w*perWorker+i)))
					if err == nil {
						assert.NoError(t, f.bp.CommitTransaction(tid))
						break
					}
					assert.True(t, dberror.Retryable(err), "unexpected %v", err)
					assert.NoError(t, f.bp.AbortTransaction(tid))
				}
			}
		}()
	}
	wg.Wait()

	assert.Len(t, f.scan(t), workers*perWorker)
	assert.Equal(t, 0, f.bp.Stats().PinnedPages)
}
