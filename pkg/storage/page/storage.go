package page

import (
	"io"
	"os"

	"heapstore/pkg/concurrency/transaction"
	"heapstore/pkg/primitives"
	"heapstore/pkg/tuple"
)

// PageStorage is the raw page I/O capability a file offers to the buffer pool.
// ReadPage is called on a cache miss and WritePage on flush.
type PageStorage interface {
	ReadPage(pid primitives.PageID) (Page, error)

	WritePage(p Page) error

	GetID() primitives.FileID
}

// PageAccessor is the capability a file consumes to obtain lock-protected,
// cached page instances. Every page obtained through GetPage must eventually be
// released exactly once, either by ReleasePage or by the owning transaction's
// commit or abort.
type PageAccessor interface {
	GetPage(tid *primitives.TransactionID, pid primitives.PageID, perm transaction.Permissions) (Page, error)

	ReleasePage(tid *primitives.TransactionID, pid primitives.PageID)
}

// DbFile represents a database file that stores tuples. Tuple mutations are
// performed through the buffer pool, which the file reaches via PageAccessor.
type DbFile interface {
	PageStorage

	// InsertTuple stores t and returns the pages it modified.
	InsertTuple(tid *primitives.TransactionID, t *tuple.Tuple) ([]Page, error)

	// DeleteTuple removes the tuple addressed by t.RecordID and returns the pages it modified.
	DeleteTuple(tid *primitives.TransactionID, t *tuple.Tuple) ([]Page, error)

	// GetTupleDesc returns the schema of the tuples stored in the file.
	GetTupleDesc() *tuple.TupleDescription

	Close() error
}

// BackingStore is the growable byte store under a file. *os.File satisfies it.
type BackingStore interface {
	io.ReaderAt
	io.WriterAt
	Truncate(size int64) error
	Sync() error
	Stat() (os.FileInfo, error)
	Close() error
}
