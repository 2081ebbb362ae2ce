package dberror

// Error codes raised by the storage layer.
const (
	CodeSchemaMismatch    = "SCHEMA_MISMATCH"
	CodeInvalidPageID     = "INVALID_PAGE_ID"
	CodeStoreIO           = "STORE_IO_FAILURE"
	CodeIteratorClosed    = "ITERATOR_CLOSED"
	CodeInvalidRecordID   = "INVALID_RECORD_ID"
	CodePageFull          = "PAGE_FULL"
	CodePageTooSmall      = "PAGE_TOO_SMALL"
	CodeCorruptPage       = "CORRUPT_PAGE"
	CodeBufferPoolFull    = "BUFFER_POOL_FULL"
	CodeDeadlock          = "DEADLOCK_DETECTED"
	CodeLockTimeout       = "LOCK_TIMEOUT"
	CodeFileNotRegistered = "FILE_NOT_REGISTERED"
	CodeInvalidConfig     = "INVALID_CONFIG"
	CodeNilTransaction    = "NIL_TRANSACTION"
)

// Sentinels for errors.Is. Instances raised at runtime carry the same code with
// their own detail, operation and stack; see Newf and WrapAs.
var (
	ErrSchemaMismatch    = New(ErrCategoryUser, CodeSchemaMismatch, "tuple schema does not match file schema")
	ErrInvalidPageID     = New(ErrCategoryContract, CodeInvalidPageID, "page index out of range")
	ErrStoreIO           = New(ErrCategorySystem, CodeStoreIO, "backing store I/O failed")
	ErrIteratorClosed    = New(ErrCategoryContract, CodeIteratorClosed, "iterator used after close")
	ErrInvalidRecordID   = New(ErrCategoryContract, CodeInvalidRecordID, "record identifier is not valid")
	ErrPageFull          = New(ErrCategoryTransient, CodePageFull, "no free slot on page")
	ErrPageTooSmall      = New(ErrCategoryUser, CodePageTooSmall, "page size cannot hold a single tuple")
	ErrCorruptPage       = New(ErrCategoryData, CodeCorruptPage, "page contents are corrupt")
	ErrBufferPoolFull    = New(ErrCategoryTransient, CodeBufferPoolFull, "buffer pool has no evictable frame")
	ErrDeadlock          = New(ErrCategoryConcurrency, CodeDeadlock, "deadlock detected")
	ErrLockTimeout       = New(ErrCategoryConcurrency, CodeLockTimeout, "timed out waiting for page lock")
	ErrFileNotRegistered = New(ErrCategoryUser, CodeFileNotRegistered, "file is not registered with the buffer pool")
	ErrInvalidConfig     = New(ErrCategoryUser, CodeInvalidConfig, "invalid configuration")
	ErrNilTransaction    = New(ErrCategoryContract, CodeNilTransaction, "operation requires a transaction id")
)
