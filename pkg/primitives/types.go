package primitives

import "fmt"

// HashCode is a 64-bit hash of a field or key.
type HashCode uint64

// FileID identifies a heap file. It is the FNV-1a hash of the file's
// canonical path, so reopening the same file yields the same id and page ids
// held in caches stay valid.
type FileID uint64

// InvalidFileID is the zero id, never produced for a real file.
const InvalidFileID FileID = 0

func (f FileID) IsValid() bool {
	return f != InvalidFileID
}

func (f FileID) String() string {
	return fmt.Sprintf("FileID(%d)", f)
}

// PageNumber is the zero-based index of a page within a heap file.
type PageNumber uint64

// SlotID is a slot index within one page.
type SlotID uint16
