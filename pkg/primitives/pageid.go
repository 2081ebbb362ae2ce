package primitives

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
)

// PageID identifies one page of one file. It is a comparable value and is used
// directly as a map key by the buffer pool and the lock manager.
type PageID struct {
	fileID FileID
	pageNo PageNumber
}

// NewPageID creates a page identifier for page pageNo of file fileID.
func NewPageID(fileID FileID, pageNo PageNumber) PageID {
	return PageID{fileID: fileID, pageNo: pageNo}
}

// FileID returns the identity of the file the page belongs to.
func (p PageID) FileID() FileID {
	return p.fileID
}

// PageNo returns the zero-based page index within the file.
func (p PageID) PageNo() PageNumber {
	return p.pageNo
}

// Serialize returns the 16-byte big-endian encoding (file id, page number).
func (p PageID) Serialize() []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], uint64(p.fileID))
	binary.BigEndian.PutUint64(buf[8:16], uint64(p.pageNo))
	return buf
}

// String returns the "file:page" form used as a cache key and in logs.
func (p PageID) String() string {
	return fmt.Sprintf("%d:%d", p.fileID, p.pageNo)
}

func (p PageID) HashCode() HashCode {
	h := fnv.New64a()
	_, _ = h.Write(p.Serialize())
	return HashCode(h.Sum64())
}
