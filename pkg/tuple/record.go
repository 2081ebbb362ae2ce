package tuple

import (
	"fmt"

	"heapstore/pkg/primitives"
)

// RecordID is the on-disk address of a stored tuple: the page that holds it and
// its slot within that page.
type RecordID struct {
	PageID   primitives.PageID
	TupleNum primitives.SlotID
}

// NewRecordID creates a new RecordID
func NewRecordID(pageID primitives.PageID, tupleNum primitives.SlotID) *RecordID {
	return &RecordID{
		PageID:   pageID,
		TupleNum: tupleNum,
	}
}

func (rid *RecordID) Equals(other *RecordID) bool {
	if rid == nil || other == nil {
		return rid == other
	}
	return rid.PageID == other.PageID && rid.TupleNum == other.TupleNum
}

func (rid *RecordID) String() string {
	return fmt.Sprintf("RecordID(page=%s, slot=%d)", rid.PageID, rid.TupleNum)
}
