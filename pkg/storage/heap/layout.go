package heap

import (
	"bytes"
	"fmt"

	"heapstore/pkg/primitives"
	"heapstore/pkg/tuple"
)

// Page layout
//
//	[header: ceil(numSlots/8) bytes][slot 0][slot 1]...[slot numSlots-1][zero padding]
//
// Each slot is exactly tupleSize bytes. Header bit i lives in byte i/8 at bit
// position i%8, least significant bit first, and is set iff slot i holds a tuple.
// An empty slot is written as zeros.

// NumSlots returns how many tuples of tupleSize bytes fit on a page of pageSize
// bytes, counting one header bit per slot: floor(pageSize*8 / (tupleSize*8 + 1)).
func NumSlots(pageSize int, tupleSize uint32) int {
	if tupleSize == 0 {
		return 0
	}
	return (pageSize * 8) / (int(tupleSize)*8 + 1)
}

// HeaderSize returns the number of header bytes needed for numSlots slots.
func HeaderSize(numSlots int) int {
	return (numSlots + 7) / 8
}

// CreateEmptyPageData returns the on-disk image of a page with no tuples.
func CreateEmptyPageData(pageSize int) []byte {
	return make([]byte, pageSize)
}

func isBitSet(header []byte, i int) bool {
	return header[i/8]&(1<<(uint(i)%8)) != 0
}

func setBit(header []byte, i int, used bool) {
	mask := byte(1 << (uint(i) % 8))
	if used {
		header[i/8] |= mask
	} else {
		header[i/8] &^= mask
	}
}

// encodePage produces the pageSize-byte image of a header plus slot array.
// tuples[i] must be nil exactly when header bit i is clear.
func encodePage(header []byte, tuples []*tuple.Tuple, td *tuple.TupleDescription, pageSize int) ([]byte, error) {
	data := make([]byte, pageSize)
	copy(data, header)

	tupleSize := int(td.GetSize())
	offset := len(header)

	var buf bytes.Buffer
	for i, t := range tuples {
		slotStart := offset + i*tupleSize

		if t == nil {
			continue
		}

		buf.Reset()
		if err := t.Serialize(&buf); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		if buf.Len() != tupleSize {
			return nil, fmt.Errorf("slot %d: encoded %d bytes, slot width is %d", i, buf.Len(), tupleSize)
		}
		copy(data[slotStart:slotStart+tupleSize], buf.Bytes())
	}

	if len(data) != pageSize {
		return nil, fmt.Errorf("encoded page is %d bytes, want %d", len(data), pageSize)
	}
	return data, nil
}

// decodeSlots parses every occupied slot of data and stamps its RecordID.
func decodeSlots(pid primitives.PageID, data, header []byte, td *tuple.TupleDescription, numSlots int) ([]*tuple.Tuple, error) {
	tupleSize := int(td.GetSize())
	offset := len(header)
	tuples := make([]*tuple.Tuple, numSlots)

	for i := range numSlots {
		if !isBitSet(header, i) {
			continue
		}

		start := offset + i*tupleSize
		t, err := tuple.ParseTuple(bytes.NewReader(data[start:start+tupleSize]), td)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		t.RecordID = tuple.NewRecordID(pid, primitives.SlotID(i)) // #nosec G115
		tuples[i] = t
	}
	return tuples, nil
}
