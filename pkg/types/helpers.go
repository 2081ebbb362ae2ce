package types

import (
	"cmp"
	"encoding/binary"
	"hash/fnv"
	"io"

	"heapstore/pkg/primitives"
)

func compareOrdered[T cmp.Ordered](a, b T, op Predicate) bool {
	c := cmp.Compare(a, b)
	switch op {
	case Equals:
		return c == 0
	case NotEqual:
		return c != 0
	case LessThan:
		return c < 0
	case LessThanOrEqual:
		return c <= 0
	case GreaterThan:
		return c > 0
	case GreaterThanOrEqual:
		return c >= 0
	}
	return false
}

func fnvHash(data []byte) primitives.HashCode {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return primitives.HashCode(h.Sum64())
}

// All fixed-width values are stored big-endian.

func serializeUint32(w io.Writer, v uint32) error {
	return binary.Write(w, binary.BigEndian, v)
}

func serializeUint64(w io.Writer, v uint64) error {
	_, err := w.Write(toBytes64(v))
	return err
}

func readBytes(r io.Reader, size uint32) ([]byte, error) {
	buf := make([]byte, size)
	_, err := io.ReadFull(r, buf)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func toBytes64(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}
