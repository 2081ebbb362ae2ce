package dberror

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewf_MatchesSentinel(t *testing.T) {
	err := Newf(ErrInvalidPageID, "ReadPage", "HeapFile", "page %d outside [0, %d)", 3, 3)

	assert.True(t, errors.Is(err, ErrInvalidPageID))
	assert.False(t, errors.Is(err, ErrSchemaMismatch))
	assert.Equal(t, ErrCategoryContract, err.Category)
	assert.Equal(t, "page 3 outside [0, 3)", err.Detail)
	assert.Contains(t, err.Error(), "[INVALID_PAGE_ID]")
	assert.Contains(t, err.Error(), "operation: ReadPage, component: HeapFile")
}

func TestWrapAs_KeepsCause(t *testing.T) {
	err := WrapAs(ErrStoreIO, io.ErrUnexpectedEOF, "ReadPage", "HeapFile")

	assert.True(t, errors.Is(err, ErrStoreIO))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Contains(t, err.Error(), "caused by: unexpected EOF")
	assert.Nil(t, WrapAs(ErrStoreIO, nil, "ReadPage", "HeapFile"))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(Newf(ErrDeadlock, "LockPage", "LockManager", "tx 1")))
	assert.True(t, Retryable(fmt.Errorf("insert: %w", Newf(ErrBufferPoolFull, "GetPage", "BufferPool", "8 pinned"))))
	assert.False(t, Retryable(Newf(ErrInvalidPageID, "ReadPage", "HeapFile", "page 9")))
	assert.False(t, Retryable(io.EOF))
}

func TestCategoryOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Newf(ErrDeadlock, "LockPage", "LockManager", "tx 1"))
	assert.Equal(t, ErrCategoryConcurrency, CategoryOf(wrapped))
	assert.Equal(t, ErrCategorySystem, CategoryOf(io.EOF))
	assert.Equal(t, "concurrency", ErrCategoryConcurrency.String())
}

func TestFormatStack(t *testing.T) {
	err := Newf(ErrCorruptPage, "NewHeapPage", "HeapPage", "bad header")
	require.NotEmpty(t, err.Stack)
	assert.Contains(t, err.FormatStack(), "Stack trace:")
	assert.Contains(t, err.FormatStack(), "TestFormatStack")
}
