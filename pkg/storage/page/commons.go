package page

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"heapstore/pkg/primitives"
)

var errFileClosed = errors.New("file is closed")

// BaseFile maps page numbers to byte offsets in a BackingStore.
//
// It knows nothing about page contents or page counts: callers decide which
// page numbers are valid. It only guarantees that a read or write of page n
// touches exactly the bytes [n*pageSize, (n+1)*pageSize).
//
// Thread-safety: I/O methods take a read lock so they may run concurrently;
// Close takes the write lock so it waits for in-flight I/O.
type BaseFile struct {
	store    BackingStore
	fileID   primitives.FileID
	pageSize int
	mutex    sync.RWMutex
	filePath primitives.Filepath
}

// NewBaseFile opens (creating if needed) the file at filePath.
//
// Parameters:
//   - filePath: The path to the database file to open
//   - pageSize: Bytes per page
//
// Returns:
//   - *BaseFile: A pointer to the initialized BaseFile structure
//   - error: An error if the filename is empty or file opening fails
func NewBaseFile(filePath primitives.Filepath, pageSize int) (*BaseFile, error) {
	if filePath.IsEmpty() {
		return nil, fmt.Errorf("filePath cannot be empty")
	}

	file, err := openFile(filePath)
	if err != nil {
		return nil, err
	}

	return &BaseFile{
		store:    file,
		fileID:   filePath.Hash(),
		pageSize: pageSize,
		filePath: filePath,
	}, nil
}

// NewBaseFileFromStore wraps an already open store. The caller supplies the
// file identity since a store has no path to hash.
func NewBaseFileFromStore(store BackingStore, fileID primitives.FileID, pageSize int) *BaseFile {
	return &BaseFile{
		store:    store,
		fileID:   fileID,
		pageSize: pageSize,
	}
}

// GetID returns the identifier derived from the file's canonical path.
func (bf *BaseFile) GetID() primitives.FileID {
	return bf.fileID
}

// PageSize returns the number of bytes per page.
func (bf *BaseFile) PageSize() int {
	return bf.pageSize
}

// FilePath returns the path used to open the file, or "" for a wrapped store.
func (bf *BaseFile) FilePath() primitives.Filepath {
	return bf.filePath
}

// Size returns the current length of the backing store in bytes.
func (bf *BaseFile) Size() (int64, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.store == nil {
		return 0, errFileClosed
	}

	info, err := bf.store.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}
	return info.Size(), nil
}

// ReadPageData reads exactly one page worth of bytes at page pageNo.
// A short read is an error; callers are responsible for bounds.
func (bf *BaseFile) ReadPageData(pageNo primitives.PageNumber) ([]byte, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.store == nil {
		return nil, errFileClosed
	}

	pageData := make([]byte, bf.pageSize)
	n, err := bf.store.ReadAt(pageData, bf.offset(pageNo))
	if n == bf.pageSize {
		return pageData, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("read page %d: %w", pageNo, err)
}

// WritePageData writes pageData at page pageNo and optionally fsyncs.
//
// Parameters:
//   - pageNo: The zero-based page number to write
//   - pageData: The raw page data to write (must be exactly one page)
//   - sync: Whether to fsync after the write
//
// Returns:
//   - error: An error if the file is closed, data size is invalid, or I/O fails
func (bf *BaseFile) WritePageData(pageNo primitives.PageNumber, pageData []byte, sync bool) error {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.store == nil {
		return errFileClosed
	}

	if len(pageData) != bf.pageSize {
		return fmt.Errorf("invalid page data size: expected %d, got %d", bf.pageSize, len(pageData))
	}

	if _, err := bf.store.WriteAt(pageData, bf.offset(pageNo)); err != nil {
		return fmt.Errorf("failed to write page %d: %w", pageNo, err)
	}

	if sync {
		if err := bf.store.Sync(); err != nil {
			return fmt.Errorf("failed to sync file: %w", err)
		}
	}
	return nil
}

// Extend grows the store to hold numPages pages. New bytes read as zero.
func (bf *BaseFile) Extend(numPages primitives.PageNumber) error {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.store == nil {
		return errFileClosed
	}

	if err := bf.store.Truncate(bf.offset(numPages)); err != nil {
		return fmt.Errorf("failed to extend file to %d pages: %w", numPages, err)
	}
	return nil
}

// Close closes the underlying store. Closing twice is a no-op.
func (bf *BaseFile) Close() error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.store != nil {
		err := bf.store.Close()
		bf.store = nil
		return err
	}

	return nil
}

func (bf *BaseFile) offset(pageNo primitives.PageNumber) int64 {
	return int64(pageNo) * int64(bf.pageSize) // #nosec G115
}

func openFile(filename primitives.Filepath) (*os.File, error) {
	file, err := os.OpenFile(string(filename), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	return file, nil
}
