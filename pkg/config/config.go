// Package config holds the tunables shared by the heap file, the buffer pool
// and the lock manager.
package config

import (
	"time"

	"heapstore/pkg/dberror"
	"heapstore/pkg/logging"
)

const (
	// DefaultPageSize is the on-disk size of a single heap page in bytes.
	DefaultPageSize = 4096

	// MinPageSize is the smallest page size accepted by Validate.
	MinPageSize = 64
)

// Config holds configuration for a storage engine instance
type Config struct {
	PageSize       int           // Bytes per page; fixed for the lifetime of a file
	CachePages     int64         // Clean pages kept in the page cache
	MaxPinnedPages int           // Locked or dirty pages the buffer pool may hold
	LockTimeout    time.Duration // Max wait for a page lock; 0 waits forever
	SyncOnWrite    bool          // fsync the backing store after every page write
	Log            logging.Config
}

// Default returns sensible defaults for a single-process engine
func Default() Config {
	return Config{
		PageSize:       DefaultPageSize,
		CachePages:     256,
		MaxPinnedPages: 1024,
		LockTimeout:    2 * time.Second,
		SyncOnWrite:    true,
		Log: logging.Config{
			Level:  logging.LevelInfo,
			Format: "text",
		},
	}
}

// Validate checks that the configuration can drive a heap file and buffer pool.
func (c Config) Validate() error {
	switch {
	case c.PageSize < MinPageSize:
		return dberror.Newf(dberror.ErrInvalidConfig, "Validate", "Config",
			"page size %d below minimum %d", c.PageSize, MinPageSize)
	case c.PageSize%8 != 0:
		return dberror.Newf(dberror.ErrInvalidConfig, "Validate", "Config",
			"page size %d is not a multiple of 8", c.PageSize)
	case c.CachePages <= 0:
		return dberror.Newf(dberror.ErrInvalidConfig, "Validate", "Config",
			"cache pages must be positive, got %d", c.CachePages)
	case c.MaxPinnedPages <= 0:
		return dberror.Newf(dberror.ErrInvalidConfig, "Validate", "Config",
			"max pinned pages must be positive, got %d", c.MaxPinnedPages)
	case c.LockTimeout < 0:
		return dberror.Newf(dberror.ErrInvalidConfig, "Validate", "Config",
			"lock timeout must not be negative, got %s", c.LockTimeout)
	}
	return nil
}
