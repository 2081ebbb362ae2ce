package logging

import (
	"fmt"
	"log/slog"
)

// WithTx returns a child logger tagged with tx_id.
//
// Example:
//
//	log := logging.WithTx(tid.ID())
//	log.Debug("page fetched", "page", pid)
func WithTx(txID int64) *slog.Logger {
	return GetLogger().With("tx_id", txID)
}

// WithFile returns a child logger tagged with file_id.
func WithFile(fileID uint64) *slog.Logger {
	return GetLogger().With("file_id", fileID)
}

func WithPage(pageID fmt.Stringer) *slog.Logger {
	return GetLogger().With("page", pageID.String())
}

// WithLock tags the logger with the transaction and the locked resource.
func WithLock(txID int64, resourceID string) *slog.Logger {
	return GetLogger().With("tx_id", txID, "resource", resourceID)
}

func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithError records err under the error key.
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
