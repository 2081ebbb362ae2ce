// Package logging provides a process-wide structured logger.
//
// The package wraps [log/slog] and exposes a single global logger instance
// that is initialized once and then retrieved via GetLogger. All subsystems
// obtain a logger through this package rather than constructing their own
// slog.Logger values, so that log level and output destination are
// controlled from a single place.
//
// # Initialisation
//
// Call Init (or InitDefault for sensible defaults) once at program startup:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug}); err != nil {
//	    log.Fatal(err)
//	}
//
// InitDefault writes INFO-level text logs to stderr without a log file.
//
// # Context helpers
//
// Several helpers return child loggers pre-populated with structured fields:
//
//	log := logging.WithTx(txID)       // adds tx_id field
//	log := logging.WithFile(fileID)   // adds file_id field
//	log := logging.WithPage(pid)      // adds page field
package logging
