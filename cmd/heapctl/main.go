// Command heapctl works on a single heap file: it loads and deletes tuples,
// scans and aggregates them, and opens the page inspector.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"heapstore/pkg/config"
	"heapstore/pkg/dberror"
	"heapstore/pkg/debug/ui"
	"heapstore/pkg/logging"
)

type options struct {
	file     string
	schema   string
	pageSize int
	logLevel string
	logPath  string
}

func main() {
	opts := parseArguments()

	cfg := config.Default()
	cfg.Log.Level = logging.ParseLevel(opts.logLevel)
	cfg.Log.OutputPath = opts.logPath
	if err := logging.Init(cfg.Log); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError(err))
		os.Exit(1)
	}
	defer logging.Close()

	if err := run(opts, flag.Args(), os.Stdout); err != nil {
		os.Exit(report(err))
	}
}

// report logs err and returns the process exit code: 2 for usage errors,
// 1 otherwise.
func report(err error) int {
	defer logging.Close()

	var dbErr *dberror.DBError
	if errors.As(err, &dbErr) {
		logging.WithError(err).Error("heapctl failed",
			"code", dbErr.Code, "category", dbErr.Category.String())
		logging.Debug("error origin", "stack", dbErr.FormatStack())
	} else {
		logging.WithError(err).Error("heapctl failed")
	}

	fmt.Fprintln(os.Stderr, ui.RenderError(err))
	if dberror.Retryable(err) {
		fmt.Fprintln(os.Stderr, "the operation conflicted with another transaction or ran out of buffer space; it can be retried")
	}

	if errors.Is(err, errUsage) {
		return 2
	}
	return 1
}

// parseArguments processes command-line flags
func parseArguments() options {
	var opts options

	flag.StringVar(&opts.file, "file", "data.heap", "Heap file path")
	flag.StringVar(&opts.schema, "schema", "id:int", "Tuple schema, e.g. id:int,name:string")
	flag.IntVar(&opts.pageSize, "page-size", config.DefaultPageSize, "Page size in bytes")
	flag.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flag.StringVar(&opts.logPath, "log-file", "", "Write logs to this file instead of stderr")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: heapctl [flags] <command> [args]\n\n%s\n\nflags:\n", commandUsage)
		flag.PrintDefaults()
	}

	flag.Parse()
	return opts
}

const commandUsage = `commands:
  insert v1,v2,...          insert one tuple per argument
  load N                    insert N tuples numbered 1..N
  scan [FIELD OP VALUE]     print matching tuples with their record ids
  delete PAGE:SLOT          delete one tuple
  stats                     page, slot and cache statistics
  aggregate OP FIELD [GRP]  MIN, MAX, SUM, AVG or COUNT, optionally grouped
  inspect                   browse pages interactively`
