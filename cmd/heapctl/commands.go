package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"heapstore/pkg/concurrency/transaction"
	"heapstore/pkg/config"
	"heapstore/pkg/debug/heapreader"
	"heapstore/pkg/debug/ui"
	"heapstore/pkg/execution"
	"heapstore/pkg/execution/aggregation"
	"heapstore/pkg/iterator"
	"heapstore/pkg/memory"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/heap"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"
)

const maxColWidth = 24

var errUsage = errors.New("usage")

// session is one open heap file registered with its own buffer pool.
type session struct {
	bp  *memory.BufferPool
	hf  *heap.HeapFile
	td  *tuple.TupleDescription
	out io.Writer
}

func run(opts options, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given\n%s", errUsage, commandUsage)
	}

	s, err := openSession(opts, out)
	if err != nil {
		return err
	}
	defer s.bp.Close()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "insert":
		return s.insert(rest)
	case "load":
		return s.load(rest)
	case "scan":
		return s.scan(rest)
	case "delete":
		return s.delete(rest)
	case "stats":
		return s.stats()
	case "aggregate":
		return s.aggregate(rest)
	case "inspect":
		return heapreader.Run(s.hf)
	default:
		return fmt.Errorf("%w: unknown command %q\n%s", errUsage, cmd, commandUsage)
	}
}

func openSession(opts options, out io.Writer) (*session, error) {
	td, err := tuple.ParseSchema(opts.schema)
	if err != nil {
		return nil, err
	}

	cfg := config.Default()
	cfg.PageSize = opts.pageSize

	bp, err := memory.NewBufferPool(cfg)
	if err != nil {
		return nil, err
	}

	hf, err := heap.NewHeapFile(primitives.Filepath(opts.file), td, bp, cfg)
	if err != nil {
		_ = bp.Close()
		return nil, err
	}
	bp.RegisterFile(hf)

	return &session{bp: bp, hf: hf, td: td, out: out}, nil
}

// inTransaction runs fn in a fresh transaction, committing on success and
// aborting otherwise.
func (s *session) inTransaction(fn func(tid *primitives.TransactionID) error) error {
	tid := s.bp.BeginTransaction()
	if err := fn(tid); err != nil {
		if abortErr := s.bp.AbortTransaction(tid); abortErr != nil {
			return errors.Join(err, abortErr)
		}
		return err
	}
	return s.bp.CommitTransaction(tid)
}

func (s *session) insert(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: insert v1,v2,... [v1,v2,...]", errUsage)
	}

	tuples := make([]*tuple.Tuple, 0, len(args))
	for _, arg := range args {
		t, err := parseTuple(s.td, arg)
		if err != nil {
			return err
		}
		tuples = append(tuples, t)
	}

	err := s.inTransaction(func(tid *primitives.TransactionID) error {
		for _, t := range tuples {
			if err := s.bp.InsertTuple(tid, s.hf.GetID(), t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "inserted %s tuples\n", humanize.Comma(int64(len(tuples))))
	return nil
}

// parseTuple reads a comma separated row such as "7,alice" against td.
func parseTuple(td *tuple.TupleDescription, row string) (*tuple.Tuple, error) {
	values := strings.Split(row, ",")
	if len(values) != td.NumFields() {
		return nil, fmt.Errorf("row %q has %d values, schema %s has %d fields",
			row, len(values), td, td.NumFields())
	}

	b := tuple.NewBuilder(td)
	for i, v := range values {
		ft, err := td.TypeAtIndex(i)
		if err != nil {
			return nil, err
		}
		field, err := types.CreateFieldFromConstant(ft, v)
		if err != nil {
			return nil, err
		}
		b.AddField(field)
	}
	return b.Build()
}

func (s *session) load(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: load N", errUsage)
	}
	n, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || n < 0 {
		return fmt.Errorf("%w: load N needs a non-negative count, got %q", errUsage, args[0])
	}

	intField := -1
	for i := range s.td.NumFields() {
		if ft, _ := s.td.TypeAtIndex(i); ft == types.IntType {
			intField = i
			break
		}
	}

	err = s.inTransaction(func(tid *primitives.TransactionID) error {
		for v := int64(1); v <= n; v++ {
			t, err := numberedTuple(s.td, intField, v)
			if err != nil {
				return err
			}
			if err := s.bp.InsertTuple(tid, s.hf.GetID(), t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "loaded %s tuples into %d pages\n", humanize.Comma(n), s.hf.NumPages())
	return nil
}

// numberedTuple puts v in field intField and zero values everywhere else.
func numberedTuple(td *tuple.TupleDescription, intField int, v int64) (*tuple.Tuple, error) {
	b := tuple.NewBuilder(td)
	for i := range td.NumFields() {
		if i == intField {
			b.AddInt(v)
			continue
		}
		ft, err := td.TypeAtIndex(i)
		if err != nil {
			return nil, err
		}
		zero, err := types.ZeroField(ft)
		if err != nil {
			return nil, err
		}
		b.AddField(zero)
	}
	return b.Build()
}

func (s *session) scan(args []string) error {
	keep, err := s.parseCondition(args)
	if err != nil {
		return err
	}

	headers := []string{"rid"}
	for i := range s.td.NumFields() {
		name, _ := s.td.GetFieldName(i)
		headers = append(headers, name)
	}

	var rows [][]string
	err = s.inTransaction(func(tid *primitives.TransactionID) error {
		scan := execution.NewSeqScan(tid, s.hf, "")
		if err := scan.Open(); err != nil {
			return err
		}
		defer scan.Close()

		matched, err := iterator.Filter(scan, keep)
		if err != nil {
			return err
		}
		for _, t := range matched {
			row := []string{fmt.Sprintf("%d:%d", t.RecordID.PageID.PageNo(), t.RecordID.TupleNum)}
			for i := range t.TupleDesc.NumFields() {
				f, err := t.GetField(i)
				if err != nil {
					return err
				}
				row = append(row, f.String())
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.printTable(headers, rows)
	fmt.Fprintf(s.out, "%s tuples\n", humanize.Comma(int64(len(rows))))
	return nil
}

// parseCondition turns "FIELD OP VALUE" into a tuple filter. No arguments
// accept every tuple.
func (s *session) parseCondition(args []string) (func(*tuple.Tuple) (bool, error), error) {
	if len(args) == 0 {
		return func(*tuple.Tuple) (bool, error) { return true, nil }, nil
	}
	if len(args) != 3 {
		return nil, fmt.Errorf("%w: scan [FIELD OP VALUE]", errUsage)
	}

	idx, err := s.td.FindFieldIndex(args[0])
	if err != nil {
		return nil, err
	}
	op, err := types.ParsePredicate(args[1])
	if err != nil {
		return nil, err
	}
	ft, err := s.td.TypeAtIndex(idx)
	if err != nil {
		return nil, err
	}
	operand, err := types.CreateFieldFromConstant(ft, args[2])
	if err != nil {
		return nil, err
	}

	return func(t *tuple.Tuple) (bool, error) {
		f, err := t.GetField(idx)
		if err != nil {
			return false, err
		}
		return f.Compare(op, operand)
	}, nil
}

func (s *session) delete(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: delete PAGE:SLOT", errUsage)
	}
	pid, slot, err := parseRecordID(s.hf.GetID(), args[0])
	if err != nil {
		return err
	}

	err = s.inTransaction(func(tid *primitives.TransactionID) error {
		p, err := s.bp.GetPage(tid, pid, transaction.ReadWrite)
		if err != nil {
			return err
		}
		hp, ok := p.(*heap.HeapPage)
		if !ok {
			return fmt.Errorf("page %s is a %T, not a heap page", pid, p)
		}

		t, err := hp.GetTupleAt(slot)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("slot %s is empty", args[0])
		}
		return s.bp.DeleteTuple(tid, t)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "deleted %s\n", args[0])
	return nil
}

// parseRecordID reads "PAGE:SLOT".
func parseRecordID(fileID primitives.FileID, s string) (primitives.PageID, primitives.SlotID, error) {
	pageStr, slotStr, ok := strings.Cut(s, ":")
	if !ok {
		return primitives.PageID{}, 0, fmt.Errorf("%w: record id %q is not PAGE:SLOT", errUsage, s)
	}
	pageNo, err := strconv.ParseUint(pageStr, 10, 64)
	if err != nil {
		return primitives.PageID{}, 0, fmt.Errorf("bad page number in %q: %w", s, err)
	}
	slot, err := strconv.ParseUint(slotStr, 10, 16)
	if err != nil {
		return primitives.PageID{}, 0, fmt.Errorf("bad slot in %q: %w", s, err)
	}
	return primitives.NewPageID(fileID, primitives.PageNumber(pageNo)), primitives.SlotID(slot), nil
}

func (s *session) stats() error {
	numPages := s.hf.NumPages()

	var slots, used int
	for pageNo := range numPages {
		p, err := s.hf.ReadPage(primitives.NewPageID(s.hf.GetID(), pageNo))
		if err != nil {
			return err
		}
		hp := p.(*heap.HeapPage)
		slots += hp.NumSlots()
		used += hp.NumSlots() - hp.GetNumEmptySlots()
	}

	size, err := s.hf.Size()
	if err != nil {
		return err
	}

	fill := 0.0
	if slots > 0 {
		fill = float64(used) / float64(slots) * 100
	}

	pool := s.bp.Stats()
	rows := [][]string{
		{"file", string(s.hf.FilePath())},
		{"schema", s.td.String()},
		{"page size", humanize.IBytes(uint64(s.hf.PageSize()))},
		{"pages", humanize.Comma(int64(numPages))},
		{"size", humanize.IBytes(uint64(size))},
		{"tuples", humanize.Comma(int64(used))},
		{"slots", fmt.Sprintf("%s (%.1f%% used)", humanize.Comma(int64(slots)), fill)},
		{"version", humanize.Comma(s.hf.Version())},
		{"cache hits", humanize.Comma(int64(pool.CleanHits))},
		{"cache misses", humanize.Comma(int64(pool.CleanMisses))},
	}
	s.printTable([]string{"stat", "value"}, rows)
	return nil
}

func (s *session) aggregate(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("%w: aggregate OP FIELD [GROUPFIELD]", errUsage)
	}

	op, err := aggregation.ParseAggregateOp(args[0])
	if err != nil {
		return err
	}
	aField, err := s.td.FindFieldIndex(args[1])
	if err != nil {
		return err
	}
	gField := aggregation.NoGrouping
	if len(args) == 3 {
		if gField, err = s.td.FindFieldIndex(args[2]); err != nil {
			return err
		}
	}

	var headers []string
	var rows [][]string
	err = s.inTransaction(func(tid *primitives.TransactionID) error {
		agg, err := aggregation.NewAggregate(execution.NewSeqScan(tid, s.hf, ""), aField, gField, op)
		if err != nil {
			return err
		}
		if err := agg.Open(); err != nil {
			return err
		}
		defer agg.Close()

		td := agg.GetTupleDesc()
		for i := range td.NumFields() {
			name, _ := td.GetFieldName(i)
			headers = append(headers, name)
		}

		results, err := iterator.Collect(agg)
		if err != nil {
			return err
		}
		for _, t := range results {
			row := make([]string, 0, td.NumFields())
			for i := range td.NumFields() {
				f, err := t.GetField(i)
				if err != nil {
					return err
				}
				row = append(row, f.String())
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.printTable(headers, rows)
	return nil
}

func (s *session) printTable(headers []string, rows [][]string) {
	widths := ui.ColumnWidths(headers, rows, maxColWidth)
	fmt.Fprintln(s.out, ui.RenderTable(headers, rows, widths, -1, nil))
}
