package dberror

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCategory tells a caller how to react to an error.
type ErrorCategory int

const (
	// ErrCategoryUser is bad caller input, such as a tuple of the wrong schema.
	ErrCategoryUser ErrorCategory = iota

	// ErrCategoryTransient may succeed on retry, e.g. a full buffer pool.
	ErrCategoryTransient

	// ErrCategorySystem needs an operator: unreadable store, disk full.
	ErrCategorySystem

	// ErrCategoryData is corrupt or inconsistent on-disk data.
	ErrCategoryData

	// ErrCategoryConcurrency is a lock conflict: deadlock or lock timeout.
	ErrCategoryConcurrency

	// ErrCategoryContract is a misuse of an API, such as reading a page index
	// outside the file or using a closed iterator. Never retried.
	ErrCategoryContract
)

var categoryNames = [...]string{
	ErrCategoryUser:        "user",
	ErrCategoryTransient:   "transient",
	ErrCategorySystem:      "system",
	ErrCategoryData:        "data",
	ErrCategoryConcurrency: "concurrency",
	ErrCategoryContract:    "contract",
}

func (c ErrorCategory) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// DBError is a storage error: a stable code and category from one of the
// package sentinels, plus where and why this instance was raised.
type DBError struct {
	Code     string
	Category ErrorCategory
	Message  string
	Detail   string

	Operation string // e.g. "ReadPage"
	Component string // e.g. "HeapFile"

	Cause error
	Stack []uintptr
}

// New defines a sentinel. Code is what errors.Is compares.
func New(category ErrorCategory, code, message string) *DBError {
	return &DBError{
		Code:     code,
		Category: category,
		Message:  message,
		Stack:    captureStack(),
	}
}

func (e *DBError) raise(operation, component string) *DBError {
	return &DBError{
		Code:      e.Code,
		Category:  e.Category,
		Message:   e.Message,
		Operation: operation,
		Component: component,
		Stack:     captureStack(),
	}
}

// Newf raises an instance of sentinel with a formatted detail.
//
// Example:
//
//	return dberror.Newf(dberror.ErrInvalidPageID, "ReadPage", "HeapFile",
//	    "page %d outside [0, %d)", pageNo, numPages)
func Newf(sentinel *DBError, operation, component, format string, args ...any) *DBError {
	err := sentinel.raise(operation, component)
	err.Detail = fmt.Sprintf(format, args...)
	return err
}

// WrapAs raises an instance of sentinel caused by err. err stays reachable
// through errors.Is and errors.As. A nil err yields nil.
func WrapAs(sentinel *DBError, err error, operation, component string) *DBError {
	if err == nil {
		return nil
	}
	wrapped := sentinel.raise(operation, component)
	wrapped.Cause = err
	return wrapped
}

// captureStack skips runtime.Callers, itself and its caller inside this
// package, so the first frame is where the error was raised.
func captureStack() []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(4, pcs[:])
	return pcs[:n]
}

// Error formats as
// "[CODE] message: detail (operation: Op, component: Comp) caused by: cause".
func (e *DBError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)

	if e.Detail != "" {
		b.WriteString(": " + e.Detail)
	}
	if e.Operation != "" {
		b.WriteString(" (operation: " + e.Operation)
		if e.Component != "" {
			b.WriteString(", component: " + e.Component)
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, " caused by: %v", e.Cause)
	}
	return b.String()
}

func (e *DBError) Unwrap() error {
	return e.Cause
}

// Is matches any DBError with the same code, so raised instances compare
// equal to their sentinel under errors.Is.
func (e *DBError) Is(target error) bool {
	t, ok := target.(*DBError)
	return ok && e.Code == t.Code
}

// FormatStack renders the stack captured when the error was raised.
func (e *DBError) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Stack trace:\n")
	frames := runtime.CallersFrames(e.Stack)
	for {
		f, more := frames.Next()
		fmt.Fprintf(&b, "  %s\n    %s:%d\n", f.Function, f.File, f.Line)
		if !more {
			return b.String()
		}
	}
}

// CategoryOf returns the category of the first DBError in err's chain, and
// ErrCategorySystem when there is none.
func CategoryOf(err error) ErrorCategory {
	var dbErr *DBError
	if errors.As(err, &dbErr) {
		return dbErr.Category
	}
	return ErrCategorySystem
}

// Retryable reports whether the failed operation may succeed if run again in
// a fresh transaction.
func Retryable(err error) bool {
	switch CategoryOf(err) {
	case ErrCategoryTransient, ErrCategoryConcurrency:
		return true
	default:
		return false
	}
}
