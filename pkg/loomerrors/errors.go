// Package loomerrors provides structured error handling for Loom with rich
// context, stack traces, and error categorization.
//
// # Overview
//
// The loomerrors package extends Go's standard error handling with:
//   - Error categorization through ErrorType
//   - Structured context with key-value details
//   - Automatic stack trace capture
//   - Error wrapping with cause preservation
//
// # Error Types
//
// The mapping engine raises three kinds of failures, each with a fixed
// detection point:
//
//   - ErrorTypeSchema: an ill-formed or unsupported type composition,
//     detected once when a model is compiled or bound, never per record.
//   - ErrorTypeInvalidRecord: a per-record data invariant violated at write
//     time (a nil map key is the canonical case). The offending record is
//     aborted before any of its columns are committed.
//   - ErrorTypeConversion: stored logical-type data that cannot be coerced
//     into the requested target representation at read time.
//
// All errors propagate synchronously to the caller; the engine never retries.
//
// # Basic Usage
//
//	err := loomerrors.New(loomerrors.ErrorTypeSchema, "map key type not supported")
//
//	if err := store.Flush(); err != nil {
//	    return loomerrors.Wrap(err, loomerrors.ErrorTypeFile, "row group flush failed").
//	        WithDetail("rows", n)
//	}
package loomerrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error, used for error handling
// strategies and failure reporting.
type ErrorType string

const (
	// ErrorTypeInternal represents defects inside the engine itself
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeSchema represents model or schema validation errors,
	// raised at model build / bind time
	ErrorTypeSchema ErrorType = "schema"
	// ErrorTypeInvalidRecord represents per-record data invariant
	// violations raised at write time
	ErrorTypeInvalidRecord ErrorType = "invalid_record"
	// ErrorTypeConversion represents read-time logical type coercion errors
	ErrorTypeConversion ErrorType = "conversion"
	// ErrorTypeData represents host value errors, such as an extractor
	// returning a value of an unexpected type
	ErrorTypeData ErrorType = "data"
	// ErrorTypeFile represents errors surfaced by the underlying column store
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// Error represents a structured error with context.
//
// Fields:
//   - Type: Categorizes the error for handling strategies
//   - Message: Human-readable error description
//   - Cause: The underlying error that caused this error
//   - Details: Key-value pairs providing additional context
//   - Stack: Call stack at the point of error creation
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string // Fully qualified function name
	File     string // Source file path
	Line     int    // Line number in source file
}

// Error implements the error interface, returning a formatted error message
// that includes the error type, message, and cause (if present).
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error, enabling compatibility with errors.Is
// and errors.As for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error. This method can be
// chained for adding multiple details.
//
// Example:
//
//	err := loomerrors.New(loomerrors.ErrorTypeInvalidRecord, "null map key").
//	    WithDetail("field", "attributes")
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message, automatically
// capturing the call stack at the point of creation.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context, preserving the
// original error as the cause. If the error is already a structured Error,
// its stack trace is preserved. Returns nil if the input error is nil.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if the error is of the given type, useful for deciding
// whether to skip an offending record or abort a whole write.
//
// Example:
//
//	if loomerrors.IsType(err, loomerrors.ErrorTypeInvalidRecord) {
//	    skipped++
//	    continue
//	}
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// captureStack captures the current call stack up to maxFrames deep,
// skipping the specified number of frames from the top.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
