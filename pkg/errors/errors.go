package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies failures by how the crawl loop reacts to them
type ErrorType string

const (
	// ErrorTypeFieldExtraction: a single field could not be located; it is recorded as absent
	ErrorTypeFieldExtraction ErrorType = "field_extraction"
	// ErrorTypeTransientBlock: the site rendered its retry marker; the item is skipped this pass
	ErrorTypeTransientBlock ErrorType = "transient_block"
	// ErrorTypeStuckPage: scrolling stopped producing content; collection ends early
	ErrorTypeStuckPage ErrorType = "stuck_page"
	// ErrorTypePersistence: a store read or write failed; logged and the loop continues
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeSession: no usable login session; the process must stop
	ErrorTypeSession ErrorType = "session"
	// ErrorTypeIdentifierParse: a post permalink carried no numeric id; the post is skipped
	ErrorTypeIdentifierParse ErrorType = "identifier_parse"
	// ErrorTypeBrowser: the automation driver failed
	ErrorTypeBrowser ErrorType = "browser"
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error is a typed crawl error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap attaches a type and message to an underlying error
func Wrap(t ErrorType, err error, message string) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// TypeOf returns the type of the first *Error in err's chain
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given type
func Is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// IsFatal reports whether the crawl must stop
func IsFatal(err error) bool {
	return Is(err, ErrorTypeSession)
}

// IsRecoverable reports whether the loop can continue past err
func IsRecoverable(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeSession:
		return false
	default:
		return true
	}
}

// IsRetryable reports whether repeating the same operation may succeed
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypePersistence, ErrorTypeBrowser:
		return true
	default:
		return false
	}
}
