// Package errors provides standardized error types and helpers for the
// SchemaScope codebase.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or a parse failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrAmbiguous indicates a selector matched more than one candidate
	ErrAmbiguous = errors.New("ambiguous selector")
	// ErrUnsupported indicates an unsupported operation or dialect
	ErrUnsupported = errors.New("unsupported")
)

// ParseError represents structurally malformed dialect input. Unknown type
// tokens are never a ParseError: they degrade to the "any" type instead, so
// open-world type vocabularies across dialects keep parsing.
type ParseError struct {
	Dialect string // Dialect being parsed (e.g. "sqlddl", "protoidl")
	Path    string // Source file path, if available
	Line    int    // 1-based line number, 0 if unknown
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString("failed to parse ")
	sb.WriteString(e.Dialect)
	if e.Path != "" {
		fmt.Fprintf(&sb, " at %s", e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, ":%d", e.Line)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	return sb.String()
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// SelectorError represents a table/message selector that matched zero or
// more than one candidate.
type SelectorError struct {
	Selector   string   // Requested table or message name
	Candidates []string // Matching candidates (empty means no match)
	Err        error    // Underlying error, if any
}

func (e *SelectorError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("no candidate matches %q", e.Selector)
	}
	return fmt.Sprintf("%q matches %d candidates: %s", e.Selector, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

func (e *SelectorError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if len(e.Candidates) == 0 {
		return ErrNotFound
	}
	return ErrAmbiguous
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// UnsupportedError represents an unsupported feature or dialect
type UnsupportedError struct {
	Feature string // Feature or dialect that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewParse creates a ParseError
func NewParse(dialect, path string, line int, message string) *ParseError {
	return &ParseError{
		Dialect: dialect,
		Path:    path,
		Line:    line,
		Message: message,
	}
}

// NewSelector creates a SelectorError
func NewSelector(selector string, candidates []string) *SelectorError {
	return &SelectorError{
		Selector:   selector,
		Candidates: candidates,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
