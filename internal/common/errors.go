package common

import (
	"errors"
	"fmt"
)

// ParseError marks a single source file as unreadable or unrecognizable.
// It is always scoped to that file: the loader converts it into an alert
// and keeps processing the rest of the batch.
type ParseError struct {
	Path   string
	Reason string
	Cause  error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Path, e.Reason, e.Cause)
	}
	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewParseError builds a ParseError for a source file.
func NewParseError(path, reason string, cause error) *ParseError {
	return &ParseError{Path: path, Reason: reason, Cause: cause}
}

// ConfigurationError is a fatal whole-run precondition failure (e.g. the
// intake root directory does not exist). It aborts before any stage runs.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{Message: message, Cause: cause}
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrSinkFailure  = errors.New("sink write failed")
)

// WrapError wraps err with a message, passing nil through untouched.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
