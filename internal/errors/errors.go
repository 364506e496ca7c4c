// Package errors provides structured error handling for the monorel CLI.
// It categorizes release bookkeeping failures and carries actionable
// remediation guidance alongside the message.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error that occurred.
type Category int

const (
	// Usage errors are programmer errors: an operation was invoked before its
	// preconditions were established (e.g. rendering before range calculation,
	// or rendering with no template engine set).
	Usage Category = iota
	// Integrity errors signal a corrupted publish state: the on-disk manifest
	// version is ahead of the version implied by the tag history.
	Integrity
	// Lookup errors occur when version data is requested for a tag that
	// cannot be resolved in the repository.
	Lookup
	// Config errors are caused by invalid or missing configuration, including
	// a malformed package registry or manifest.
	Config
	// Runtime errors cover remaining failures during command execution.
	Runtime
)

// String returns a human-readable name for the error category.
func (c Category) String() string {
	switch c {
	case Usage:
		return "Usage Error"
	case Integrity:
		return "Version Integrity Error"
	case Lookup:
		return "Lookup Error"
	case Config:
		return "Configuration Error"
	case Runtime:
		return "Runtime Error"
	default:
		return "Error"
	}
}

// ReleaseError is a structured error with category and remediation guidance.
// Fatal contract violations surface unchanged to the invocation boundary;
// they are never retried.
type ReleaseError struct {
	// Category is the type of error (Usage, Integrity, Lookup, ...).
	Category Category
	// Message is a human-readable description of what went wrong.
	Message string
	// Remediation is a list of actionable steps to resolve the error.
	Remediation []string
}

// Error implements the error interface.
func (e *ReleaseError) Error() string {
	return e.Message
}

// NewUsageError creates an error for an operation invoked before its
// precondition. The message should name the missing precondition.
func NewUsageError(message string, remediation ...string) *ReleaseError {
	return &ReleaseError{
		Category:    Usage,
		Message:     message,
		Remediation: remediation,
	}
}

// NewIntegrityError creates an error for a violated version-ordering
// invariant. Both versions appear verbatim in the message.
func NewIntegrityError(diskVersion, tagVersion string, remediation ...string) *ReleaseError {
	return &ReleaseError{
		Category: Integrity,
		Message: fmt.Sprintf("manifest version %s is ahead of tag version %s: refusing to continue",
			diskVersion, tagVersion),
		Remediation: remediation,
	}
}

// NewLookupError creates an error for unresolvable tag version data.
// The message names the tag and the owning package.
func NewLookupError(tag, pkg string, cause error) *ReleaseError {
	msg := fmt.Sprintf("cannot resolve version data for tag %q (package %q)", tag, pkg)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &ReleaseError{Category: Lookup, Message: msg}
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, remediation ...string) *ReleaseError {
	return &ReleaseError{
		Category:    Config,
		Message:     message,
		Remediation: remediation,
	}
}

// NewRuntimeError creates a new runtime error.
func NewRuntimeError(message string, remediation ...string) *ReleaseError {
	return &ReleaseError{
		Category:    Runtime,
		Message:     message,
		Remediation: remediation,
	}
}

// Wrap wraps an existing error with a ReleaseError, preserving the original
// message. Returns nil when err is nil.
func Wrap(err error, category Category, remediation ...string) *ReleaseError {
	if err == nil {
		return nil
	}
	return &ReleaseError{
		Category:    category,
		Message:     err.Error(),
		Remediation: remediation,
	}
}

// WrapWithMessage wraps an error with a custom message and category.
func WrapWithMessage(err error, category Category, message string, remediation ...string) *ReleaseError {
	if err == nil {
		return nil
	}
	return &ReleaseError{
		Category:    category,
		Message:     fmt.Sprintf("%s: %v", message, err),
		Remediation: remediation,
	}
}

// IsReleaseError checks if an error is a ReleaseError.
func IsReleaseError(err error) bool {
	var re *ReleaseError
	return stderrors.As(err, &re)
}

// AsReleaseError attempts to convert an error to a ReleaseError.
// Returns nil if the error is not a ReleaseError.
func AsReleaseError(err error) *ReleaseError {
	var re *ReleaseError
	if stderrors.As(err, &re) {
		return re
	}
	return nil
}

// HasCategory reports whether err is a ReleaseError of the given category.
func HasCategory(err error, category Category) bool {
	re := AsReleaseError(err)
	return re != nil && re.Category == category
}
