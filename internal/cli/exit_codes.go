package cli

import (
	"fmt"

	clierrors "github.com/carraways/monorel/internal/errors"
)

// Exit codes for the monorel CLI
// These codes support programmatic composition and CI/CD integration
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitFailure indicates a runtime or lookup failure
	ExitFailure = 1

	// ExitIntegrity indicates a manifest version ahead of its tag series
	ExitIntegrity = 2

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3

	// ExitConfigError indicates invalid or missing configuration
	ExitConfigError = 4

	// ExitTimeout indicates command execution timed out
	ExitTimeout = 5
)

// ExitError carries an exit code through the cobra error path. Commands
// return it after printing their own diagnostics; Execute passes it through
// without printing anything further.
type ExitError struct {
	Code int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// NewExitError creates an ExitError with the given code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// ExitCode maps an error returned by Execute to a process exit code.
// nil maps to ExitSuccess, an ExitError to its code, a ReleaseError to the
// code matching its category, and anything else to ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if exitErr, ok := err.(*ExitError); ok {
		return exitErr.Code
	}
	if re := clierrors.AsReleaseError(err); re != nil {
		switch re.Category {
		case clierrors.Integrity:
			return ExitIntegrity
		case clierrors.Usage:
			return ExitInvalidArguments
		case clierrors.Config:
			return ExitConfigError
		}
	}
	return ExitFailure
}
