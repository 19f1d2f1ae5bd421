// Package errors provides structured error handling for the changekit CLI.
// Errors carry a category and actionable remediation guidance; the CLI layer
// formats them once at the top level.
package errors

import "fmt"

// Category represents the type of error that occurred.
type Category int

const (
	// Validation errors are caused by input that failed a predicate or guard:
	// bad paths, bad package names, bad bump levels, oversized input.
	Validation Category = iota
	// Environment errors mean the surrounding workspace is not usable:
	// no workspace, not a git repository, no staged changes.
	Environment
	// External errors come from the diff subprocess or the AI endpoint:
	// timeouts, non-zero exits, non-2xx statuses, malformed replies.
	External
	// Internal errors are unexpected failures caught at the workflow top.
	Internal
)

// String returns a human-readable name for the error category.
func (c Category) String() string {
	switch c {
	case Validation:
		return "Validation Error"
	case Environment:
		return "Environment Error"
	case External:
		return "External Error"
	case Internal:
		return "Internal Error"
	default:
		return "Error"
	}
}

// CLIError is a structured error with category and remediation guidance.
type CLIError struct {
	Category    Category
	Message     string
	Remediation []string
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error with remediation steps.
func NewValidationError(message string, remediation ...string) *CLIError {
	return &CLIError{Category: Validation, Message: message, Remediation: remediation}
}

// NewEnvironmentError creates an environment error with remediation steps.
func NewEnvironmentError(message string, remediation ...string) *CLIError {
	return &CLIError{Category: Environment, Message: message, Remediation: remediation}
}

// NewExternalError creates an external-call error with remediation steps.
func NewExternalError(message string, remediation ...string) *CLIError {
	return &CLIError{Category: External, Message: message, Remediation: remediation}
}

// NewInternalError creates an internal error with remediation steps.
func NewInternalError(message string, remediation ...string) *CLIError {
	return &CLIError{Category: Internal, Message: message, Remediation: remediation}
}

// Wrap wraps an existing error with a CLIError, preserving the original message.
func Wrap(err error, category Category, remediation ...string) *CLIError {
	if err == nil {
		return nil
	}
	return &CLIError{Category: category, Message: err.Error(), Remediation: remediation}
}

// WrapWithMessage wraps an error with a custom message and category.
func WrapWithMessage(err error, category Category, message string, remediation ...string) *CLIError {
	if err == nil {
		return nil
	}
	return &CLIError{
		Category:    category,
		Message:     fmt.Sprintf("%s: %v", message, err),
		Remediation: remediation,
	}
}

// AsCLIError attempts to convert an error to a CLIError.
// Returns nil if the error is not a CLIError.
func AsCLIError(err error) *CLIError {
	cliErr, ok := err.(*CLIError)
	if ok {
		return cliErr
	}
	return nil
}
