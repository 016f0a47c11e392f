package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arthur-debert/scanstore/scanstore/counttable"
	"github.com/arthur-debert/scanstore/scanstore/filter"
	"github.com/arthur-debert/scanstore/types"
)

// CLIError represents a user-friendly CLI error with context and suggestions
type CLIError struct {
	Operation   string   // The operation that failed (e.g., "count", "set value")
	Cause       string   // The underlying cause (e.g., "tag not found")
	Details     string   // Additional technical details
	Suggestions []string // Helpful suggestions for the user
	Underlying  error    // Original error for debugging
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var msg strings.Builder

	if e.Operation != "" {
		msg.WriteString(fmt.Sprintf("Failed to %s", e.Operation))
	} else {
		msg.WriteString("Operation failed")
	}
	if e.Cause != "" {
		msg.WriteString(fmt.Sprintf(": %s", e.Cause))
	}
	if e.Details != "" {
		msg.WriteString(fmt.Sprintf(" (%s)", e.Details))
	}

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			msg.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}
	return msg.String()
}

// Unwrap returns the underlying error for error chain compatibility
func (e *CLIError) Unwrap() error {
	return e.Underlying
}

// NewValidationError creates an error for invalid user input
func NewValidationError(operation, field, value string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("invalid %s: %q", field, value),
		Suggestions: suggestions,
	}
}

// NewConfigError creates an error for configuration issues
func NewConfigError(operation, issue string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("configuration error: %s", issue),
		Suggestions: suggestions,
	}
}

// NewStoreError creates an error for store failures, describing the common
// sentinel errors in user terms
func NewStoreError(operation string, underlying error, suggestions ...string) *CLIError {
	cause := "store operation failed"
	details := ""

	if underlying != nil {
		details = underlying.Error()

		var parseErr *filter.ParseError
		switch {
		case errors.Is(underlying, types.ErrTagNotFound):
			cause = "tag not found"
			suggestions = append(suggestions, CommonSuggestions.CheckTags)
		case errors.Is(underlying, types.ErrScanNotFound):
			cause = "scan not found"
			suggestions = append(suggestions, CommonSuggestions.CheckScan)
		case errors.Is(underlying, types.ErrTagExists):
			cause = "tag already exists"
		case errors.Is(underlying, types.ErrScanExists):
			cause = "scan already exists"
		case errors.Is(underlying, types.ErrBuiltinTagReadOnly):
			cause = "builtin tags cannot be removed"
		case errors.Is(underlying, types.ErrNothingToUndo), errors.Is(underlying, types.ErrNothingToRedo):
			cause = "history is empty"
		case errors.Is(underlying, counttable.ErrNothingToDo):
			cause = "a count table needs at least two tags"
			suggestions = append(suggestions, "Pass the row tags first and the column tag last")
		case errors.As(underlying, &parseErr):
			cause = "invalid filter expression"
			suggestions = append(suggestions, filterSuggestions...)
		case errors.Is(underlying, filter.ErrInvalidLiteral), errors.Is(underlying, filter.ErrInvalidOperator):
			cause = "filter does not fit the tag type"
		case strings.Contains(strings.ToLower(details), "permission denied"):
			cause = "insufficient permissions to access the store"
		case strings.Contains(strings.ToLower(details), "failed to acquire lock"):
			cause = "store is currently locked by another process"
		}
	}

	return &CLIError{
		Operation:   operation,
		Cause:       cause,
		Details:     details,
		Suggestions: suggestions,
		Underlying:  underlying,
	}
}

var filterSuggestions = []string{
	`Reference tags in braces: {PatientName} == "P1"`,
	"Operators: == != < <= > >= IN CONTAINS, combined with AND, OR, NOT",
	"Parenthesize every comparison: (({A} == 1) AND ({B} == 2))",
}

// WrapError wraps an existing error with CLI-friendly context
func WrapError(operation string, err error, suggestions ...string) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		if cliErr.Operation == "" {
			cliErr.Operation = operation
		}
		return cliErr
	}
	return NewStoreError(operation, err, suggestions...)
}

// CommonSuggestions holds suggestion texts shared by several commands
var CommonSuggestions = struct {
	CheckDB     string
	CheckTags   string
	CheckScan   string
	CheckConfig string
	CheckPerms  string
	RunHelp     string
}{
	CheckDB:     "Verify --db points to a scanstore JSON file",
	CheckTags:   "Run 'scanstore tags list' to see the defined tags",
	CheckScan:   "Run 'scanstore list' to see the scan paths",
	CheckConfig: "Check your configuration file or environment variables",
	CheckPerms:  "Check file permissions and directory access",
	RunHelp:     "Run command with --help for usage information",
}
