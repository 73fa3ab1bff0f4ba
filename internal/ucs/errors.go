package ucs

import (
	"fmt"
	"strings"
)

// ErrorCategory represents different categories of operation errors.
type ErrorCategory string

const (
	ErrorCategoryConnection     ErrorCategory = "connection"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryServer         ErrorCategory = "server"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// OperationError is the single error kind raised by the administration layer.
// It carries the name of the operation that failed and a human-readable
// reason, plus the DN involved when one applies.
type OperationError struct {
	Operation string        // The operation that failed, e.g. "ldap_provider_modify"
	Category  ErrorCategory // Error category
	Reason    string        // Human-readable reason
	DN        string        // DN involved in the operation (if applicable)
	ErrorCode string        // Remote error code (if the server reported one)
	Retryable bool          // Whether the error is retryable
	Cause     error         // Underlying error
}

func (e *OperationError) Error() string {
	var parts []string

	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("%s failed", e.Operation))
	}

	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}

	if e.ErrorCode != "" {
		parts = append(parts, fmt.Sprintf("code %s", e.ErrorCode))
	}

	if e.DN != "" {
		parts = append(parts, fmt.Sprintf("DN: %s", e.DN))
	}

	return strings.Join(parts, " - ")
}

func (e *OperationError) IsRetryable() bool {
	return e.Retryable
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// GetCategory returns the error category.
func (e *OperationError) GetCategory() ErrorCategory {
	return e.Category
}

// NewOperationError creates an operation error with an explicit category.
func NewOperationError(operation string, category ErrorCategory, reason string) *OperationError {
	return &OperationError{
		Operation: operation,
		Category:  category,
		Reason:    reason,
	}
}

// NotFoundError creates a not_found operation error for the given DN.
func NotFoundError(operation, reason, dn string) *OperationError {
	return &OperationError{
		Operation: operation,
		Category:  ErrorCategoryNotFound,
		Reason:    reason,
		DN:        dn,
	}
}

// WrapError wraps an error with operation context.
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}

	if opErr, ok := err.(*OperationError); ok {
		// Already wrapped, just update operation if needed
		if opErr.Operation == "" {
			opErr.Operation = operation
		}
		return opErr
	}

	return &OperationError{
		Operation: operation,
		Category:  categorizeGenericError(err),
		Reason:    err.Error(),
		Retryable: isGenericErrorRetryable(err),
		Cause:     err,
	}
}

// categorizeGenericError categorizes errors by message content.
func categorizeGenericError(err error) ErrorCategory {
	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset") {
		return ErrorCategoryConnection
	}

	if strings.Contains(errStr, "authentication") ||
		strings.Contains(errStr, "credentials") ||
		strings.Contains(errStr, "password") ||
		strings.Contains(errStr, "session expired") {
		return ErrorCategoryAuthentication
	}

	if strings.Contains(errStr, "not found") ||
		strings.Contains(errStr, "does not exist") {
		return ErrorCategoryNotFound
	}

	return ErrorCategoryUnknown
}

// isGenericErrorRetryable determines if a generic error is retryable.
func isGenericErrorRetryable(err error) bool {
	errStr := strings.ToLower(err.Error())

	// Network and connection errors are typically retryable
	retryablePatterns := []string{
		"connection",
		"timeout",
		"network",
		"broken pipe",
		"connection reset",
		"temporary failure",
		"server temporarily unavailable",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsRetryableError checks if an error is retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if retryable, ok := err.(RetryableError); ok {
		return retryable.IsRetryable()
	}

	return isGenericErrorRetryable(err)
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	if opErr, ok := err.(*OperationError); ok {
		return opErr.GetCategory()
	}

	return categorizeGenericError(err)
}

// IsNotFoundError checks if an error indicates a "not found" condition.
func IsNotFoundError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryNotFound
}

// IsValidationError checks if an error indicates a validation problem.
func IsValidationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryValidation
}

// IsAuthenticationError checks if an error indicates an authentication problem.
func IsAuthenticationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryAuthentication
}
