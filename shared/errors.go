package shared

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	ErrorCategoryValidation ErrorCategory = "validation"
	ErrorCategoryNotFound   ErrorCategory = "not_found"
	ErrorCategoryGateway    ErrorCategory = "gateway"
	ErrorCategoryConflict   ErrorCategory = "conflict"
	ErrorCategoryDatabase   ErrorCategory = "database"
)

// ServiceError represents a standardized error with additional context
type ServiceError struct {
	Category  ErrorCategory     `json:"category"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Operation string            `json:"operation,omitempty"`
	Cause     error             `json:"-"` // Original error, not serialized
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Category, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewServiceError creates a new service error
func NewServiceError(category ErrorCategory, message, operation string, cause error) *ServiceError {
	return &ServiceError{
		Category:  category,
		Message:   message,
		Timestamp: time.Now(),
		Operation: operation,
		Cause:     cause,
	}
}

// NewValidationError creates a validation error carrying per-field messages
func NewValidationError(fields map[string]string) *ServiceError {
	return &ServiceError{
		Category:  ErrorCategoryValidation,
		Message:   "validation failed",
		Fields:    fields,
		Timestamp: time.Now(),
	}
}

// NewNotFoundError creates a not-found error for a missing entity or
// missing workflow state
func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Category:  ErrorCategoryNotFound,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// IsNotFound reports whether err is a not-found service error
func IsNotFound(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Category == ErrorCategoryNotFound
}

// IsValidation reports whether err is a validation service error
func IsValidation(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Category == ErrorCategoryValidation
}

// LogError logs the error with structured fields
func (e *ServiceError) LogError() {
	logrus.WithFields(logrus.Fields{
		"error_category":   e.Category,
		"error_message":    e.Message,
		"operation":        e.Operation,
		"fields":           e.Fields,
		"underlying_error": e.Cause,
	}).Error("Service error occurred")
}
