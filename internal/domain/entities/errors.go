package entities

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// NotFoundError reports a missing record by its identifier.
type NotFoundError struct {
	Resource string
	ID       int64
}

// NewTaskNotFoundError returns a NotFoundError for the task with the given id.
func NewTaskNotFoundError(id int64) *NotFoundError {
	return &NotFoundError{Resource: "Task", ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
}

// Is lets callers match any NotFoundError with errors.Is(err, ErrNotFound).
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// FieldError describes a single rejected input field.
type FieldError struct {
	// Location is where the field came from: "body", "query" or "path".
	Location string
	Field    string
	Message  string
	Type     string
}

// ValidationError carries every field that failed validation for one request.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(location, field, message, kind string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{
		Location: location,
		Field:    field,
		Message:  message,
		Type:     kind,
	}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s.%s: %s", f.Location, f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
