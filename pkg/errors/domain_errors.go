package custom_error

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError rejects a malformed payload before any mutation happens.
type ValidationError struct {
	Problems map[string]string
}

func NewValidationError(problems map[string]string) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Problems))
	for field := range e.Problems {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Problems[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NotFoundError signals an unknown id on retrieve, update or delete.
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}
