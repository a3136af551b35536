package service

import (
	"fmt"
	"sort"
)

// FieldError is a translatable message attached to a form field.
type FieldError struct {
	Key  string
	Args []any
}

// FieldErrors maps form field names to their first error.
type FieldErrors map[string]FieldError

// Add records an error for field unless one is already present.
func (e FieldErrors) Add(field, key string, args ...any) {
	if _, ok := e[field]; ok {
		return
	}
	e[field] = FieldError{Key: key, Args: args}
}

// Has reports whether field already carries an error.
func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Fields returns the failing field names in sorted order.
func (e FieldErrors) Fields() []string {
	names := make([]string, 0, len(e))
	for k := range e {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ValidationError carries field-level errors for form redisplay.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields.Fields())
}
