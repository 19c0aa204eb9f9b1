// Package apperr defines the error taxonomy shared by the stores and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCascadeIncomplete reports a cascading delete that may have left dependent rows behind.
var ErrCascadeIncomplete = errors.New("cascade delete incomplete")

// FieldError is one failing field and the reason it failed.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// NotFoundError is returned when an identifier does not resolve to a row.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

// NotFound builds a NotFoundError.
func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ForeignKeyError is returned when a referenced parent row does not exist.
type ForeignKeyError struct {
	Field  string
	Entity string
	ID     string
}

func (e *ForeignKeyError) Error() string {
	return fmt.Sprintf("%s %q does not reference an existing %s", e.Field, e.ID, strings.ToLower(e.Entity))
}

// PersistenceError wraps an engine failure. Its text is for logs only.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err as a PersistenceError unless it already belongs to the taxonomy.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsExpected(err) || errors.Is(err, ErrCascadeIncomplete) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsExpected reports whether err is a caller-facing outcome (validation, not found, foreign key).
func IsExpected(err error) bool {
	var ve *ValidationError
	var nf *NotFoundError
	var fk *ForeignKeyError
	return errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &fk)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
