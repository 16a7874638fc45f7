// Package apperr defines the error taxonomy surfaced by the catalog service:
// not-found, field-level validation failures, optimistic-concurrency conflicts
// and insufficient stock. Anything else is an internal fault.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindConcurrency
	KindInsufficientStock
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind   Kind
	Fields []FieldError
	Err    error // wrapped cause, optional
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s", e.Fields[0].Field, e.Fields[0].Message)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "internal error"
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(field, message string) *Error {
	return &Error{Kind: KindNotFound, Fields: []FieldError{{Field: field, Message: message}}}
}

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Fields: []FieldError{{Field: field, Message: message}}}
}

func ValidationFields(fields []FieldError) *Error {
	return &Error{Kind: KindValidation, Fields: fields}
}

func Concurrency(field, message string) *Error {
	return &Error{Kind: KindConcurrency, Fields: []FieldError{{Field: field, Message: message}}}
}

func InsufficientStock(field, message string) *Error {
	return &Error{Kind: KindInsufficientStock, Fields: []FieldError{{Field: field, Message: message}}}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf reports the taxonomy kind of err, KindInternal for anything that is
// not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// FieldsOf returns the field-level details carried by err, if any.
func FieldsOf(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

func IsNotFound(err error) bool          { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool        { return KindOf(err) == KindValidation }
func IsConcurrency(err error) bool       { return KindOf(err) == KindConcurrency }
func IsInsufficientStock(err error) bool { return KindOf(err) == KindInsufficientStock }
