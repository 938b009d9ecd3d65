// Package errors provides structured errors for botctl with stable codes
// and a total mapping from code to user-presentable text. Internal codes
// never reach a human unmapped: unknown codes render through one generic
// fallback string.
package errors

import (
	"fmt"
)

// Category represents the part of the client an error originated in.
type Category string

const (
	CategoryRequest Category = "request"
	CategoryChannel Category = "channel"
	CategoryConfig  Category = "config"
	CategoryCLI     Category = "cli"
)

// Error is a structured error with a stable machine-readable code.
type Error struct {
	// Code is a unique error identifier (e.g. "timeout").
	Code string

	// Category is the originating subsystem.
	Category Category

	// Message is a short user-presentable description.
	Message string

	// Detail is optional context supplied at the error site, typically the
	// server-provided failure text.
	Detail string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Display returns the text shown to a human for this error: the registry
// string for the code, with the site-supplied detail appended when present.
func (e *Error) Display() string {
	text := Display(e.Code)
	if e.Detail != "" {
		return fmt.Sprintf("%s (%s)", text, e.Detail)
	}
	return text
}

// WithDetail attaches site-specific context and returns the error.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// WithCause attaches the underlying error and returns the error.
func (e *Error) WithCause(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error for a registered code. Unknown codes still produce a
// usable error backed by the fallback template, so every failure path has a
// display string.
func New(code string) *Error {
	tmpl, ok := registry[code]
	if !ok {
		tmpl = fallback
	}
	return &Error{
		Code:     code,
		Category: tmpl.Category,
		Message:  tmpl.Message,
	}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code string) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
