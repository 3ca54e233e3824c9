/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package global

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a tool failure so callers can react without parsing messages.
type ErrorKind string

const (
	KindNotFound                 ErrorKind = "NotFound"
	KindTooLarge                 ErrorKind = "TooLarge"
	KindNoMatch                  ErrorKind = "NoMatch"
	KindAmbiguousMatch           ErrorKind = "AmbiguousMatch"
	KindNoHistory                ErrorKind = "NoHistory"
	KindInvalidWorkflowReference ErrorKind = "InvalidWorkflowReference"
	KindInvalidArgument          ErrorKind = "InvalidArgument"
	KindSchemaValidation         ErrorKind = "SchemaValidation"
	KindAccessDenied             ErrorKind = "AccessDenied"
	KindIOError                  ErrorKind = "IOError"
	KindInternal                 ErrorKind = "Internal"
)

// ToolError is the structured failure returned by every core operation.
// Field names the offending argument, Path the offending file (either may be empty).
type ToolError struct {
	Kind     ErrorKind
	Field    string
	Path     string
	Message  string
	Problems []string // every schema problem, SchemaValidation only
	Err      error
}

// Error renders the kind first so the agent can always see what went wrong.
func (e *ToolError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Problems) > 0 {
		for _, p := range e.Problems {
			b.WriteString("\n- ")
			b.WriteString(p)
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the underlying cause
func (e *ToolError) Unwrap() error {
	return e.Err
}

// NewError creates a ToolError with a fixed message
func NewError(kind ErrorKind, message string) *ToolError {
	return &ToolError{Kind: kind, Message: message}
}

// Errorf creates a ToolError with a formatted message
func Errorf(kind ErrorKind, format string, args ...interface{}) *ToolError {
	return &ToolError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapIO wraps a filesystem failure for path
func WrapIO(path, action string, err error) *ToolError {
	return &ToolError{
		Kind:    KindIOError,
		Path:    path,
		Message: fmt.Sprintf("failed to %s '%s'", action, path),
		Err:     err,
	}
}

// WithField sets the offending field and returns the error for chaining
func (e *ToolError) WithField(field string) *ToolError {
	e.Field = field
	return e
}

// WithPath sets the offending path and returns the error for chaining
func (e *ToolError) WithPath(path string) *ToolError {
	e.Path = path
	return e
}

// KindOf returns the kind of err. Errors that are not ToolErrors are Internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindInternal
}

// AsToolError converts any error into a ToolError, wrapping foreign errors as Internal.
func AsToolError(err error) *ToolError {
	if err == nil {
		return nil
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	return &ToolError{Kind: KindInternal, Message: "unexpected failure", Err: err}
}
