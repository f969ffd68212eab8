package expr

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

var (
	// ErrParse is the kind of every error caused by malformed expression text.
	ErrParse = errors.New("parse error")
	// ErrDivisionByZero is returned when the right operand of / is zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrInvalidOperation is returned when operands have unsupported types or
	// the result is not a number.
	ErrInvalidOperation = errors.New("invalid operation")
)

// Error describes a failure detected while parsing or evaluating an expression.
type Error struct {
	// Kind is one of ErrParse, ErrDivisionByZero or ErrInvalidOperation.
	Kind    error
	Detail  string
	Subject *hcl.Range
	// Diags holds the parser diagnostics for ErrParse, if any.
	Diags hcl.Diagnostics
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Subject != nil {
		msg = fmt.Sprintf("%s (at column %d)", msg, e.Subject.Start.Column)
	}
	return msg
}

// Unwrap exposes the kind and, for parse errors, the diagnostics.
func (e *Error) Unwrap() []error {
	if e.Diags.HasErrors() {
		return []error{e.Kind, e.Diags}
	}
	return []error{e.Kind}
}

func newError(kind error, subject *hcl.Range, format string, args ...any) *Error {
	return &Error{Kind: kind, Subject: subject, Detail: fmt.Sprintf(format, args...)}
}
