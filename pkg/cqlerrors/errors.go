// Copyright (C) 2025 ScyllaDB

// Package cqlerrors defines the error kinds reported by the query layer.
//
// Every error returned by the exported API is an *Error carrying a Kind.
// Callers match on kinds with errors.Is against the sentinels, for example
// errors.Is(err, cqlerrors.ErrBinding). ErrBase matches every kind and
// ErrDatabase also matches session errors.
package cqlerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// KindBase is the root kind, used for usage errors that fit no narrower kind.
	KindBase Kind = "error"
	// KindBinding reports placeholder and value conversion failures detected before I/O.
	KindBinding Kind = "binding error"
	// KindDatabase reports failures surfaced by the driver core.
	KindDatabase Kind = "database error"
	// KindSession reports use of a session outside its connected lifetime.
	KindSession Kind = "session error"
	// KindMapping reports row decoding failures.
	KindMapping Kind = "mapping error"
	// KindQueryBuilder reports builders lacking required state.
	KindQueryBuilder Kind = "query builder error"
)

// Sentinels for errors.Is.
var (
	ErrBase         = &Error{Kind: KindBase}
	ErrBinding      = &Error{Kind: KindBinding}
	ErrDatabase     = &Error{Kind: KindDatabase}
	ErrSession      = &Error{Kind: KindSession}
	ErrMapping      = &Error{Kind: KindMapping}
	ErrQueryBuilder = &Error{Kind: KindQueryBuilder}
)

// Error wraps an error with kind and human-friendly message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	// Retryable is set on database errors when sending the same request
	// again may succeed.
	Retryable bool
}

func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message == "":
		return string(e.Kind)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind, or of a kind e
// specializes.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" || t.Err != nil {
		return false
	}
	return e.Kind.Is(t.Kind)
}

// Is reports whether k equals other or specializes it.
func (k Kind) Is(other Kind) bool {
	switch {
	case k == other, other == KindBase:
		return true
	case k == KindSession && other == KindDatabase:
		return true
	default:
		return false
	}
}

func newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Usagef returns a base kind error.
func Usagef(format string, args ...any) error {
	return newf(KindBase, format, args...)
}

// Bindingf returns a binding error.
func Bindingf(format string, args ...any) error {
	return newf(KindBinding, format, args...)
}

// Sessionf returns a session error.
func Sessionf(format string, args ...any) error {
	return newf(KindSession, format, args...)
}

// Mappingf returns a mapping error.
func Mappingf(format string, args ...any) error {
	return newf(KindMapping, format, args...)
}

// QueryBuilderf returns a query builder error.
func QueryBuilderf(format string, args ...any) error {
	return newf(KindQueryBuilder, format, args...)
}

// Wrap annotates err with kind and message.
// If err already carries a kind it is kept as the cause.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Database wraps a driver error unchanged.
func Database(err error, retryable bool) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindDatabase, Err: err, Retryable: retryable}
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindBase when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindBase
}

// IsRetryable reports whether err is a database error marked retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
