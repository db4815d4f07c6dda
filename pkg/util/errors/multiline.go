// Copyright (C) 2025 ScyllaDB

package errors

import (
	"errors"
	"fmt"
	"strings"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

type aggregate struct {
	errList []error
	sep     string
}

var _ utilerrors.Aggregate = &aggregate{}

// NewAggregate drops nil errors and joins the rest with sep.
// It returns nil when no error is left.
func NewAggregate(errList []error, sep string) error {
	var errs []error

	for _, err := range errList {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return nil
	}

	if len(sep) == 0 {
		sep = "\n"
	}

	return &aggregate{
		errList: errs,
		sep:     sep,
	}
}

func NewMultilineAggregate(errList []error) error {
	return NewAggregate(errList, "\n")
}

// NewIndexedAggregate prefixes every non-nil error with its position in
// errList, so callers can tell which item of a sequence failed.
func NewIndexedAggregate(what string, errList []error) error {
	indexed := make([]error, len(errList))
	for i, err := range errList {
		if err != nil {
			indexed[i] = fmt.Errorf("%s %d: %w", what, i, err)
		}
	}
	return NewMultilineAggregate(indexed)
}

func (agg *aggregate) Error() string {
	msgs := make([]string, 0, len(agg.errList))

	for _, err := range agg.errList {
		msgs = append(msgs, err.Error())
	}

	return strings.Join(msgs, agg.sep)
}

func (agg *aggregate) Errors() []error {
	return agg.errList
}

func (agg *aggregate) Is(target error) bool {
	return agg.visit(func(err error) bool {
		return errors.Is(err, target)
	})
}

func (agg *aggregate) As(target any) bool {
	return agg.visit(func(err error) bool {
		return errors.As(err, target)
	})
}

func (agg *aggregate) visit(f func(err error) bool) bool {
	for _, err := range agg.errList {
		switch err := err.(type) {
		case *aggregate:
			if err.visit(f) {
				return true
			}

		case utilerrors.Aggregate:
			for _, nestedErr := range err.Errors() {
				if f(nestedErr) {
					return true
				}
			}

		default:
			if f(err) {
				return true
			}
		}
	}

	return false
}
