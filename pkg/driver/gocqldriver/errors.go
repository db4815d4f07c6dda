// Copyright (C) 2025 ScyllaDB

package gocqldriver

import (
	"context"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
)

// Server error codes of the native protocol.
const (
	codeServerError   = 0x0000
	codeUnavailable   = 0x1000
	codeOverloaded    = 0x1001
	codeBootstrapping = 0x1002
	codeTruncate      = 0x1003
	codeWriteTimeout  = 0x1100
	codeReadTimeout   = 0x1200
)

// classify wraps a driver error as a database error, marking whether
// sending the request again may succeed.
func classify(err error, idempotent bool) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gocql.ErrSessionClosed) {
		return cqlerrors.Wrap(cqlerrors.KindSession, err, "driver session closed")
	}
	return cqlerrors.Database(err, retryable(err, idempotent))
}

func retryable(err error, idempotent bool) bool {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, gocql.ErrTimeoutNoResponse):
		return true
	case errors.Is(err, context.Canceled):
		return false
	}

	var (
		wt *gocql.RequestErrWriteTimeout
		rt *gocql.RequestErrReadTimeout
		un *gocql.RequestErrUnavailable
	)
	switch {
	case errors.As(err, &wt):
		return idempotent
	case errors.As(err, &rt), errors.As(err, &un):
		return true
	}

	var re gocql.RequestError
	if errors.As(err, &re) {
		switch re.Code() {
		case codeOverloaded, codeBootstrapping, codeUnavailable, codeReadTimeout, codeTruncate:
			return true
		case codeWriteTimeout:
			return idempotent
		}
	}
	return false
}
