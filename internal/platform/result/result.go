// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package result provides the shared {data, error} return convention.

Network-facing helpers in the client SDK never return a bare Go error to their
callers. Every outcome, success or failure, is carried by a [Result] whose Err
field is an [apperr.AppError]. The error's [apperr.Kind] tells the caller which
policy applies:

  - KindRecoverable: informational failure, degrade to the least restrictive state.
  - KindFatal: abort the operation and surface the error.
*/
package result

import "github.com/taibuivan/uservault/internal/platform/apperr"

// Result is the outcome of an operation that communicates failure as data.
type Result[T any] struct {
	Data T
	Err  *apperr.AppError
}

// OK wraps a successful value.
func OK[T any](data T) Result[T] {
	return Result[T]{Data: data}
}

// Fail wraps a fail-closed error. Unknown errors become [apperr.Internal].
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: apperr.From(err)}
}

// FailOpen wraps err as [apperr.KindRecoverable] while still returning the
// provided fallback value, so callers can proceed with a benign default.
func FailOpen[T any](fallback T, err error) Result[T] {
	return Result[T]{Data: fallback, Err: apperr.Recoverable(err)}
}

// IsOK reports whether the result carries no error.
func (r Result[T]) IsOK() bool {
	return r.Err == nil
}

// Unwrap converts the result back to Go's (value, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	if r.Err != nil {
		return r.Data, r.Err
	}
	return r.Data, nil
}

// Map transforms the data of a successful result. Failures pass through unchanged.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.Err != nil {
		var zero U
		return Result[U]{Data: zero, Err: r.Err}
	}
	return Result[U]{Data: fn(r.Data)}
}
