package authorityclient

import (
	"github.com/AntonStoeckl/library-inventory/core"
)

// Result is the outcome of one authority call: a value, or an error with its kind.
type Result[T any] struct {
	Value T
	Kind  core.ErrorKind
	Err   error
}

func ok[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

func failed[T any](err error) Result[T] {
	return Result[T]{Kind: core.KindOf(err), Err: err}
}

// Ok reports whether the call succeeded.
func (r Result[T]) Ok() bool {
	return r.Err == nil
}

// Unwrap returns the value and the error in the usual Go shape.
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}
