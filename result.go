package kairo

import "fmt"

// Result is the two-variant outcome returned by every public operation: it
// either holds a value or an *Error, never both.
type Result[T any] struct {
	value T
	err   *Error
}

// Ok wraps a success value.
func Ok[T any](v T) Result[T] { return Result[T]{value: v} }

// Fail wraps a failure record. A nil err is replaced by a generic record so
// that a failed Result always carries one.
func Fail[T any](err *Error) Result[T] {
	if err == nil {
		err = NewError("", "unknown failure", nil)
	}
	return Result[T]{err: err}
}

// Failf is shorthand for Fail(NewError(op, fmt.Sprintf(...), ctx)).
func Failf[T any](op Op, ctx map[string]any, format string, args ...any) Result[T] {
	return Fail[T](NewError(op, fmt.Sprintf(format, args...), ctx))
}

// From adapts a (value, error) pair. Errors that are not already *Error are
// wrapped under op.
func From[T any](op Op, v T, err error) Result[T] {
	if err == nil {
		return Ok(v)
	}
	if e, ok := AsError(err); ok {
		return Fail[T](e)
	}
	return Fail[T](Errorf(op, err, nil, "%s", err.Error()))
}

func (r Result[T]) IsOk() bool  { return r.err == nil }
func (r Result[T]) IsErr() bool { return r.err != nil }

// Value returns the success value and whether the result is a success.
func (r Result[T]) Value() (T, bool) { return r.value, r.err == nil }

// Err returns the failure record, or nil on success.
func (r Result[T]) Err() *Error { return r.err }

// Unwrap converts the Result into the conventional (T, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}

// OrElse returns the value, or def when the result is a failure.
func (r Result[T]) OrElse(def T) T {
	if r.err != nil {
		return def
	}
	return r.value
}

// Must returns the value and panics on failure.
func (r Result[T]) Must() T {
	if r.err != nil {
		panic(r.err)
	}
	return r.value
}

func (r Result[T]) String() string {
	if r.err != nil {
		return "Err(" + r.err.Error() + ")"
	}
	return fmt.Sprintf("Ok(%v)", r.value)
}

// Map applies fn to a success value; failures pass through unchanged.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Fail[U](r.err)
	}
	return Ok(fn(r.value))
}

// Then chains a stage that itself returns a Result, short-circuiting on the
// first failure.
func Then[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Fail[U](r.err)
	}
	return fn(r.value)
}

// Guard runs fn and converts a panic escaping it into a failure under op.
// Public operations run their bodies through Guard so that no panic from a
// caller-supplied callback leaves the engine.
func Guard[T any](op Op, ctx map[string]any, fn func() Result[T]) (res Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			c := make(map[string]any, len(ctx)+1)
			for k, v := range ctx {
				c[k] = v
			}
			c["panic"] = p
			e := NewError(op, fmt.Sprintf("unexpected panic: %v", p), c)
			if err, ok := p.(error); ok {
				e.Cause = err
			}
			res = Fail[T](e)
		}
	}()
	return fn()
}
