package ptyharness

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the core wraps exactly one of these,
// so callers can branch with errors.Is.
var (
	// ErrSetup reports PTY allocation, spawn, or filesystem preparation
	// failures.
	ErrSetup = errors.New("setup failed")

	// ErrIO reports a genuine read or write failure on the session streams,
	// as opposed to "no data yet".
	ErrIO = errors.New("i/o failure")

	// ErrTimeout reports a deadline that passed before the awaited event.
	ErrTimeout = errors.New("timed out")

	// ErrWait reports a failure while waiting on the child process.
	ErrWait = errors.New("wait failed")

	// ErrWouldBlock is returned by session readers when no output is
	// buffered. It is never returned as a failure by Collect.
	ErrWouldBlock = errors.New("no data available")
)

// Error is a harness failure with the operation that produced it.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
