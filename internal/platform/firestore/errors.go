package firestore

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error is a Firestore failure classified by its gRPC status code.
type Error struct {
	Op   string
	Code codes.Code
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Temporary reports whether the same call may succeed if retried.
func (e *Error) Temporary() bool {
	switch e.Code {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted, codes.Internal:
		return true
	}
	return false
}

// WrapError tags err with op and its status code. Cancellation and deadline failures come back as
// the matching context errors so callers can test them with errors.Is.
func WrapError(op string, err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	code := status.Code(err)
	switch code {
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	}
	return &Error{Op: op, Code: code, Err: err}
}

// IsNotFound reports whether err is a missing document.
func IsNotFound(err error) bool {
	var fsErr *Error
	return errors.As(err, &fsErr) && fsErr.Code == codes.NotFound
}

// IsTemporary reports whether err is worth retrying.
func IsTemporary(err error) bool {
	var fsErr *Error
	return errors.As(err, &fsErr) && fsErr.Temporary()
}
