package trivia

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a category or question does not exist.
var ErrNotFound = errors.New("not found")

// Kind classifies failures into the client-facing taxonomy.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindNotFound
	KindUnprocessable
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindUnprocessable:
		return "unprocessable"
	default:
		return "internal"
	}
}

// Error is a classified failure raised by the service layer.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// classify maps a store error to a kind. Missing rows become NotFound and
// everything else takes the fallback kind of the calling operation.
func classify(op string, err error, fallback Kind) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	if errors.Is(err, ErrNotFound) {
		return newError(KindNotFound, op, err)
	}
	return newError(fallback, op, err)
}

// KindOf extracts the classification of err. Unclassified errors are Internal.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	return KindInternal
}
