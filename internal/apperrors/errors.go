package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("not authorized")
	ErrInvalidGrant = errors.New("invalid share grant")
	ErrInvalidInput = errors.New("invalid input")
	ErrStore        = errors.New("store error")

	// ErrSelfDeletion is returned when a caller targets their own account.
	ErrSelfDeletion = fmt.Errorf("%w: cannot delete own account", ErrForbidden)
)

type storeError struct {
	err error
}

func (e *storeError) Error() string { return "store: " + e.err.Error() }

func (e *storeError) Unwrap() []error { return []error{ErrStore, e.err} }

// Store marks err as a persistence failure. Already classified errors pass
// through unchanged.
func Store(err error) error {
	if err == nil {
		return nil
	}
	if Classify(err) != KindStore || errors.Is(err, ErrStore) {
		return err
	}
	return &storeError{err: err}
}

// Kind is the small result taxonomy callers map to transport responses.
type Kind string

const (
	KindOK        Kind = "ok"
	KindNotFound  Kind = "not_found"
	KindForbidden Kind = "forbidden"
	KindInvalid   Kind = "invalid"
	KindStore     Kind = "store_error"
)

// Classify maps err onto Kind. Anything unrecognised is a store error.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrInvalidGrant), errors.Is(err, ErrInvalidInput):
		return KindInvalid
	default:
		return KindStore
	}
}
