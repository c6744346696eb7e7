// Package apperr defines the error taxonomy surfaced by the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("not authorized to access this resource")
	ErrNotFound        = errors.New("resource not found")
	ErrValidation      = errors.New("validation error")

	// ErrConflict is a uniqueness violation; it is also an ErrValidation.
	ErrConflict = fmt.Errorf("%w: already exists", ErrValidation)
)

// Error carries a human readable detail for one of the sentinel kinds above.
type Error struct {
	Kind   error
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func (e *Error) Unwrap() error { return e.Kind }

func Unauthenticated(detail string) error { return &Error{Kind: ErrUnauthenticated, Detail: detail} }

func Forbidden(detail string) error { return &Error{Kind: ErrForbidden, Detail: detail} }

func NotFound(detail string) error { return &Error{Kind: ErrNotFound, Detail: detail} }

func Validation(detail string) error { return &Error{Kind: ErrValidation, Detail: detail} }

func Conflict(detail string) error { return &Error{Kind: ErrConflict, Detail: detail} }

// Status maps err onto an HTTP status code. Anything outside the taxonomy is a 500.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the message that is safe to show a client.
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	if Status(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}
