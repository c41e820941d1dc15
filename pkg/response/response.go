package response

import (
	"errors"
	"strings"
)

// Error is a domain failure that already knows its HTTP status.
type Error struct {
	Code int
	Slug string
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

// NewError builds an Error whose slug is derived from the message,
// e.g. "session not found" becomes SESSION_NOT_FOUND.
func NewError(code int, err string) error {
	return &Error{Code: code, Slug: slug(err), Err: errors.New(err)}
}

func NewCodedError(code int, slug string, err string) error {
	return &Error{Code: code, Slug: slug, Err: errors.New(err)}
}

func slug(msg string) string {
	return strings.ToUpper(strings.Join(strings.Fields(msg), "_"))
}
