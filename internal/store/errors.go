package store

import (
	"errors"
)

// ErrNotFound is returned when a row does not exist. Callers must not be
// able to tell a missing row apart from a row they may not read, so the
// service layer maps both to the same response.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a uniqueness rule is violated, e.g. a taken
// username or an existing roster entry.
var ErrDuplicate = errors.New("already exists")

// NotFound reports whether the error is an ErrNotFound.
func NotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicate reports whether the error is an ErrDuplicate.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
