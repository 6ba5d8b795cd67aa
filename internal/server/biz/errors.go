package biz

import (
	"errors"
	"fmt"

	"github.com/bk-med/kanban/internal/authz"
)

var (
	ErrInvalidJWT       = errors.New("invalid jwt token")
	ErrInvalidPassword  = errors.New("invalid username or password")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("invalid input")
	ErrDuplicate        = errors.New("already exists")
	ErrInternal         = errors.New("server internal error, please try again later")
)

// notFound reports a resource as missing. Absent rows and rows the caller
// may not read share this exact wording, so a probe learns nothing from the
// response body.
func notFound(kind authz.Kind) error {
	return fmt.Errorf("%s %w", kind, ErrNotFound)
}
