package biz

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/hashicorp/go-multierror"
)

const (
	maxUsernameLength = 150
	minPasswordLength = 8
)

// fieldErrors accumulates per-field validation failures so a request with
// several bad fields reports all of them at once.
type fieldErrors struct {
	errs *multierror.Error
}

func (f *fieldErrors) Add(field, problem string) {
	f.errs = multierror.Append(f.errs, fmt.Errorf("%s: %s", field, problem))
}

// Err returns the collected failures wrapped as ErrValidation, or nil.
func (f *fieldErrors) Err() error {
	err := f.errs.ErrorOrNil()
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrValidation, err)
}

func validateUsername(f *fieldErrors, username string) {
	switch {
	case strings.TrimSpace(username) == "":
		f.Add("username", "is required")
	case len(username) > maxUsernameLength:
		f.Add("username", fmt.Sprintf("must be at most %d characters", maxUsernameLength))
	case strings.ContainsAny(username, " \t\n"):
		f.Add("username", "must not contain whitespace")
	}
}

func validateEmail(f *fieldErrors, email string) {
	if email == "" {
		f.Add("email", "is required")
		return
	}

	if _, err := mail.ParseAddress(email); err != nil {
		f.Add("email", "is not a valid address")
	}
}

func validatePassword(f *fieldErrors, password string) {
	if len(password) < minPasswordLength {
		f.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
}
