package services

import (
	"errors"
	"fmt"
)

// ValidationError is a local precondition failure. It is raised before any
// network call and names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PermissionError is a local role, ownership or status gate failure. The
// server enforces the same rules; this only saves a round trip.
type PermissionError struct {
	Action string
	Reason string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("cannot %s: %s", e.Action, e.Reason)
}

// ErrIncompleteLogin is returned when a login reply lacks the credential or
// the identity; the session is left untouched.
var ErrIncompleteLogin = errors.New("login response did not include an access token and user")

// ErrNotSignedIn is returned by operations that need the current identity.
var ErrNotSignedIn = errors.New("not signed in")

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
