package users

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for user management.
var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("users: not found")
	// ErrEmailTaken indicates another account already uses the email.
	ErrEmailTaken = errors.New("users: email already exists")
	// ErrDuplicateRole indicates the submitted role list repeats a name.
	ErrDuplicateRole = errors.New("users: duplicate role in selection")
)

// UnknownRolesError reports role names that match no stored role. Role
// assignment is strict: any unknown name rejects the whole sync.
type UnknownRolesError struct {
	Names []string
}

func (e *UnknownRolesError) Error() string {
	return fmt.Sprintf("users: unknown roles: %s", strings.Join(e.Names, ", "))
}
