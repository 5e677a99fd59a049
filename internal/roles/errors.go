package roles

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("roles: not found")
	ErrNameRequired  = errors.New("roles: name is required")
	ErrNameTooLong   = errors.New("roles: name exceeds maximum length")
	ErrNameTaken     = errors.New("roles: name already taken")
	ErrDuplicateUser = errors.New("roles: duplicate user in assignment")
)

// MaxNameLen bounds normalized role names.
const MaxNameLen = 255

// UnknownUsersError reports assignment ids that do not resolve to users.
type UnknownUsersError struct {
	IDs []int64
}

func (e *UnknownUsersError) Error() string {
	parts := make([]string, 0, len(e.IDs))
	for _, id := range e.IDs {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return "roles: unknown user ids: " + strings.Join(parts, ", ")
}
