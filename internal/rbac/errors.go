package rbac

import "errors"

// Domain errors for permissions and grants.
var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("rbac: not found")

	// ErrNameRequired indicates the permission name normalized to nothing.
	ErrNameRequired = errors.New("rbac: permission name required")
	// ErrGroupRequired indicates the group normalized to nothing.
	ErrGroupRequired = errors.New("rbac: permission group required")
	// ErrNameTooLong indicates a normalized name exceeding the column limit.
	ErrNameTooLong = errors.New("rbac: permission name too long")
	// ErrGroupTooLong indicates a normalized group exceeding the column limit.
	ErrGroupTooLong = errors.New("rbac: permission group too long")
	// ErrNameTaken indicates another permission already uses the normalized name.
	ErrNameTaken = errors.New("rbac: permission name already exists")
)

// MaxNameLen bounds normalized names and groups, mirroring the column size.
const MaxNameLen = 255
