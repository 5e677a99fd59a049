package users

import "time"

// User represents a managed user account. Password hashes never leave the
// repository layer except through the auth module's login path.
type User struct {
	ID        int64
	Name      string
	Email     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoleOption is a role as offered on the assignment form.
type RoleOption struct {
	ID   int64
	Name string
}
