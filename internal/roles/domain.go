package roles

import "time"

// Role represents a named grant bundle assignable to users.
type Role struct {
	ID        int64
	Name      string
	UserCount int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserOption is a selectable user shown on the role form.
type UserOption struct {
	ID   int64
	Name string
}
