package rbac

import "time"

// Permission represents an atomic capability, named group.action where the
// group half always equals the Group field.
type Permission struct {
	ID        int64
	Name      string
	Group     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PermissionGroup bundles the permissions sharing one group for display.
type PermissionGroup struct {
	Group       string
	Permissions []Permission
}
