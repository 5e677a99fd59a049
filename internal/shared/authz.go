package shared

// Core admin permissions, named group.action. The group half always equals
// the permission's own group column.
const (
	PermUsersView        = "users.view"
	PermUsersCreate      = "users.create"
	PermUsersUpdate      = "users.update"
	PermUsersDelete      = "users.delete"
	PermUsersAssignRoles = "users.assignRoles"

	PermRolesView              = "roles.view"
	PermRolesCreate            = "roles.create"
	PermRolesUpdate            = "roles.update"
	PermRolesDelete            = "roles.delete"
	PermRolesAssignPermissions = "roles.assignPermissions"

	PermPermissionsView   = "permissions.view"
	PermPermissionsCreate = "permissions.create"
	PermPermissionsUpdate = "permissions.update"
	PermPermissionsDelete = "permissions.delete"
)

// SuperAdminRole is granted every defined permission by the seeder.
const SuperAdminRole = "super-admin"

// CatalogEntry pairs a permission name with its group for seeding.
type CatalogEntry struct {
	Name  string
	Group string
}

// PermissionCatalog lists every built-in permission.
func PermissionCatalog() []CatalogEntry {
	return []CatalogEntry{
		{Name: PermUsersView, Group: "users"},
		{Name: PermUsersCreate, Group: "users"},
		{Name: PermUsersUpdate, Group: "users"},
		{Name: PermUsersDelete, Group: "users"},
		{Name: PermUsersAssignRoles, Group: "users"},

		{Name: PermRolesView, Group: "roles"},
		{Name: PermRolesCreate, Group: "roles"},
		{Name: PermRolesUpdate, Group: "roles"},
		{Name: PermRolesDelete, Group: "roles"},
		{Name: PermRolesAssignPermissions, Group: "roles"},

		{Name: PermPermissionsView, Group: "permissions"},
		{Name: PermPermissionsCreate, Group: "permissions"},
		{Name: PermPermissionsUpdate, Group: "permissions"},
		{Name: PermPermissionsDelete, Group: "permissions"},
	}
}
