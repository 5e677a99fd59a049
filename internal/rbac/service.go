package rbac

import (
	"context"
)

// RepositoryPort defines data access methods for permissions and grants.
type RepositoryPort interface {
	ListPermissions(ctx context.Context) ([]Permission, error)
	GetPermission(ctx context.Context, id int64) (Permission, error)
	CreatePermission(ctx context.Context, name, group string) (Permission, error)
	UpdatePermission(ctx context.Context, id int64, name, group string) (Permission, error)
	DeletePermission(ctx context.Context, id int64) error
	PermissionNameTaken(ctx context.Context, name string, excludeID int64) (bool, error)

	RoleExists(ctx context.Context, roleID int64) (bool, error)
	RolePermissionNames(ctx context.Context, roleID int64) ([]string, error)
	ReplaceRolePermissions(ctx context.Context, roleID int64, names []string) error
	EffectivePermissions(ctx context.Context, userID int64) ([]string, error)
}

// Service orchestrates permission management and grant resolution.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListPermissions returns all permissions ordered by group then name.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// PermissionsByGroup returns permissions bucketed by group, groups ordered.
func (s *Service) PermissionsByGroup(ctx context.Context) ([]PermissionGroup, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	var groups []PermissionGroup
	for _, p := range perms {
		if len(groups) == 0 || groups[len(groups)-1].Group != p.Group {
			groups = append(groups, PermissionGroup{Group: p.Group})
		}
		last := &groups[len(groups)-1]
		last.Permissions = append(last.Permissions, p)
	}
	return groups, nil
}

// Groups returns the distinct group names in order.
func (s *Service) Groups(ctx context.Context) ([]string, error) {
	byGroup, err := s.PermissionsByGroup(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(byGroup))
	for _, g := range byGroup {
		names = append(names, g.Group)
	}
	return names, nil
}

// GetPermission fetches a permission by ID.
func (s *Service) GetPermission(ctx context.Context, id int64) (Permission, error) {
	return s.repo.GetPermission(ctx, id)
}

// CreatePermission normalizes and inserts a new permission.
func (s *Service) CreatePermission(ctx context.Context, rawName, rawGroup string) (Permission, error) {
	name, group, err := s.normalize(ctx, rawName, rawGroup, 0)
	if err != nil {
		return Permission{}, err
	}
	return s.repo.CreatePermission(ctx, name, group)
}

// UpdatePermission normalizes and overwrites an existing permission.
// The uniqueness check excludes the permission's own id, so resubmitting
// the current name succeeds.
func (s *Service) UpdatePermission(ctx context.Context, id int64, rawName, rawGroup string) (Permission, error) {
	name, group, err := s.normalize(ctx, rawName, rawGroup, id)
	if err != nil {
		return Permission{}, err
	}
	return s.repo.UpdatePermission(ctx, id, name, group)
}

// DeletePermission removes a permission by ID.
func (s *Service) DeletePermission(ctx context.Context, id int64) error {
	return s.repo.DeletePermission(ctx, id)
}

// SyncRolePermissions replaces a role's grant set with the permissions
// named in names. Unknown names are silently dropped; the stored set after
// the call exactly matches the known subset of names, so syncing an empty
// list revokes everything and repeating a sync is a no-op.
func (s *Service) SyncRolePermissions(ctx context.Context, roleID int64, names []string) error {
	exists, err := s.repo.RoleExists(ctx, roleID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	// A name past the column limit can match no stored permission, so it
	// is dropped like any other unknown name.
	kept := make([]string, 0, len(names))
	for _, n := range names {
		if len(n) > MaxNameLen {
			continue
		}
		kept = append(kept, n)
	}
	return s.repo.ReplaceRolePermissions(ctx, roleID, kept)
}

// RolePermissionNames returns the names currently granted to a role.
func (s *Service) RolePermissionNames(ctx context.Context, roleID int64) ([]string, error) {
	return s.repo.RolePermissionNames(ctx, roleID)
}

// EffectivePermissions returns deduplicated permission names for a user.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.EffectivePermissions(ctx, userID)
}

func (s *Service) normalize(ctx context.Context, rawName, rawGroup string, excludeID int64) (name, group string, err error) {
	group = NormalizeGroup(rawGroup)
	if group == "" {
		return "", "", ErrGroupRequired
	}
	if len(group) > MaxNameLen {
		return "", "", ErrGroupTooLong
	}
	name = NormalizeAction(group, rawName)
	if name == "" {
		return "", "", ErrNameRequired
	}
	if len(name) > MaxNameLen {
		return "", "", ErrNameTooLong
	}
	// Advisory check for a friendly field error; the unique index still
	// catches concurrent inserts and the repository maps that to the
	// same ErrNameTaken.
	taken, err := s.repo.PermissionNameTaken(ctx, name, excludeID)
	if err != nil {
		return "", "", err
	}
	if taken {
		return "", "", ErrNameTaken
	}
	return name, group, nil
}
