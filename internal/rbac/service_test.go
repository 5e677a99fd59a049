package rbac

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	permissions map[int64]Permission
	nextID      int64

	roles      map[int64]struct{}
	roleGrants map[int64][]string
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		permissions: make(map[int64]Permission),
		nextID:      1,
		roles:       make(map[int64]struct{}),
		roleGrants:  make(map[int64][]string),
	}
}

func (m *mockRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	out := make([]Permission, 0, len(m.permissions))
	for _, p := range m.permissions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *mockRepository) GetPermission(ctx context.Context, id int64) (Permission, error) {
	p, ok := m.permissions[id]
	if !ok {
		return Permission{}, ErrNotFound
	}
	return p, nil
}

func (m *mockRepository) CreatePermission(ctx context.Context, name, group string) (Permission, error) {
	for _, p := range m.permissions {
		if p.Name == name {
			return Permission{}, ErrNameTaken
		}
	}
	p := Permission{ID: m.nextID, Name: name, Group: group}
	m.permissions[p.ID] = p
	m.nextID++
	return p, nil
}

func (m *mockRepository) UpdatePermission(ctx context.Context, id int64, name, group string) (Permission, error) {
	if _, ok := m.permissions[id]; !ok {
		return Permission{}, ErrNotFound
	}
	for otherID, p := range m.permissions {
		if otherID != id && p.Name == name {
			return Permission{}, ErrNameTaken
		}
	}
	p := Permission{ID: id, Name: name, Group: group}
	m.permissions[id] = p
	return p, nil
}

func (m *mockRepository) DeletePermission(ctx context.Context, id int64) error {
	if _, ok := m.permissions[id]; !ok {
		return ErrNotFound
	}
	delete(m.permissions, id)
	return nil
}

func (m *mockRepository) PermissionNameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	for id, p := range m.permissions {
		if id != excludeID && p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) RoleExists(ctx context.Context, roleID int64) (bool, error) {
	_, ok := m.roles[roleID]
	return ok, nil
}

func (m *mockRepository) RolePermissionNames(ctx context.Context, roleID int64) ([]string, error) {
	return append([]string(nil), m.roleGrants[roleID]...), nil
}

func (m *mockRepository) ReplaceRolePermissions(ctx context.Context, roleID int64, names []string) error {
	known := make(map[string]struct{}, len(m.permissions))
	for _, p := range m.permissions {
		known[p.Name] = struct{}{}
	}
	var kept []string
	for _, n := range names {
		if _, ok := known[n]; ok {
			kept = append(kept, n)
		}
	}
	m.roleGrants[roleID] = kept
	return nil
}

func (m *mockRepository) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return nil, nil
}

func TestCreatePermissionNormalizes(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	perm, err := svc.CreatePermission(context.Background(), "view reports", "Users")
	require.NoError(t, err)
	assert.Equal(t, "users.viewReports", perm.Name)
	assert.Equal(t, "users", perm.Group)
}

func TestCreatePermissionRequiresGroupAndName(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.CreatePermission(context.Background(), "view", "  *** ")
	assert.ErrorIs(t, err, ErrGroupRequired)

	_, err = svc.CreatePermission(context.Background(), "   ", "users")
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestCreatePermissionRejectsNormalizedDuplicate(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.CreatePermission(context.Background(), "view reports", "users")
	require.NoError(t, err)

	// Different raw spelling, same canonical name.
	_, err = svc.CreatePermission(context.Background(), "View-Reports", "users")
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestUpdatePermissionExcludesSelf(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	perm, err := svc.CreatePermission(context.Background(), "view reports", "users")
	require.NoError(t, err)

	// Re-saving the same record under its own name must not collide.
	updated, err := svc.UpdatePermission(context.Background(), perm.ID, perm.Name, perm.Group)
	require.NoError(t, err)
	assert.Equal(t, perm.Name, updated.Name)
}

func TestPermissionsByGroupBuckets(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	for _, seed := range []struct{ name, group string }{
		{"view", "users"},
		{"create", "users"},
		{"view", "roles"},
	} {
		_, err := svc.CreatePermission(context.Background(), seed.name, seed.group)
		require.NoError(t, err)
	}

	groups, err := svc.PermissionsByGroup(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "roles", groups[0].Group)
	assert.Len(t, groups[0].Permissions, 1)
	assert.Equal(t, "users", groups[1].Group)
	assert.Len(t, groups[1].Permissions, 2)
}

func TestSyncRolePermissionsDropsUnknownNames(t *testing.T) {
	repo := newMockRepository()
	repo.roles[7] = struct{}{}
	svc := NewService(repo)

	_, err := svc.CreatePermission(context.Background(), "view", "users")
	require.NoError(t, err)

	err = svc.SyncRolePermissions(context.Background(), 7, []string{"users.view", "users.nonexistent"})
	require.NoError(t, err)

	names, err := svc.RolePermissionNames(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"users.view"}, names)
}

func TestSyncRolePermissionsDropsOverlongNames(t *testing.T) {
	repo := newMockRepository()
	repo.roles[7] = struct{}{}
	svc := NewService(repo)

	_, err := svc.CreatePermission(context.Background(), "view", "users")
	require.NoError(t, err)

	overlong := "users." + strings.Repeat("x", MaxNameLen)
	err = svc.SyncRolePermissions(context.Background(), 7, []string{"users.view", overlong})
	require.NoError(t, err)

	names, err := svc.RolePermissionNames(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"users.view"}, names)
}

func TestSyncRolePermissionsEmptyRevokesAll(t *testing.T) {
	repo := newMockRepository()
	repo.roles[7] = struct{}{}
	svc := NewService(repo)

	_, err := svc.CreatePermission(context.Background(), "view", "users")
	require.NoError(t, err)
	require.NoError(t, svc.SyncRolePermissions(context.Background(), 7, []string{"users.view"}))

	require.NoError(t, svc.SyncRolePermissions(context.Background(), 7, nil))

	names, err := svc.RolePermissionNames(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSyncRolePermissionsIdempotent(t *testing.T) {
	repo := newMockRepository()
	repo.roles[7] = struct{}{}
	svc := NewService(repo)

	_, err := svc.CreatePermission(context.Background(), "view", "users")
	require.NoError(t, err)

	require.NoError(t, svc.SyncRolePermissions(context.Background(), 7, []string{"users.view"}))
	first, err := svc.RolePermissionNames(context.Background(), 7)
	require.NoError(t, err)

	require.NoError(t, svc.SyncRolePermissions(context.Background(), 7, []string{"users.view"}))
	second, err := svc.RolePermissionNames(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSyncRolePermissionsUnknownRole(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	err := svc.SyncRolePermissions(context.Background(), 404, []string{"users.view"})
	assert.ErrorIs(t, err, ErrNotFound)
}
