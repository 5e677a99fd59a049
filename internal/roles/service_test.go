package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	roles     map[int64]Role
	nextID    int64
	users     map[int64]UserOption
	roleUsers map[int64][]int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		roles:     make(map[int64]Role),
		nextID:    1,
		users:     make(map[int64]UserOption),
		roleUsers: make(map[int64][]int64),
	}
}

func (m *mockRepository) ListRoles(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		r.UserCount = int64(len(m.roleUsers[r.ID]))
		out = append(out, r)
	}
	return out, nil
}

func (m *mockRepository) GetRole(ctx context.Context, id int64) (Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return Role{}, ErrNotFound
	}
	r.UserCount = int64(len(m.roleUsers[id]))
	return r, nil
}

func (m *mockRepository) CreateRole(ctx context.Context, name string, userIDs []int64) (Role, error) {
	for _, r := range m.roles {
		if r.Name == name {
			return Role{}, ErrNameTaken
		}
	}
	r := Role{ID: m.nextID, Name: name, UserCount: int64(len(userIDs))}
	m.roles[r.ID] = r
	m.roleUsers[r.ID] = append([]int64(nil), userIDs...)
	m.nextID++
	return r, nil
}

func (m *mockRepository) UpdateRole(ctx context.Context, id int64, name string) (Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return Role{}, ErrNotFound
	}
	r.Name = name
	m.roles[id] = r
	return r, nil
}

func (m *mockRepository) DeleteRole(ctx context.Context, id int64) error {
	if _, ok := m.roles[id]; !ok {
		return ErrNotFound
	}
	delete(m.roles, id)
	delete(m.roleUsers, id)
	return nil
}

func (m *mockRepository) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	for id, r := range m.roles {
		if id != excludeID && r.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) UserOptions(ctx context.Context) ([]UserOption, error) {
	out := make([]UserOption, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockRepository) ExistingUserIDs(ctx context.Context, ids []int64) ([]int64, error) {
	var found []int64
	for _, id := range ids {
		if _, ok := m.users[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

func TestCreateRoleNormalizesName(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	role, err := svc.CreateRole(context.Background(), "Support Team Lead", nil)
	require.NoError(t, err)
	assert.Equal(t, "support-team-lead", role.Name)
}

func TestCreateRoleRejectsNormalizedDuplicate(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.CreateRole(context.Background(), "Support Team Lead", nil)
	require.NoError(t, err)

	// Already-normalized spelling of the same name.
	_, err = svc.CreateRole(context.Background(), "support-team-lead", nil)
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestCreateRoleRequiresName(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.CreateRole(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestCreateRoleAssignsUsers(t *testing.T) {
	repo := newMockRepository()
	repo.users[1] = UserOption{ID: 1, Name: "Dana"}
	repo.users[2] = UserOption{ID: 2, Name: "Rae"}
	svc := NewService(repo)

	role, err := svc.CreateRole(context.Background(), "billing", []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), role.UserCount)
}

func TestCreateRoleRejectsUnknownUsers(t *testing.T) {
	repo := newMockRepository()
	repo.users[1] = UserOption{ID: 1, Name: "Dana"}
	svc := NewService(repo)

	_, err := svc.CreateRole(context.Background(), "billing", []int64{1, 99})
	var unknown *UnknownUsersError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []int64{99}, unknown.IDs)

	// Nothing was created.
	list, listErr := svc.ListRoles(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, list)
}

func TestCreateRoleRejectsDuplicateUserIDs(t *testing.T) {
	repo := newMockRepository()
	repo.users[1] = UserOption{ID: 1, Name: "Dana"}
	svc := NewService(repo)

	_, err := svc.CreateRole(context.Background(), "billing", []int64{1, 1})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestUpdateRoleExcludesSelf(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	role, err := svc.CreateRole(context.Background(), "Support Team Lead", nil)
	require.NoError(t, err)

	// Renaming to a different raw spelling of its own name succeeds.
	updated, err := svc.UpdateRole(context.Background(), role.ID, "Support Team Lead")
	require.NoError(t, err)
	assert.Equal(t, "support-team-lead", updated.Name)
}

func TestUpdateRoleRejectsOtherRoleName(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.CreateRole(context.Background(), "billing", nil)
	require.NoError(t, err)
	other, err := svc.CreateRole(context.Background(), "support", nil)
	require.NoError(t, err)

	_, err = svc.UpdateRole(context.Background(), other.ID, "Billing")
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestDeleteRoleUnknown(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	err := svc.DeleteRole(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
