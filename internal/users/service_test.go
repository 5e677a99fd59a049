package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockRepository struct {
	users  map[int64]User
	hashes map[int64]string
	nextID int64

	roles     map[string]int64
	userRoles map[int64][]int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:     make(map[int64]User),
		hashes:    make(map[int64]string),
		nextID:    1,
		roles:     make(map[string]int64),
		userRoles: make(map[int64][]int64),
	}
}

func (m *mockRepository) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockRepository) GetUser(ctx context.Context, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *mockRepository) CreateUser(ctx context.Context, name, email, passwordHash string) (User, error) {
	u := User{ID: m.nextID, Name: name, Email: email, IsActive: true}
	m.users[u.ID] = u
	m.hashes[u.ID] = passwordHash
	m.nextID++
	return u, nil
}

func (m *mockRepository) UpdateUser(ctx context.Context, id int64, name, email, passwordHash string) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	u.Name = name
	u.Email = email
	if passwordHash != "" {
		m.hashes[id] = passwordHash
	}
	m.users[id] = u
	return u, nil
}

func (m *mockRepository) DeleteUser(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	delete(m.hashes, id)
	delete(m.userRoles, id)
	return nil
}

func (m *mockRepository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	for id, u := range m.users {
		if id != excludeID && u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) RoleOptions(ctx context.Context) ([]RoleOption, error) {
	out := make([]RoleOption, 0, len(m.roles))
	for name, id := range m.roles {
		out = append(out, RoleOption{ID: id, Name: name})
	}
	return out, nil
}

func (m *mockRepository) UserRoleNames(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	for name, roleID := range m.roles {
		for _, assigned := range m.userRoles[userID] {
			if assigned == roleID {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

func (m *mockRepository) RoleIDsByNames(ctx context.Context, names []string) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, n := range names {
		if id, ok := m.roles[n]; ok {
			out[n] = id
		}
	}
	return out, nil
}

func (m *mockRepository) ReplaceUserRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	m.userRoles[userID] = append([]int64(nil), roleIDs...)
	return nil
}

func TestCreateUserHashesPasswordAndLowercasesEmail(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	user, err := svc.CreateUser(context.Background(), CreateInput{
		Name:     "Dana",
		Email:    "  Dana@Example.COM ",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", user.Email)

	hash := repo.hashes[user.ID]
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")))
}

func TestCreateUserEmailTakenCaseInsensitive(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.CreateUser(context.Background(), CreateInput{Name: "Dana", Email: "dana@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), CreateInput{Name: "Other", Email: "DANA@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdateUserBlankPasswordKeepsHash(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	user, err := svc.CreateUser(context.Background(), CreateInput{Name: "Dana", Email: "dana@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	originalHash := repo.hashes[user.ID]

	_, err = svc.UpdateUser(context.Background(), user.ID, UpdateInput{Name: "Dana Q", Email: "dana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, originalHash, repo.hashes[user.ID])

	_, err = svc.UpdateUser(context.Background(), user.ID, UpdateInput{Name: "Dana Q", Email: "dana@example.com", Password: "brand-new-pass"})
	require.NoError(t, err)
	assert.NotEqual(t, originalHash, repo.hashes[user.ID])
}

func TestUpdateUserEmailExcludesSelf(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	user, err := svc.CreateUser(context.Background(), CreateInput{Name: "Dana", Email: "dana@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	// Keeping one's own email is not a conflict.
	_, err = svc.UpdateUser(context.Background(), user.ID, UpdateInput{Name: "Dana", Email: "dana@example.com"})
	assert.NoError(t, err)
}

func TestSyncRolesStrictOnUnknownName(t *testing.T) {
	repo := newMockRepository()
	repo.roles["support-team-lead"] = 1
	svc := NewService(repo)

	user, err := svc.CreateUser(context.Background(), CreateInput{Name: "Dana", Email: "dana@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.NoError(t, svc.SyncRoles(context.Background(), user.ID, []string{"support-team-lead"}))

	err = svc.SyncRoles(context.Background(), user.ID, []string{"support-team-lead", "no-such-role"})
	var unknown *UnknownRolesError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"no-such-role"}, unknown.Names)

	// The previous assignment survives a rejected sync.
	names, err := svc.UserRoleNames(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"support-team-lead"}, names)
}

func TestSyncRolesRejectsDuplicates(t *testing.T) {
	repo := newMockRepository()
	repo.roles["admin"] = 1
	svc := NewService(repo)

	user, err := svc.CreateUser(context.Background(), CreateInput{Name: "Dana", Email: "dana@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	err = svc.SyncRoles(context.Background(), user.ID, []string{"admin", "admin"})
	assert.ErrorIs(t, err, ErrDuplicateRole)
}

func TestSyncRolesEmptyRemovesAll(t *testing.T) {
	repo := newMockRepository()
	repo.roles["admin"] = 1
	svc := NewService(repo)

	user, err := svc.CreateUser(context.Background(), CreateInput{Name: "Dana", Email: "dana@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.NoError(t, svc.SyncRoles(context.Background(), user.ID, []string{"admin"}))

	require.NoError(t, svc.SyncRoles(context.Background(), user.ID, nil))
	names, err := svc.UserRoleNames(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, names)

	// Repeating the empty sync stays empty.
	require.NoError(t, svc.SyncRoles(context.Background(), user.ID, nil))
}

func TestSyncRolesUnknownUser(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	err := svc.SyncRoles(context.Background(), 404, []string{"admin"})
	assert.ErrorIs(t, err, ErrNotFound)
}
