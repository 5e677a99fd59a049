package users

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, name, email, passwordHash string) (User, error)
	UpdateUser(ctx context.Context, id int64, name, email, passwordHash string) (User, error)
	DeleteUser(ctx context.Context, id int64) error
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)

	RoleOptions(ctx context.Context) ([]RoleOption, error)
	UserRoleNames(ctx context.Context, userID int64) ([]string, error)
	RoleIDsByNames(ctx context.Context, names []string) (map[string]int64, error)
	ReplaceUserRoles(ctx context.Context, userID int64, roleIDs []int64) error
}

// CreateInput carries validated fields for a new user.
type CreateInput struct {
	Name     string
	Email    string
	Password string
}

// UpdateInput carries validated fields for an update. A blank Password
// leaves the stored hash unchanged.
type UpdateInput struct {
	Name     string
	Email    string
	Password string
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser hashes the password and inserts the account. Emails are
// stored lowercased so uniqueness is case-insensitive.
func (s *Service) CreateUser(ctx context.Context, input CreateInput) (User, error) {
	email := normalizeEmail(input.Email)
	taken, err := s.repo.EmailTaken(ctx, email, 0)
	if err != nil {
		return User{}, err
	}
	if taken {
		return User{}, ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.CreateUser(ctx, strings.TrimSpace(input.Name), email, string(hash))
}

// UpdateUser overwrites mutable fields. Email uniqueness excludes the
// record's own id; a blank password leaves the hash untouched.
func (s *Service) UpdateUser(ctx context.Context, id int64, input UpdateInput) (User, error) {
	email := normalizeEmail(input.Email)
	taken, err := s.repo.EmailTaken(ctx, email, id)
	if err != nil {
		return User{}, err
	}
	if taken {
		return User{}, ErrEmailTaken
	}
	hash := ""
	if input.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		hash = string(hashed)
	}
	return s.repo.UpdateUser(ctx, id, strings.TrimSpace(input.Name), email, hash)
}

// DeleteUser removes the account; role assignments cascade away with it.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}

// RoleOptions lists assignable roles for the edit form.
func (s *Service) RoleOptions(ctx context.Context) ([]RoleOption, error) {
	return s.repo.RoleOptions(ctx)
}

// UserRoleNames returns the role names currently assigned to a user.
func (s *Service) UserRoleNames(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.UserRoleNames(ctx, userID)
}

// SyncRoles replaces the user's entire role set with the named roles.
// The policy is strict: a duplicate or unknown name rejects the whole
// request and no assignment changes. Syncing an empty list removes every
// role and is idempotent.
func (s *Service) SyncRoles(ctx context.Context, userID int64, roleNames []string) error {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(roleNames))
	names := make([]string, 0, len(roleNames))
	for _, raw := range roleNames {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			return ErrDuplicateRole
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	ids, err := s.repo.RoleIDsByNames(ctx, names)
	if err != nil {
		return err
	}
	var unknown []string
	roleIDs := make([]int64, 0, len(names))
	for _, name := range names {
		id, ok := ids[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		roleIDs = append(roleIDs, id)
	}
	if len(unknown) > 0 {
		return &UnknownRolesError{Names: unknown}
	}
	return s.repo.ReplaceUserRoles(ctx, userID, roleIDs)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
