package roles

import (
	"context"

	"github.com/stewardhq/steward/internal/rbac"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name string, userIDs []int64) (Role, error)
	UpdateRole(ctx context.Context, id int64, name string) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
	NameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	UserOptions(ctx context.Context) ([]UserOption, error)
	ExistingUserIDs(ctx context.Context, ids []int64) ([]int64, error)
}

// Service owns role business rules.
type Service struct {
	repo RepositoryPort
}

// NewService constructs the service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole normalizes the name and assigns the given users atomically.
// Every user id must be distinct and resolve to an existing user.
func (s *Service) CreateRole(ctx context.Context, rawName string, userIDs []int64) (Role, error) {
	name, err := s.normalize(ctx, rawName, 0)
	if err != nil {
		return Role{}, err
	}
	ids, err := s.validateUserIDs(ctx, userIDs)
	if err != nil {
		return Role{}, err
	}
	return s.repo.CreateRole(ctx, name, ids)
}

func (s *Service) UpdateRole(ctx context.Context, id int64, rawName string) (Role, error) {
	name, err := s.normalize(ctx, rawName, id)
	if err != nil {
		return Role{}, err
	}
	return s.repo.UpdateRole(ctx, id, name)
}

func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return s.repo.DeleteRole(ctx, id)
}

func (s *Service) UserOptions(ctx context.Context) ([]UserOption, error) {
	return s.repo.UserOptions(ctx)
}

func (s *Service) normalize(ctx context.Context, rawName string, excludeID int64) (string, error) {
	name := rbac.NormalizeRoleName(rawName)
	if name == "" {
		return "", ErrNameRequired
	}
	if len(name) > MaxNameLen {
		return "", ErrNameTooLong
	}
	taken, err := s.repo.NameTaken(ctx, name, excludeID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", ErrNameTaken
	}
	return name, nil
}

func (s *Service) validateUserIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, ErrDuplicateUser
		}
		seen[id] = struct{}{}
	}
	found, err := s.repo.ExistingUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		existing := make(map[int64]struct{}, len(found))
		for _, id := range found {
			existing[id] = struct{}{}
		}
		var missing []int64
		for _, id := range ids {
			if _, ok := existing[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, &UnknownUsersError{IDs: missing}
	}
	return ids, nil
}
