package services

import (
	"context"

	"github.com/todolist/apiserver/types"
)

// GroupRepository defines persistence operations for groups.
type GroupRepository interface {
	List(ctx context.Context, offset, limit int) ([]types.Group, int, error)
	Get(ctx context.Context, id int) (types.Group, error)
	Create(ctx context.Context, group types.Group) (types.Group, error)
	Update(ctx context.Context, group types.Group) (types.Group, error)
	Delete(ctx context.Context, id int) error
}

// GroupService encapsulates group use-cases.
type GroupService struct {
	repo GroupRepository
}

func NewGroupService(repo GroupRepository) *GroupService {
	return &GroupService{repo: repo}
}

func (s *GroupService) List(ctx context.Context, offset, limit int) ([]types.Group, int, error) {
	return s.repo.List(ctx, offset, clampLimit(limit))
}

func (s *GroupService) Get(ctx context.Context, id int) (types.Group, error) {
	return s.repo.Get(ctx, id)
}

func (s *GroupService) Create(ctx context.Context, group types.Group) (types.Group, error) {
	if group.Name == "" {
		return types.Group{}, &ValidationError{Field: "name", Message: "must not be empty"}
	}
	return s.repo.Create(ctx, group)
}

func (s *GroupService) Update(ctx context.Context, group types.Group) (types.Group, error) {
	if group.Name == "" {
		return types.Group{}, &ValidationError{Field: "name", Message: "must not be empty"}
	}
	return s.repo.Update(ctx, group)
}

func (s *GroupService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
