package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/todolist/apiserver/types"
)

// TodoRepository defines persistence operations for todos. Owner scoping is
// part of the contract: lookups and mutations of existing rows require the
// owner id and must not match rows owned by anyone else.
type TodoRepository interface {
	ListByOwner(ctx context.Context, ownerID, offset, limit int) ([]types.Todo, int, error)
	GetByOwner(ctx context.Context, ownerID, id int) (types.Todo, error)
	Create(ctx context.Context, todo types.Todo) (types.Todo, error)
	Update(ctx context.Context, todo types.Todo) (types.Todo, error)
	SetAttachment(ctx context.Context, ownerID, id int, attachment types.Attachment) error
	Delete(ctx context.Context, ownerID, id int) error
}

// TodoService encapsulates todo use-cases and input validation.
type TodoService struct {
	repo TodoRepository
}

func NewTodoService(repo TodoRepository) *TodoService {
	return &TodoService{repo: repo}
}

func (s *TodoService) List(ctx context.Context, ownerID, offset, limit int) ([]types.Todo, int, error) {
	return s.repo.ListByOwner(ctx, ownerID, offset, clampLimit(limit))
}

func (s *TodoService) Get(ctx context.Context, ownerID, id int) (types.Todo, error) {
	return s.repo.GetByOwner(ctx, ownerID, id)
}

// Create stamps the todo with the given owner. Done always starts false.
func (s *TodoService) Create(ctx context.Context, ownerID int, task string) (types.Todo, error) {
	task = strings.TrimSpace(task)
	if err := validateTask(task); err != nil {
		return types.Todo{}, err
	}
	return s.repo.Create(ctx, types.Todo{
		UserID: ownerID,
		Task:   task,
		Done:   false,
	})
}

// Update persists task and done for an owned todo. The owner reference on
// the stored row never changes.
func (s *TodoService) Update(ctx context.Context, todo types.Todo) (types.Todo, error) {
	todo.Task = strings.TrimSpace(todo.Task)
	if err := validateTask(todo.Task); err != nil {
		return types.Todo{}, err
	}
	return s.repo.Update(ctx, todo)
}

func (s *TodoService) SetAttachment(ctx context.Context, ownerID, id int, attachment types.Attachment) error {
	return s.repo.SetAttachment(ctx, ownerID, id, attachment)
}

func (s *TodoService) Delete(ctx context.Context, ownerID, id int) error {
	return s.repo.Delete(ctx, ownerID, id)
}

func validateTask(task string) error {
	if task == "" {
		return &ValidationError{Field: "task", Message: "must not be empty"}
	}
	if utf8.RuneCountInString(task) > types.MaxTaskLength {
		return &ValidationError{Field: "task", Message: "must be at most 200 characters"}
	}
	return nil
}
