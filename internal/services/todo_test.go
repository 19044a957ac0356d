package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/todolist/apiserver/internal/store"
	"github.com/todolist/apiserver/types"
)

type stubTodoRepo struct {
	todos  map[int]types.Todo
	nextID int
}

func newStubTodoRepo() *stubTodoRepo {
	return &stubTodoRepo{todos: make(map[int]types.Todo)}
}

func (r *stubTodoRepo) ListByOwner(ctx context.Context, ownerID, offset, limit int) ([]types.Todo, int, error) {
	var todos []types.Todo
	for _, todo := range r.todos {
		if todo.UserID == ownerID {
			todos = append(todos, todo)
		}
	}
	return todos, len(todos), nil
}

func (r *stubTodoRepo) GetByOwner(ctx context.Context, ownerID, id int) (types.Todo, error) {
	todo, ok := r.todos[id]
	if !ok || todo.UserID != ownerID {
		return types.Todo{}, store.ErrNotFound
	}
	return todo, nil
}

func (r *stubTodoRepo) Create(ctx context.Context, todo types.Todo) (types.Todo, error) {
	r.nextID++
	todo.ID = r.nextID
	now := time.Now()
	todo.CreatedAt = now
	todo.UpdatedAt = now
	r.todos[todo.ID] = todo
	return todo, nil
}

func (r *stubTodoRepo) Update(ctx context.Context, todo types.Todo) (types.Todo, error) {
	existing, ok := r.todos[todo.ID]
	if !ok || existing.UserID != todo.UserID {
		return types.Todo{}, store.ErrNotFound
	}
	existing.Task = todo.Task
	existing.Done = todo.Done
	existing.UpdatedAt = time.Now()
	r.todos[todo.ID] = existing
	return existing, nil
}

func (r *stubTodoRepo) SetAttachment(ctx context.Context, ownerID, id int, attachment types.Attachment) error {
	todo, ok := r.todos[id]
	if !ok || todo.UserID != ownerID {
		return store.ErrNotFound
	}
	todo.Attachment = attachment
	r.todos[id] = todo
	return nil
}

func (r *stubTodoRepo) Delete(ctx context.Context, ownerID, id int) error {
	todo, ok := r.todos[id]
	if !ok || todo.UserID != ownerID {
		return store.ErrNotFound
	}
	delete(r.todos, id)
	return nil
}

func TestCreateTodoStampsOwnerAndDefaults(t *testing.T) {
	svc := NewTodoService(newStubTodoRepo())
	ctx := context.Background()

	todo, err := svc.Create(ctx, 7, "  Buy milk  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if todo.UserID != 7 {
		t.Fatalf("owner not stamped: %+v", todo)
	}
	if todo.Task != "Buy milk" {
		t.Fatalf("task not trimmed: %q", todo.Task)
	}
	if todo.Done {
		t.Fatalf("done must default to false")
	}
	if todo.CreatedAt.IsZero() || todo.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", todo)
	}
}

func TestCreateTodoValidatesTask(t *testing.T) {
	svc := NewTodoService(newStubTodoRepo())
	ctx := context.Background()

	cases := []struct {
		name string
		task string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"too long", strings.Repeat("a", types.MaxTaskLength+1)},
	}
	for _, tc := range cases {
		_, err := svc.Create(ctx, 1, tc.task)
		verr, ok := AsValidationError(err)
		if !ok {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
		if verr.Field != "task" {
			t.Fatalf("%s: unexpected field %q", tc.name, verr.Field)
		}
	}

	if _, err := svc.Create(ctx, 1, strings.Repeat("a", types.MaxTaskLength)); err != nil {
		t.Fatalf("task at the bound rejected: %v", err)
	}
}

func TestUpdateTodoValidatesTask(t *testing.T) {
	repo := newStubTodoRepo()
	svc := NewTodoService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, "Buy milk")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Task = ""
	if _, err := svc.Update(ctx, created); err == nil {
		t.Fatalf("empty task accepted on update")
	}

	created.Task = "Buy oat milk"
	updated, err := svc.Update(ctx, created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Task != "Buy oat milk" {
		t.Fatalf("unexpected task: %q", updated.Task)
	}
}

func TestUpdateTodoScopedToOwner(t *testing.T) {
	repo := newStubTodoRepo()
	svc := NewTodoService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, "Buy milk")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	foreign := created
	foreign.UserID = 2
	if _, err := svc.Update(ctx, foreign); err != store.ErrNotFound {
		t.Fatalf("foreign update: got %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, 2, created.ID); err != store.ErrNotFound {
		t.Fatalf("foreign delete: got %v, want ErrNotFound", err)
	}
	if _, err := svc.Get(ctx, 2, created.ID); err != store.ErrNotFound {
		t.Fatalf("foreign get: got %v, want ErrNotFound", err)
	}
}
