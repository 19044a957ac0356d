package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/todolist/apiserver/config"
	"github.com/todolist/apiserver/internal/events"
	"github.com/todolist/apiserver/internal/services"
	"github.com/todolist/apiserver/internal/storage"
	"github.com/todolist/apiserver/internal/store"
	"github.com/todolist/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

type memUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int]types.User)}
}

func (r *memUserRepo) List(ctx context.Context, offset, limit int) ([]types.User, int, error) {
	users := make([]types.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].DateJoined.Equal(users[j].DateJoined) {
			return users[i].ID < users[j].ID
		}
		return users[i].DateJoined.After(users[j].DateJoined)
	})
	return page(users, offset, limit), len(users), nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.nextID++
	user.ID = r.nextID
	now := time.Now()
	user.DateJoined = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type memTodoRepo struct {
	todos  map[int]types.Todo
	nextID int
}

func newMemTodoRepo() *memTodoRepo {
	return &memTodoRepo{todos: make(map[int]types.Todo)}
}

func (r *memTodoRepo) ListByOwner(ctx context.Context, ownerID, offset, limit int) ([]types.Todo, int, error) {
	todos := make([]types.Todo, 0, len(r.todos))
	for _, todo := range r.todos {
		if todo.UserID == ownerID {
			todos = append(todos, todo)
		}
	}
	sort.Slice(todos, func(i, j int) bool { return todos[i].ID < todos[j].ID })
	return page(todos, offset, limit), len(todos), nil
}

func (r *memTodoRepo) GetByOwner(ctx context.Context, ownerID, id int) (types.Todo, error) {
	todo, ok := r.todos[id]
	if !ok || todo.UserID != ownerID {
		return types.Todo{}, store.ErrNotFound
	}
	return todo, nil
}

func (r *memTodoRepo) Create(ctx context.Context, todo types.Todo) (types.Todo, error) {
	r.nextID++
	todo.ID = r.nextID
	now := time.Now()
	todo.CreatedAt = now
	todo.UpdatedAt = now
	r.todos[todo.ID] = todo
	return todo, nil
}

func (r *memTodoRepo) Update(ctx context.Context, todo types.Todo) (types.Todo, error) {
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

func (r *memTodoRepo) SetAttachment(ctx context.Context, ownerID, id int, attachment types.Attachment) error {
	todo, ok := r.todos[id]
	if !ok || todo.UserID != ownerID {
		return store.ErrNotFound
	}
	todo.Attachment = attachment
	todo.UpdatedAt = time.Now()
	r.todos[id] = todo
	return nil
}

func (r *memTodoRepo) Delete(ctx context.Context, ownerID, id int) error {
	todo, ok := r.todos[id]
	if !ok || todo.UserID != ownerID {
		return store.ErrNotFound
	}
	delete(r.todos, id)
	return nil
}

type memGroupRepo struct {
	groups map[int]types.Group
	nextID int
}

func newMemGroupRepo() *memGroupRepo {
	return &memGroupRepo{groups: make(map[int]types.Group)}
}

func (r *memGroupRepo) List(ctx context.Context, offset, limit int) ([]types.Group, int, error) {
	groups := make([]types.Group, 0, len(r.groups))
	for _, group := range r.groups {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return page(groups, offset, limit), len(groups), nil
}

func (r *memGroupRepo) Get(ctx context.Context, id int) (types.Group, error) {
	group, ok := r.groups[id]
	if !ok {
		return types.Group{}, store.ErrNotFound
	}
	return group, nil
}

func (r *memGroupRepo) Create(ctx context.Context, group types.Group) (types.Group, error) {
	r.nextID++
	group.ID = r.nextID
	r.groups[group.ID] = group
	return group, nil
}

func (r *memGroupRepo) Update(ctx context.Context, group types.Group) (types.Group, error) {
	if _, ok := r.groups[group.ID]; !ok {
		return types.Group{}, store.ErrNotFound
	}
	r.groups[group.ID] = group
	return group, nil
}

func (r *memGroupRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.groups[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.groups, id)
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

type memObjectStorage struct {
	objects      map[string][]byte
	contentTypes map[string]string
}

func newMemObjectStorage() *memObjectStorage {
	return &memObjectStorage{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

func (s *memObjectStorage) EnsureBucket(ctx context.Context) error { return nil }

func (s *memObjectStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	s.contentTypes[key] = contentType
	return nil
}

func (s *memObjectStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memObjectStorage) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	delete(s.contentTypes, key)
	return nil
}

type publishedMessage struct {
	Channel string
	Data    []byte
	Attrs   map[string]string
}

type memEventBackend struct {
	messages []publishedMessage
}

func (b *memEventBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.messages = append(b.messages, publishedMessage{Channel: channel, Data: data, Attrs: attrs})
	return "msg", nil
}

func (b *memEventBackend) Close() error { return nil }

type testEnv struct {
	router  *chi.Mux
	users   *memUserRepo
	todos   *memTodoRepo
	groups  *memGroupRepo
	objects *memObjectStorage
	broker  *memEventBackend
	tokens  *services.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:   newMemUserRepo(),
		todos:   newMemTodoRepo(),
		groups:  newMemGroupRepo(),
		objects: newMemObjectStorage(),
		broker:  &memEventBackend{},
	}

	jwtConfig := config.JWTConfig{
		Secret:     "test-secret",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
	env.tokens = services.NewTokenService(env.users, jwtConfig)

	userService := services.NewUserService(env.users)
	groupService := services.NewGroupService(env.groups)
	todoService := services.NewTodoService(env.todos)

	authMiddleware := RequireAuth(env.tokens)
	attachmentStorage := storage.NewStorage(env.objects)
	publisher := events.NewPublisher(env.broker, "todo-events")

	router := chi.NewRouter()
	AuthRouter(router, env.tokens)
	router.Route("/todos", func(r chi.Router) {
		TodoRouter(r, todoService, attachmentStorage, publisher, authMiddleware)
	})
	router.Route("/users", func(r chi.Router) {
		UserRouter(r, userService, authMiddleware)
	})
	router.Route("/groups", func(r chi.Router) {
		GroupRouter(r, groupService, authMiddleware)
	})

	env.router = router
	return env
}

func (e *testEnv) addUser(t *testing.T, username, password, firstName string, active bool) types.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := e.users.Create(context.Background(), types.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    firstName,
		PasswordHash: string(hashed),
		Active:       active,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (e *testEnv) token(t *testing.T, username, password string) string {
	t.Helper()

	_, pair, err := e.tokens.IssuePair(context.Background(), username, password)
	if err != nil {
		t.Fatalf("issue token for %s: %v", username, err)
	}
	return pair.Access
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	e.router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, value any) {
	t.Helper()

	if err := json.NewDecoder(recorder.Body).Decode(value); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func requireStatus(t *testing.T, recorder *httptest.ResponseRecorder, want int) {
	t.Helper()

	if recorder.Code != want {
		t.Fatalf("unexpected status %d (want %d): %s", recorder.Code, want, recorder.Body.String())
	}
}
