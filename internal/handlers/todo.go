package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/todolist/apiserver/internal/events"
	"github.com/todolist/apiserver/internal/services"
	"github.com/todolist/apiserver/internal/storage"
	"github.com/todolist/apiserver/internal/store"
	"github.com/todolist/apiserver/types"
)

const (
	maxAttachmentMemory = 32 << 20
	maxAttachmentBytes  = 64 << 20
	formFieldFile       = "file"
)

// TodoHandler provides HTTP handlers for todos. Every operation resolves the
// principal from the request and passes it explicitly down to the service, so
// a caller can only ever see or touch its own rows.
type TodoHandler struct {
	todoService *services.TodoService
	storage     *storage.Storage
	publisher   *events.Publisher
}

// NewTodoHandler constructs a handler with the provided dependencies.
// Storage and publisher may be nil; attachments and event publication are
// disabled respectively.
func NewTodoHandler(todoService *services.TodoService, storage *storage.Storage, publisher *events.Publisher) *TodoHandler {
	return &TodoHandler{
		todoService: todoService,
		storage:     storage,
		publisher:   publisher,
	}
}

// TodoRouter registers todo routes on the given router.
func TodoRouter(
	r chi.Router,
	todoService *services.TodoService,
	storage *storage.Storage,
	publisher *events.Publisher,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewTodoHandler(todoService, storage, publisher)

	r.Use(authMiddleware)
	r.Get("/", handler.ListTodos)
	r.Post("/", handler.CreateTodo)
	r.Route("/{todoID}", func(r chi.Router) {
		r.Get("/", handler.GetTodo)
		r.Put("/", handler.UpdateTodo)
		r.Patch("/", handler.PatchTodo)
		r.Delete("/", handler.DeleteTodo)
		if handler.storage != nil {
			r.Put("/attachment", handler.UploadAttachment)
			r.Get("/attachment", handler.GetAttachment)
			r.Delete("/attachment", handler.DeleteAttachment)
		}
	})
}

func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	todos, total, err := h.todoService.List(r.Context(), principal.ID, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list todos")
		return
	}

	items := make([]TodoResponse, 0, len(todos))
	for _, todo := range todos {
		items = append(items, projectTodo(todo))
	}

	writeJSON(w, http.StatusOK, TodoListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	todo, err := h.todoService.Get(r.Context(), principal.ID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "todo not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch todo")
		return
	}

	writeJSON(w, http.StatusOK, projectTodo(todo))
}

func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req TodoCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	todo, err := h.todoService.Create(r.Context(), principal.ID, req.Task)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError, "failed to create todo")
		return
	}

	h.publish(r, events.TodoCreated, todo)
	writeJSON(w, http.StatusCreated, projectTodo(todo))
}

func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	var req TodoUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.todoService.Update(r.Context(), types.Todo{
		ID:     id,
		UserID: principal.ID,
		Task:   req.Task,
		Done:   req.Done,
	})
	if err != nil {
		h.writeTodoError(w, err, "failed to update todo")
		return
	}

	h.publish(r, events.TodoUpdated, updated)
	writeJSON(w, http.StatusOK, projectTodo(updated))
}

// PatchTodo applies a partial update. Fields absent from the body keep their
// stored values.
func (h *TodoHandler) PatchTodo(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	var req TodoPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	todo, err := h.todoService.Get(r.Context(), principal.ID, id)
	if err != nil {
		h.writeTodoError(w, err, "failed to fetch todo")
		return
	}

	if req.Task != nil {
		todo.Task = *req.Task
	}
	if req.Done != nil {
		todo.Done = *req.Done
	}

	updated, err := h.todoService.Update(r.Context(), todo)
	if err != nil {
		h.writeTodoError(w, err, "failed to update todo")
		return
	}

	h.publish(r, events.TodoUpdated, updated)
	writeJSON(w, http.StatusOK, projectTodo(updated))
}

func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	todo, err := h.todoService.Get(r.Context(), principal.ID, id)
	if err != nil {
		h.writeTodoError(w, err, "failed to fetch todo")
		return
	}

	if err := h.todoService.Delete(r.Context(), principal.ID, id); err != nil {
		h.writeTodoError(w, err, "failed to delete todo")
		return
	}

	if todo.HasAttachment() && h.storage != nil {
		if err := h.storage.Delete(r.Context(), todo.Attachment.ObjectKey); err != nil {
			log.Printf("failed to delete attachment object %s: %v", todo.Attachment.ObjectKey, err)
		}
	}

	h.publish(r, events.TodoDeleted, todo)
	w.WriteHeader(http.StatusNoContent)
}

// UploadAttachment stores a multipart file for an owned todo and records its
// metadata. Re-uploading replaces the previous object.
func (h *TodoHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	todo, err := h.todoService.Get(r.Context(), principal.ID, id)
	if err != nil {
		h.writeTodoError(w, err, "failed to fetch todo")
		return
	}

	if err := r.ParseMultipartForm(maxAttachmentMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	filename, contentType, data, err := parseAttachmentFile(r.MultipartForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	attachment := types.Attachment{
		ObjectKey:   fmt.Sprintf("todos/%d", todo.ID),
		Filename:    filename,
		ContentType: contentType,
	}

	if err := h.storage.Put(r.Context(), attachment.ObjectKey, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store attachment")
		return
	}

	if err := h.todoService.SetAttachment(r.Context(), principal.ID, id, attachment); err != nil {
		h.writeTodoError(w, err, "failed to record attachment")
		return
	}

	writeJSON(w, http.StatusOK, AttachmentResponse{
		Filename:    attachment.Filename,
		ContentType: attachment.ContentType,
	})
}

func (h *TodoHandler) GetAttachment(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	todo, err := h.todoService.Get(r.Context(), principal.ID, id)
	if err != nil {
		h.writeTodoError(w, err, "failed to fetch todo")
		return
	}
	if !todo.HasAttachment() {
		writeError(w, http.StatusNotFound, "attachment not found")
		return
	}

	reader, err := h.storage.Get(r.Context(), todo.Attachment.ObjectKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read attachment")
		return
	}
	defer reader.Close()

	contentType := todo.Attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", todo.Attachment.Filename))
	_, _ = io.Copy(w, reader)
}

func (h *TodoHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	todo, err := h.todoService.Get(r.Context(), principal.ID, id)
	if err != nil {
		h.writeTodoError(w, err, "failed to fetch todo")
		return
	}
	if !todo.HasAttachment() {
		writeError(w, http.StatusNotFound, "attachment not found")
		return
	}

	if err := h.storage.Delete(r.Context(), todo.Attachment.ObjectKey); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete attachment")
		return
	}
	if err := h.todoService.SetAttachment(r.Context(), principal.ID, id, types.Attachment{}); err != nil {
		h.writeTodoError(w, err, "failed to clear attachment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TodoResponse is the wire projection of a todo. Owner and timestamps are
// server-managed and never serialized.
type TodoResponse struct {
	ID   int    `json:"id"`
	Task string `json:"task"`
	Done bool   `json:"done"`
}

// TodoListResponse is the paginated list response payload.
type TodoListResponse struct {
	Items []TodoResponse `json:"items"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int            `json:"total"`
}

type TodoCreateRequest struct {
	Task string `json:"task"`
}

type TodoUpdateRequest struct {
	Task string `json:"task"`
	Done bool   `json:"done"`
}

type TodoPatchRequest struct {
	Task *string `json:"task"`
	Done *bool   `json:"done"`
}

type AttachmentResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

func projectTodo(todo types.Todo) TodoResponse {
	return TodoResponse{
		ID:   todo.ID,
		Task: todo.Task,
		Done: todo.Done,
	}
}

func (h *TodoHandler) principalAndID(w http.ResponseWriter, r *http.Request) (types.User, int, bool) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return types.User{}, 0, false
	}
	id, err := parseIDParam(r, "todoID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid todo id")
		return types.User{}, 0, false
	}
	return principal, id, true
}

func (h *TodoHandler) writeTodoError(w http.ResponseWriter, err error, fallbackMessage string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "todo not found")
		return
	}
	writeServiceError(w, err, http.StatusInternalServerError, fallbackMessage)
}

// publish emits a change event if a publisher is configured. Publication is
// best-effort and never fails the request.
func (h *TodoHandler) publish(r *http.Request, event string, todo types.Todo) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishTodo(r.Context(), event, todo); err != nil {
		log.Printf("failed to publish %s event for todo %d: %v", event, todo.ID, err)
	}
}

func parseAttachmentFile(form *multipart.Form) (filename, contentType string, data []byte, err error) {
	if form == nil {
		return "", "", nil, errors.New("missing form data")
	}

	files := form.File[formFieldFile]
	if len(files) == 0 {
		return "", "", nil, errors.New("file is required")
	}
	if len(files) > 1 {
		return "", "", nil, errors.New("only one file is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to read file: %w", err)
	}

	data, err = readFileLimited(file, maxAttachmentBytes)
	_ = file.Close()
	if err != nil {
		return "", "", nil, err
	}

	contentType = fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return fileHeader.Filename, contentType, data, nil
}
