package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/todolist/apiserver/internal/services"
	"github.com/todolist/apiserver/internal/store"
	"github.com/todolist/apiserver/types"
)

// GroupHandler provides HTTP handlers for groups. Any authenticated
// principal may read or edit any group.
type GroupHandler struct {
	groupService *services.GroupService
}

// NewGroupHandler constructs a handler with the provided service.
func NewGroupHandler(groupService *services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// GroupRouter registers group routes on the given router.
func GroupRouter(r chi.Router, groupService *services.GroupService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewGroupHandler(groupService)

	r.Use(authMiddleware)
	r.Get("/", handler.ListGroups)
	r.Post("/", handler.CreateGroup)
	r.Route("/{groupID}", func(r chi.Router) {
		r.Get("/", handler.GetGroup)
		r.Put("/", handler.UpdateGroup)
		r.Delete("/", handler.DeleteGroup)
	})
}

func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	groups, total, err := h.groupService.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list groups")
		return
	}

	items := make([]GroupResponse, 0, len(groups))
	for _, group := range groups {
		items = append(items, projectGroup(group))
	}

	writeJSON(w, http.StatusOK, GroupListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "groupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	group, err := h.groupService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch group")
		return
	}

	writeJSON(w, http.StatusOK, projectGroup(group))
}

func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req GroupUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	group, err := h.groupService.Create(r.Context(), types.Group{
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError, "failed to create group")
		return
	}

	writeJSON(w, http.StatusCreated, projectGroup(group))
}

func (h *GroupHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "groupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	var req GroupUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	group, err := h.groupService.Update(r.Context(), types.Group{
		ID:   id,
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		writeServiceError(w, err, http.StatusInternalServerError, "failed to update group")
		return
	}

	writeJSON(w, http.StatusOK, projectGroup(group))
}

func (h *GroupHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "groupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	if err := h.groupService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete group")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GroupResponse is the wire projection of a group.
type GroupResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GroupListResponse is the paginated list response payload.
type GroupListResponse struct {
	Items []GroupResponse `json:"items"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int             `json:"total"`
}

type GroupUpsertRequest struct {
	Name string `json:"name"`
}

func projectGroup(group types.Group) GroupResponse {
	return GroupResponse{
		ID:   group.ID,
		Name: group.Name,
	}
}
