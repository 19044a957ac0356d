package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/todolist/apiserver/internal/services"
)

// AuthHandler provides token issuance endpoints.
type AuthHandler struct {
	tokens *services.TokenService
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(tokens *services.TokenService) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

// AuthRouter registers the token endpoints on the given router.
func AuthRouter(r chi.Router, tokens *services.TokenService) {
	handler := NewAuthHandler(tokens)

	r.Post("/token", handler.IssueToken)
	r.Post("/token/refresh", handler.RefreshToken)
}

// RequireAuth constructs middleware that enforces bearer authentication and
// attaches the resolved principal to the request context. Missing, malformed,
// expired, and unknown-subject tokens all fail identically with 401.
func RequireAuth(tokens *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			principal, err := tokens.Authenticate(r.Context(), tokenString)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextPrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IssueToken verifies credentials and returns an access/refresh token pair
// together with the username and first name of the authenticated user.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	user, pair, err := h.tokens.IssuePair(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		Access:   pair.Access,
		Refresh:  pair.Refresh,
		Username: user.Username,
		Name:     user.FirstName,
	})
}

// RefreshToken exchanges a valid refresh token for a new access token.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Refresh) == "" {
		writeError(w, http.StatusBadRequest, "missing refresh token")
		return
	}

	access, err := h.tokens.Refresh(r.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to refresh token")
		return
	}

	writeJSON(w, http.StatusOK, RefreshResponse{Access: access})
}

type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type RefreshResponse struct {
	Access string `json:"access"`
}
