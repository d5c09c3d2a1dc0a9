package handler

import (
	"encoding/json"
	"net/http"

	"github.com/bankcards/card-service/internal/middleware"
	"github.com/bankcards/card-service/internal/models"
)

type createUserRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
}

// GetMe returns the caller's own user record.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	user, err := h.users.GetByID(r.Context(), identity.UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, user)
}

// GetAllUsers lists users. Admin only.
func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	if !identity.IsAdmin() {
		h.forbidden(w)
		return
	}
	page := pageFromRequest(r)
	users, total, err := h.users.GetAll(r.Context(), page)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, pageResponse(users, total, page))
}

// GetUser returns one user. Admin only.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	if !identity.IsAdmin() {
		h.forbidden(w)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, "invalid user id")
		return
	}
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, user)
}

// CreateUser registers a new user. Admin only.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	if !identity.IsAdmin() {
		h.forbidden(w)
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		h.badRequest(w, "username and password are required")
		return
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleUser {
		h.badRequest(w, "role must be ADMIN or USER")
		return
	}

	user, err := h.users.Create(r.Context(), req.Username, req.Password, req.Email, req.Role)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, user)
}

// EnableUser re-enables a user account. Admin only.
func (h *Handler) EnableUser(w http.ResponseWriter, r *http.Request) {
	h.setUserEnabled(w, r, true)
}

// DisableUser disables a user account. Admin only.
func (h *Handler) DisableUser(w http.ResponseWriter, r *http.Request) {
	h.setUserEnabled(w, r, false)
}

func (h *Handler) setUserEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	if !identity.IsAdmin() {
		h.forbidden(w)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, "invalid user id")
		return
	}
	user, err := h.users.SetEnabled(r.Context(), id, enabled)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, user)
}
