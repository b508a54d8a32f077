package handlers

import (
	"net/http"

	"chatapi/application/services"
	apperrors "chatapi/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler handles account administration.
type UserHandler struct {
	base
	users   *services.UserService
	avatars avatars
}

func NewUserHandler(users *services.UserService, files *services.FileService, errs *apperrors.ErrorHandler, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		base:    base{errs: errs, logger: logger},
		users:   users,
		avatars: avatars{files: files, logger: logger},
	}
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	cursor, ok := h.cursor(w, r)
	if !ok {
		return
	}
	page, err := h.users.List(r.Context(), cursor)
	for i := range page.Items {
		h.avatars.sign(r.Context(), &page.Items[i])
	}
	h.respond(w, r, http.StatusOK, page, err)
}

// GetUser handles GET /users/{userID}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), chi.URLParam(r, "userID"))
	if err == nil {
		h.avatars.sign(r.Context(), user)
	}
	h.respond(w, r, http.StatusOK, user, err)
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserInput
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.users.Create(r.Context(), req)
	if err == nil {
		h.avatars.sign(r.Context(), user)
	}
	h.respond(w, r, http.StatusCreated, user, err)
}

// UpdateUser handles PUT /users/{userID}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateUserInput
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.users.Update(r.Context(), chi.URLParam(r, "userID"), req)
	if err == nil {
		h.avatars.sign(r.Context(), user)
	}
	h.respond(w, r, http.StatusOK, user, err)
}

// DeleteUser handles DELETE /users/{userID}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")
	err := h.users.Delete(r.Context(), id)
	h.respond(w, r, http.StatusOK, map[string]string{"id": id}, err)
}
