package handlers

import (
	"net/http"

	"chatapi/application/services"
	apperrors "chatapi/pkg/errors"

	"go.uber.org/zap"
)

// AuthHandler handles registration, login and the caller's own account.
type AuthHandler struct {
	base
	auth    *services.AuthService
	avatars avatars
}

func NewAuthHandler(auth *services.AuthService, files *services.FileService, errs *apperrors.ErrorHandler, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		base:    base{errs: errs, logger: logger},
		auth:    auth,
		avatars: avatars{files: files, logger: logger},
	}
}

// respondPayload signs the payload's avatar before writing it.
func (h *AuthHandler) respondPayload(w http.ResponseWriter, r *http.Request, status int, payload *services.AuthPayload, err error) {
	if err == nil {
		h.avatars.sign(r.Context(), payload.User)
	}
	h.respond(w, r, status, payload, err)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if !h.decode(w, r, &req) {
		return
	}
	payload, err := h.auth.Register(r.Context(), req)
	h.respondPayload(w, r, http.StatusCreated, payload, err)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	payload, err := h.auth.Login(r.Context(), req.Email, req.Password)
	h.respondPayload(w, r, http.StatusOK, payload, err)
}

// Viewer handles GET /auth/viewer
func (h *AuthHandler) Viewer(w http.ResponseWriter, r *http.Request) {
	payload, err := h.auth.Viewer(r.Context())
	h.respondPayload(w, r, http.StatusOK, payload, err)
}

// UpdateAccount handles PUT /auth/account
func (h *AuthHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateAccountInput
	if !h.decode(w, r, &req) {
		return
	}
	payload, err := h.auth.UpdateMyAccount(r.Context(), req)
	h.respondPayload(w, r, http.StatusOK, payload, err)
}
