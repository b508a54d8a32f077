package handlers

import (
	"net/http"

	"chatapi/application/services"
	apperrors "chatapi/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PromptHandler struct {
	base
	prompts *services.PromptService
}

func NewPromptHandler(prompts *services.PromptService, errs *apperrors.ErrorHandler, logger *zap.Logger) *PromptHandler {
	return &PromptHandler{base: base{errs: errs, logger: logger}, prompts: prompts}
}

func (h *PromptHandler) ListPrompts(w http.ResponseWriter, r *http.Request) {
	cursor, ok := h.cursor(w, r)
	if !ok {
		return
	}
	page, err := h.prompts.List(r.Context(), ownerParam(r), cursor)
	h.respond(w, r, http.StatusOK, page, err)
}

func (h *PromptHandler) GetPrompt(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.prompts.Get(r.Context(), ownerParam(r), chi.URLParam(r, "promptID"))
	h.respond(w, r, http.StatusOK, prompt, err)
}

func (h *PromptHandler) CreatePrompt(w http.ResponseWriter, r *http.Request) {
	var req services.CreatePromptInput
	if !h.decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		req.UserID = ownerParam(r)
	}
	prompt, err := h.prompts.Create(r.Context(), req)
	h.respond(w, r, http.StatusCreated, prompt, err)
}

func (h *PromptHandler) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	var req services.UpdatePromptInput
	if !h.decode(w, r, &req) {
		return
	}
	prompt, err := h.prompts.Update(r.Context(), ownerParam(r), chi.URLParam(r, "promptID"), req)
	h.respond(w, r, http.StatusOK, prompt, err)
}

func (h *PromptHandler) DeletePrompt(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.prompts.Delete(r.Context(), ownerParam(r), chi.URLParam(r, "promptID"))
	h.respond(w, r, http.StatusOK, prompt, err)
}
