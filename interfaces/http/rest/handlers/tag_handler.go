package handlers

import (
	"net/http"

	"chatapi/application/repositories"
	"chatapi/application/services"
	apperrors "chatapi/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TagHandler handles the global tag list.
type TagHandler struct {
	base
	tags *services.TagService
}

func NewTagHandler(tags *services.TagService, errs *apperrors.ErrorHandler, logger *zap.Logger) *TagHandler {
	return &TagHandler{base: base{errs: errs, logger: logger}, tags: tags}
}

// ListTags handles GET /tags?search=&categoryId=
func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	cursor, ok := h.cursor(w, r)
	if !ok {
		return
	}
	filter := repositories.TagFilter{
		Search:     r.URL.Query().Get("search"),
		CategoryID: r.URL.Query().Get("categoryId"),
	}
	page, err := h.tags.List(r.Context(), filter, cursor)
	h.respond(w, r, http.StatusOK, page, err)
}

// GetTag handles GET /tags/{tagID}, with its category and author resolved.
func (h *TagHandler) GetTag(w http.ResponseWriter, r *http.Request) {
	details, err := h.tags.Details(r.Context(), chi.URLParam(r, "tagID"))
	h.respond(w, r, http.StatusOK, details, err)
}

// CreateTag handles POST /tags
func (h *TagHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req services.CreateTagInput
	if !h.decode(w, r, &req) {
		return
	}
	tag, err := h.tags.Create(r.Context(), req)
	h.respond(w, r, http.StatusCreated, tag, err)
}

// UpdateTag handles PUT /tags/{tagID}
func (h *TagHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateTagInput
	if !h.decode(w, r, &req) {
		return
	}
	tag, err := h.tags.Update(r.Context(), chi.URLParam(r, "tagID"), req)
	h.respond(w, r, http.StatusOK, tag, err)
}

// DeleteTag handles DELETE /tags/{tagID}
func (h *TagHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	tag, err := h.tags.Delete(r.Context(), chi.URLParam(r, "tagID"))
	h.respond(w, r, http.StatusOK, tag, err)
}
