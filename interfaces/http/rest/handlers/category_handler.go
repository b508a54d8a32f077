package handlers

import (
	"net/http"

	"chatapi/application/services"
	apperrors "chatapi/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	base
	categories *services.CategoryService
}

func NewCategoryHandler(categories *services.CategoryService, errs *apperrors.ErrorHandler, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{base: base{errs: errs, logger: logger}, categories: categories}
}

// ListCategories handles GET /categories?search=
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cursor, ok := h.cursor(w, r)
	if !ok {
		return
	}
	page, err := h.categories.List(r.Context(), r.URL.Query().Get("search"), cursor)
	h.respond(w, r, http.StatusOK, page, err)
}

// GetCategory handles GET /categories/{categoryID}
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	details, err := h.categories.Details(r.Context(), chi.URLParam(r, "categoryID"))
	h.respond(w, r, http.StatusOK, details, err)
}

// CreateCategory handles POST /categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req services.CreateCategoryInput
	if !h.decode(w, r, &req) {
		return
	}
	category, err := h.categories.Create(r.Context(), req)
	h.respond(w, r, http.StatusCreated, category, err)
}

// UpdateCategory handles PUT /categories/{categoryID}
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateCategoryInput
	if !h.decode(w, r, &req) {
		return
	}
	category, err := h.categories.Update(r.Context(), chi.URLParam(r, "categoryID"), req)
	h.respond(w, r, http.StatusOK, category, err)
}

// DeleteCategory handles DELETE /categories/{categoryID}. Its tags are
// removed first.
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.categories.Delete(r.Context(), chi.URLParam(r, "categoryID"))
	h.respond(w, r, http.StatusOK, category, err)
}
