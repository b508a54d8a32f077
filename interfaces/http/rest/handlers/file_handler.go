package handlers

import (
	"net/http"

	"chatapi/application/services"
	apperrors "chatapi/pkg/errors"

	"go.uber.org/zap"
)

// FileHandler hands out signed attachment URLs.
type FileHandler struct {
	base
	files *services.FileService
}

func NewFileHandler(files *services.FileService, errs *apperrors.ErrorHandler, logger *zap.Logger) *FileHandler {
	return &FileHandler{base: base{errs: errs, logger: logger}, files: files}
}

type UploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType,omitempty"`
	Prefix      string `json:"prefix,omitempty"`
}

// UploadURL handles POST /files/upload-url
func (h *FileHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	var req UploadURLRequest
	if !h.decode(w, r, &req) {
		return
	}
	ticket, err := h.files.PresignUpload(r.Context(), req.Filename, req.ContentType, req.Prefix)
	h.respond(w, r, http.StatusOK, ticket, err)
}

// DownloadURL handles GET /files/download-url?key=
func (h *FileHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	link, err := h.files.DownloadURL(r.Context(), r.URL.Query().Get("key"))
	h.respond(w, r, http.StatusOK, link, err)
}

// Content handles GET /files/content?key=
func (h *FileHandler) Content(w http.ResponseWriter, r *http.Request) {
	content, err := h.files.Content(r.Context(), r.URL.Query().Get("key"))
	h.respond(w, r, http.StatusOK, map[string]string{"content": content}, err)
}
