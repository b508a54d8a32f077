package handlers

import (
	"net/http"

	"chatapi/application/services"
	apperrors "chatapi/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MessageHandler handles the messages nested under a topic.
type MessageHandler struct {
	base
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService, errs *apperrors.ErrorHandler, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{base: base{errs: errs, logger: logger}, messages: messages}
}

// ListMessages handles GET /topics/{topicID}/messages
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	cursor, ok := h.cursor(w, r)
	if !ok {
		return
	}
	page, err := h.messages.List(r.Context(), ownerParam(r), chi.URLParam(r, "topicID"), cursor)
	h.respond(w, r, http.StatusOK, page, err)
}

// GetMessage handles GET /topics/{topicID}/messages/{messageID}
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := h.messages.Get(r.Context(), ownerParam(r), chi.URLParam(r, "topicID"), chi.URLParam(r, "messageID"))
	h.respond(w, r, http.StatusOK, msg, err)
}

// CreateMessage handles POST /topics/{topicID}/messages
func (h *MessageHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req services.CreateMessageInput
	if !h.decode(w, r, &req) {
		return
	}
	msg, err := h.messages.Create(r.Context(), ownerParam(r), chi.URLParam(r, "topicID"), req)
	h.respond(w, r, http.StatusCreated, msg, err)
}

// UpdateMessage handles PUT /topics/{topicID}/messages/{messageID}. Editing
// a user message drops every later message in the topic.
func (h *MessageHandler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateMessageInput
	if !h.decode(w, r, &req) {
		return
	}
	msg, err := h.messages.Update(r.Context(), ownerParam(r), chi.URLParam(r, "topicID"), chi.URLParam(r, "messageID"), req)
	h.respond(w, r, http.StatusOK, msg, err)
}

// DeleteMessage handles DELETE /topics/{topicID}/messages/{messageID}
func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "messageID")
	err := h.messages.Delete(r.Context(), ownerParam(r), chi.URLParam(r, "topicID"), id)
	h.respond(w, r, http.StatusOK, map[string]string{"id": id}, err)
}
