package handlers

import (
	"net/http"

	"chatapi/application/repositories"
	"chatapi/application/services"
	apperrors "chatapi/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TopicHandler handles topic requests. Every route accepts ?userId= for
// administrators acting on another user's topics.
type TopicHandler struct {
	base
	topics *services.TopicService
}

func NewTopicHandler(topics *services.TopicService, errs *apperrors.ErrorHandler, logger *zap.Logger) *TopicHandler {
	return &TopicHandler{base: base{errs: errs, logger: logger}, topics: topics}
}

// ListTopics handles GET /topics?search=&pinned=&order=asc
func (h *TopicHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	pinned, err := optionalBool(r, "pinned")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	filter := repositories.TopicFilter{
		Search:    r.URL.Query().Get("search"),
		Pinned:    pinned,
		Ascending: r.URL.Query().Get("order") == "asc",
	}
	topics, err := h.topics.List(r.Context(), ownerParam(r), filter)
	h.respond(w, r, http.StatusOK, map[string]interface{}{"items": topics}, err)
}

// GetTopic handles GET /topics/{topicID}
func (h *TopicHandler) GetTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := h.topics.Get(r.Context(), ownerParam(r), chi.URLParam(r, "topicID"))
	h.respond(w, r, http.StatusOK, topic, err)
}

// CreateTopic handles POST /topics
func (h *TopicHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req services.CreateTopicInput
	if !h.decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		req.UserID = ownerParam(r)
	}
	topic, err := h.topics.Create(r.Context(), req)
	h.respond(w, r, http.StatusCreated, topic, err)
}

// UpdateTopic handles PUT /topics/{topicID}
func (h *TopicHandler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateTopicInput
	if !h.decode(w, r, &req) {
		return
	}
	topic, err := h.topics.Update(r.Context(), ownerParam(r), chi.URLParam(r, "topicID"), req)
	h.respond(w, r, http.StatusOK, topic, err)
}

// PinTopic handles POST /topics/{topicID}/pin
func (h *TopicHandler) PinTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := h.topics.Pin(r.Context(), ownerParam(r), chi.URLParam(r, "topicID"))
	h.respond(w, r, http.StatusOK, topic, err)
}

// UnpinTopic handles DELETE /topics/{topicID}/pin
func (h *TopicHandler) UnpinTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := h.topics.Unpin(r.Context(), ownerParam(r), chi.URLParam(r, "topicID"))
	h.respond(w, r, http.StatusOK, topic, err)
}

// DeleteTopic handles DELETE /topics/{topicID}
func (h *TopicHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := h.topics.Delete(r.Context(), ownerParam(r), chi.URLParam(r, "topicID"))
	h.respond(w, r, http.StatusOK, topic, err)
}
