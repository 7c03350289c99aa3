// AngelaMos | 2026
// handler.go

package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ltl-studio/backend/internal/core"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/conversations/{email}", h.ListConversations)
	r.Get("/messages/{conversationId}", h.ListMessages)
	r.Put("/messages/read/{conversationId}", h.MarkRead)
}

func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.service.ListConversations(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		core.BadRequest(w, err.Error())
		return
	}

	core.OK(w, ToConversationResponseList(convs))
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.service.ListMessages(r.Context(), chi.URLParam(r, "conversationId"))
	if err != nil {
		core.BadRequest(w, err.Error())
		return
	}

	core.OK(w, msgs)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.MarkRead(r.Context(), chi.URLParam(r, "conversationId")); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, MarkReadResponse{
		Success: true,
		Message: "Messages marked as read.",
	})
}
