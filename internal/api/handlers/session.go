package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/atlantislabs/atlantis/internal/api"
	"github.com/atlantislabs/atlantis/internal/domain"
	"github.com/atlantislabs/atlantis/internal/service"
	"github.com/go-chi/chi/v5"
)

type SessionService interface {
	Create(ctx context.Context) (*domain.Session, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
	List(ctx context.Context) ([]*domain.Session, error)
	Delete(ctx context.Context, id string) error
	ListMessages(ctx context.Context, input service.ListMessagesInput) (*service.ListMessagesOutput, error)
}

type SessionHandler struct {
	svc SessionService
}

func NewSessionHandler(svc SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type SessionResponse struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

type MessageResponse struct {
	ID        int64  `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type MessagePageResponse struct {
	Items   []*MessageResponse `json:"items"`
	Cursor  string             `json:"cursor,omitempty"`
	HasMore bool               `json:"has_more"`
}

func sessionToResponse(s *domain.Session) *SessionResponse {
	return &SessionResponse{
		ID:        s.ID,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

func messageToResponse(m *domain.ChatMessage) *MessageResponse {
	return &MessageResponse{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt.Format(time.RFC3339Nano),
	}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Create(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, sessionToResponse(sess))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	sess, err := h.svc.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, sessionToResponse(sess))
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*SessionResponse, len(sessions))
	for i, s := range sessions {
		resp[i] = sessionToResponse(s)
	}

	api.Success(w, http.StatusOK, resp)
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	if err := h.svc.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}

func (h *SessionHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	out, err := h.svc.ListMessages(r.Context(), service.ListMessagesInput{
		SessionID: id,
		Cursor:    r.URL.Query().Get("cursor"),
		Limit:     limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*MessageResponse, len(out.Items))
	for i, m := range out.Items {
		items[i] = messageToResponse(m)
	}

	api.Success(w, http.StatusOK, MessagePageResponse{
		Items:   items,
		Cursor:  out.Cursor,
		HasMore: out.HasMore,
	})
}
