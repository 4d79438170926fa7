package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atlantislabs/atlantis/internal/api"
	"github.com/atlantislabs/atlantis/internal/service"
)

type ChatService interface {
	HandleTurn(ctx context.Context, input service.ChatInput) (*service.ChatOutput, error)
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	Degraded  bool   `json:"degraded,omitempty"`
}

// Chat handles one chat turn. A missing session_id creates a new session
// whose id is returned with the reply.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Message == "" {
		api.Error(w, http.StatusBadRequest, "message is required")
		return
	}

	out, err := h.svc.HandleTurn(r.Context(), service.ChatInput{
		SessionID: req.SessionID,
		Message:   req.Message,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ChatResponse{
		SessionID: out.SessionID,
		Response:  out.Reply,
		Degraded:  out.Degraded,
	})
}
