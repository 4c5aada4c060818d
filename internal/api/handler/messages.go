package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/reelforge/reelforge/internal/api/response"
	"github.com/reelforge/reelforge/internal/brief"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/pkg/models"
)

const maxMessageLen = 8000

// Briefer defines the brief-conversation interface the handler depends on.
type Briefer interface {
	HandleMessage(ctx context.Context, chat *models.Chat, content, imageURL string) (*brief.MessageResult, error)
}

// NewPostMessageHandler returns an http.HandlerFunc for
// POST /api/v1/chats/{chatID}/messages.
func NewPostMessageHandler(st store.Store, svc Briefer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, ok := requireChat(w, r, st)
		if !ok {
			return
		}

		var req struct {
			Content  string `json:"content"`
			ImageURL string `json:"image_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Content == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "content is required", nil)
			return
		}
		if len(req.Content) > maxMessageLen {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "content exceeds maximum length", nil)
			return
		}

		result, err := svc.HandleMessage(r.Context(), chat, req.Content, req.ImageURL)
		if err != nil {
			switch {
			case errors.Is(err, brief.ErrChatInProduction):
				response.Error(w, http.StatusConflict, "CHAT_IN_PRODUCTION",
					"A video is currently in production for this chat", nil)
			case errors.Is(err, brief.ErrGenerationTimeout):
				response.Error(w, http.StatusGatewayTimeout, "GENERATION_TIMEOUT",
					"Brief generation timed out", nil)
			case errors.Is(err, brief.ErrProviderUnavailable), errors.Is(err, brief.ErrInvalidResponse):
				response.Error(w, http.StatusBadGateway, "PROVIDER_ERROR",
					"Brief generation failed", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"Failed to process message", nil)
			}
			return
		}

		response.Created(w, result)
	}
}

// NewListMessagesHandler returns an http.HandlerFunc for
// GET /api/v1/chats/{chatID}/messages.
func NewListMessagesHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, ok := requireChat(w, r, st)
		if !ok {
			return
		}

		msgs, err := st.ListMessagesByChat(r.Context(), chat.ID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list messages", nil)
			return
		}
		response.JSON(w, msgs)
	}
}
