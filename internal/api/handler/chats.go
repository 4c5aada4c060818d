package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/reelforge/reelforge/internal/api/middleware"
	"github.com/reelforge/reelforge/internal/api/response"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/pkg/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxTitleLen      = 200
)

// NewCreateChatHandler returns an http.HandlerFunc for POST /api/v1/chats.
func NewCreateChatHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		var req struct {
			Title string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Title == "" {
			req.Title = "New video"
		}
		if len(req.Title) > maxTitleLen {
			req.Title = req.Title[:maxTitleLen]
		}

		chat := &models.Chat{
			ID:            uuid.New(),
			UserID:        userID,
			Title:         req.Title,
			WorkflowState: models.WorkflowStateDraft,
			CreatedAt:     time.Now().UTC(),
			UpdatedAt:     time.Now().UTC(),
		}
		if err := st.CreateChat(r.Context(), chat); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create chat", nil)
			return
		}

		response.Created(w, chat)
	}
}

// NewListChatsHandler returns an http.HandlerFunc for GET /api/v1/chats.
func NewListChatsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		filter := store.ChatFilter{Page: 1, Limit: defaultPageLimit}
		if p := queryInt(r, "page"); p > 0 {
			filter.Page = p
		}
		if l := queryInt(r, "limit"); l > 0 {
			filter.Limit = l
		}
		if filter.Limit > maxPageLimit {
			filter.Limit = maxPageLimit
		}
		if since := r.URL.Query().Get("since"); since != "" {
			t, err := time.Parse(time.RFC3339, since)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "since must be a valid RFC3339 timestamp", nil)
				return
			}
			filter.Since = t
		}

		chats, total, err := st.ListChatsByUser(r.Context(), userID, filter)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list chats", nil)
			return
		}

		response.Collection(w, chats, response.PaginationMeta{
			Page:    filter.Page,
			Limit:   filter.Limit,
			Total:   total,
			HasNext: filter.Page*filter.Limit < total,
		})
	}
}

// NewGetChatHandler returns an http.HandlerFunc for GET /api/v1/chats/{chatID}.
func NewGetChatHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, ok := requireChat(w, r, st)
		if !ok {
			return
		}
		response.JSON(w, chat)
	}
}

// requireChat parses {chatID}, loads the chat, and verifies the requesting
// user owns it. Ownership failures return 404 rather than 403 so chat IDs
// are not enumerable.
func requireChat(w http.ResponseWriter, r *http.Request, st store.Store) (*models.Chat, bool) {
	userID, ok := mw.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
		return nil, false
	}

	chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "chatID must be a valid UUID", nil)
		return nil, false
	}

	chat, err := st.GetChat(r.Context(), chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Chat not found", nil)
			return nil, false
		}
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load chat", nil)
		return nil, false
	}
	if chat.UserID != userID {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Chat not found", nil)
		return nil, false
	}
	return chat, true
}

func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}
