package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reelforge/reelforge/internal/api/response"
	"github.com/reelforge/reelforge/internal/lock"
	"github.com/reelforge/reelforge/internal/production"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/pkg/models"
)

// Producer defines the production-lifecycle interface the handlers depend on.
type Producer interface {
	StartProduction(ctx context.Context, chatID, userID uuid.UUID, brief, imageURL string) (uuid.UUID, error)
	RequestRevision(ctx context.Context, chatID, userID, parentVideoID uuid.UUID, brief, imageURL, feedback string) (uuid.UUID, error)
	Cancel(ctx context.Context, videoID, chatID, userID uuid.UUID, reason string) error
	ForceUnlock(ctx context.Context, chatID uuid.UUID, reason string) error
}

// BriefReader exposes the latest generated brief for a chat.
type BriefReader interface {
	LatestBrief(ctx context.Context, chatID uuid.UUID) (string, error)
}

// NewStartProductionHandler returns an http.HandlerFunc for
// POST /api/v1/chats/{chatID}/productions. It approves the latest brief
// and kicks off an initial production.
func NewStartProductionHandler(st store.Store, producer Producer, briefs BriefReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, ok := requireChat(w, r, st)
		if !ok {
			return
		}

		var req struct {
			ImageURL string `json:"image_url"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
				return
			}
		}

		if chat.WorkflowState != models.WorkflowStateAwaitingApproval {
			response.Error(w, http.StatusConflict, "INVALID_STATE",
				"Chat has no brief awaiting approval", nil)
			return
		}

		briefText, err := briefs.LatestBrief(r.Context(), chat.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusConflict, "INVALID_STATE", "No brief has been generated yet", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load brief", nil)
			return
		}

		videoID, err := producer.StartProduction(r.Context(), chat.ID, chat.UserID, briefText, req.ImageURL)
		if err != nil {
			writeProductionError(w, err)
			return
		}

		response.Accepted(w, map[string]any{
			"video_id": videoID,
			"status":   models.VideoStatusQueued,
		})
	}
}

// NewRevisionHandler returns an http.HandlerFunc for
// POST /api/v1/chats/{chatID}/revisions.
func NewRevisionHandler(st store.Store, producer Producer, briefs BriefReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, ok := requireChat(w, r, st)
		if !ok {
			return
		}

		var req struct {
			VideoID  string `json:"video_id"`
			Feedback string `json:"feedback"`
			ImageURL string `json:"image_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Feedback == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "feedback is required", nil)
			return
		}
		parentID, err := uuid.Parse(req.VideoID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "video_id must be a valid UUID", nil)
			return
		}

		parent, err := st.GetVideo(r.Context(), parentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Video not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load video", nil)
			return
		}
		if parent.ChatID != chat.ID {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Video not found", nil)
			return
		}
		if parent.Status != models.VideoStatusCompleted {
			response.Error(w, http.StatusConflict, "INVALID_STATE",
				"Only completed videos can be revised", nil)
			return
		}

		briefText, err := briefs.LatestBrief(r.Context(), chat.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load brief", nil)
			return
		}

		videoID, err := producer.RequestRevision(r.Context(), chat.ID, chat.UserID, parentID, briefText, req.ImageURL, req.Feedback)
		if err != nil {
			writeProductionError(w, err)
			return
		}

		response.Accepted(w, map[string]any{
			"video_id": videoID,
			"status":   models.VideoStatusQueued,
		})
	}
}

// NewCancelProductionHandler returns an http.HandlerFunc for
// POST /api/v1/chats/{chatID}/videos/{videoID}/cancel.
func NewCancelProductionHandler(st store.Store, producer Producer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, ok := requireChat(w, r, st)
		if !ok {
			return
		}
		video, ok := requireVideo(w, r, st, chat)
		if !ok {
			return
		}

		var req struct {
			Reason string `json:"reason"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
				return
			}
		}
		if req.Reason == "" {
			req.Reason = "cancelled by user"
		}

		if err := producer.Cancel(r.Context(), video.ID, chat.ID, chat.UserID, req.Reason); err != nil {
			if errors.Is(err, production.ErrAlreadyFinished) {
				response.Error(w, http.StatusConflict, "ALREADY_FINISHED",
					"Production already reached a terminal state", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to cancel production", nil)
			return
		}

		response.JSON(w, map[string]any{
			"video_id": video.ID,
			"status":   models.VideoStatusCancelled,
		})
	}
}

// NewGetVideoHandler returns an http.HandlerFunc for
// GET /api/v1/chats/{chatID}/videos/{videoID}.
func NewGetVideoHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, ok := requireChat(w, r, st)
		if !ok {
			return
		}
		video, ok := requireVideo(w, r, st, chat)
		if !ok {
			return
		}
		response.JSON(w, video)
	}
}

// NewListVideosHandler returns an http.HandlerFunc for
// GET /api/v1/chats/{chatID}/videos.
func NewListVideosHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, ok := requireChat(w, r, st)
		if !ok {
			return
		}
		videos, err := st.ListVideosByChat(r.Context(), chat.ID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list videos", nil)
			return
		}
		response.JSON(w, videos)
	}
}

// NewLockStatusHandler returns an http.HandlerFunc for
// GET /api/v1/chats/{chatID}/lock.
func NewLockStatusHandler(st store.Store, locks lock.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, ok := requireChat(w, r, st)
		if !ok {
			return
		}
		status, err := locks.Status(r.Context(), chat.ID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read lock status", nil)
			return
		}
		response.JSON(w, map[string]any{
			"is_locked": status.IsLocked,
			"reason":    status.Reason,
		})
	}
}

// NewForceUnlockHandler returns an http.HandlerFunc for
// POST /api/v1/admin/chats/{chatID}/force-unlock. Admin scope required;
// enforced by the router.
func NewForceUnlockHandler(st store.Store, producer Producer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "chatID must be a valid UUID", nil)
			return
		}
		if _, err := st.GetChat(r.Context(), chatID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Chat not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load chat", nil)
			return
		}

		var req struct {
			Reason string `json:"reason"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
				return
			}
		}
		if req.Reason == "" {
			req.Reason = "force released by operator"
		}

		if err := producer.ForceUnlock(r.Context(), chatID, req.Reason); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to release lock", nil)
			return
		}
		response.JSON(w, map[string]any{"released": true})
	}
}

func requireVideo(w http.ResponseWriter, r *http.Request, st store.Store, chat *models.Chat) (*models.Video, bool) {
	videoID, err := uuid.Parse(chi.URLParam(r, "videoID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "videoID must be a valid UUID", nil)
		return nil, false
	}
	video, err := st.GetVideo(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Video not found", nil)
			return nil, false
		}
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load video", nil)
		return nil, false
	}
	if video.ChatID != chat.ID {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Video not found", nil)
		return nil, false
	}
	return video, true
}

func writeProductionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, production.ErrChatLocked):
		response.Error(w, http.StatusLocked, "CHAT_LOCKED",
			"Another production is already running for this chat", nil)
	case errors.Is(err, production.ErrInsufficientCredits):
		response.Error(w, http.StatusPaymentRequired, "INSUFFICIENT_CREDITS",
			"Not enough credits for this production", nil)
	case errors.Is(err, production.ErrDispatchFailed):
		response.Error(w, http.StatusBadGateway, "PIPELINE_ERROR",
			"Render pipeline rejected the production request", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to start production", nil)
	}
}
