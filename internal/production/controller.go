// Package production owns the full lifecycle of video production jobs:
// admission (credits, chat lock), dispatch to the render pipeline, status
// polling with per-kind grace windows and hard timeouts, user-initiated
// cancellation, and the at-most-once credit refund that timeout and
// cancellation both require.
package production

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lthibault/jitterbug/v2"
	"github.com/reelforge/reelforge/internal/config"
	"github.com/reelforge/reelforge/internal/lock"
	"github.com/reelforge/reelforge/internal/render"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/pkg/models"
)

// ErrChatLocked is returned when the chat has a live production, or when
// another admission holds the chat lock. The caller may escalate with a
// force release.
var ErrChatLocked = errors.New("chat is locked by another production")

// ErrInsufficientCredits mirrors the store sentinel so callers only need
// this package's errors for admission failures.
var ErrInsufficientCredits = store.ErrInsufficientCredits

// ErrDispatchFailed is returned when the render pipeline rejects or never
// receives the start request. The start has already been rolled back.
var ErrDispatchFailed = errors.New("render pipeline dispatch failed")

// ErrAlreadyFinished is returned by Cancel when the video was terminal
// before the cancellation arrived.
var ErrAlreadyFinished = errors.New("production already finished")

const lockReason = "video production in progress"

// Notifier is the user-facing notification sink (toasts in the web UI).
// Implementations must tolerate being called from multiple goroutines.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Error(string)   {}
func (NopNotifier) Info(string)    {}

// SlogNotifier writes notifications to the default slog logger.
type SlogNotifier struct{}

func (SlogNotifier) Success(msg string) { slog.Info("notify", "kind", "success", "msg", msg) }
func (SlogNotifier) Error(msg string)   { slog.Warn("notify", "kind", "error", "msg", msg) }
func (SlogNotifier) Info(msg string)    { slog.Info("notify", "kind", "info", "msg", msg) }

// Profile is the cost and timing policy for one production kind.
type Profile struct {
	Cost    int
	Grace   time.Duration
	Poll    time.Duration
	Timeout time.Duration
}

// Controller drives production jobs from creation through terminal
// resolution. One watcher goroutine runs per in-flight video; the
// finished set is the terminal guard that makes completion, failure,
// timeout and cancellation mutually exclusive per video.
type Controller struct {
	store  store.Store
	lock   lock.Service
	render render.Client
	notify Notifier
	cfg    config.ProductionConfig

	// OnUpdate fires after any chat state change; OnCreditsChanged after
	// any debit or refund. Both are optional.
	OnUpdate         func(chatID uuid.UUID)
	OnCreditsChanged func(userID uuid.UUID)

	mu       sync.Mutex
	watchers map[uuid.UUID]context.CancelFunc
	finished map[uuid.UUID]bool
	wg       sync.WaitGroup
}

// NewController creates a Controller. notify may be nil.
func NewController(st store.Store, lk lock.Service, rc render.Client, notify Notifier, cfg config.ProductionConfig) *Controller {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Controller{
		store:    st,
		lock:     lk,
		render:   rc,
		notify:   notify,
		cfg:      cfg,
		watchers: make(map[uuid.UUID]context.CancelFunc),
		finished: make(map[uuid.UUID]bool),
	}
}

func (c *Controller) profile(kind models.VideoKind) Profile {
	if kind == models.VideoKindRevision {
		return Profile{
			Cost:    c.cfg.RevisionCost,
			Grace:   c.cfg.RevisionGrace,
			Poll:    c.cfg.RevisionPoll,
			Timeout: c.cfg.RevisionTimeout,
		}
	}
	return Profile{
		Cost:    c.cfg.InitialCost,
		Grace:   c.cfg.InitialGrace,
		Poll:    c.cfg.InitialPoll,
		Timeout: c.cfg.InitialTimeout,
	}
}

// StartProduction runs the full admission-and-dispatch sequence for an
// initial production. Returns the new video's id. The returned errors a
// caller needs to branch on are ErrInsufficientCredits and ErrChatLocked;
// everything else is already handled (rolled back) internally.
func (c *Controller) StartProduction(ctx context.Context, chatID, userID uuid.UUID, brief, imageURL string) (uuid.UUID, error) {
	return c.start(ctx, startParams{
		ChatID:   chatID,
		UserID:   userID,
		Kind:     models.VideoKindInitial,
		Brief:    brief,
		ImageURL: imageURL,
	})
}

// RequestRevision dispatches a revision job. parentVideoID is recorded
// for traceability only and plays no part in state transitions.
func (c *Controller) RequestRevision(ctx context.Context, chatID, userID, parentVideoID uuid.UUID, brief, imageURL, feedback string) (uuid.UUID, error) {
	return c.start(ctx, startParams{
		ChatID:        chatID,
		UserID:        userID,
		Kind:          models.VideoKindRevision,
		ParentVideoID: &parentVideoID,
		Brief:         brief,
		ImageURL:      imageURL,
		Feedback:      feedback,
	})
}

type startParams struct {
	ChatID        uuid.UUID
	UserID        uuid.UUID
	Kind          models.VideoKind
	ParentVideoID *uuid.UUID
	Brief         string
	ImageURL      string
	Feedback      string
}

func (c *Controller) start(ctx context.Context, p startParams) (uuid.UUID, error) {
	profile := c.profile(p.Kind)

	// Admission gates on the chat record before it touches the lock. A
	// held lock is only stale when the store shows no live production
	// behind it; releasing on the lock's say-so alone would delete the
	// lock of a job that is still running.
	chat, err := c.store.GetChat(ctx, p.ChatID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load chat: %w", err)
	}
	if c.productionLive(ctx, chat) {
		return uuid.Nil, ErrChatLocked
	}

	st, err := c.lock.Status(ctx, p.ChatID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("lock status: %w", err)
	}
	if st.IsLocked {
		// No live production behind it, so a previous session leaked the
		// lock. Release once and re-check; still locked means another
		// admission beat us to it.
		if err := c.lock.Release(ctx, p.ChatID); err != nil {
			slog.Warn("lock release during admission failed", "chat_id", p.ChatID, "error", err)
		}
		st, err = c.lock.Status(ctx, p.ChatID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("lock status: %w", err)
		}
		if st.IsLocked {
			return uuid.Nil, ErrChatLocked
		}
	}

	// Hold the lock for the job's worst-case lifetime plus slack; the
	// terminal paths release it earlier in the normal case.
	if err := c.lock.Acquire(ctx, p.ChatID, lockReason, profile.Timeout+time.Minute); err != nil {
		if errors.Is(err, lock.ErrAlreadyLocked) {
			return uuid.Nil, ErrChatLocked
		}
		return uuid.Nil, fmt.Errorf("acquire lock: %w", err)
	}

	// Re-read under the lock: a concurrent start may have admitted
	// between our first read and the acquire.
	chat, err = c.store.GetChat(ctx, p.ChatID)
	if err != nil {
		c.releaseLock(ctx, p.ChatID)
		return uuid.Nil, fmt.Errorf("load chat: %w", err)
	}
	if c.productionLive(ctx, chat) {
		c.releaseLock(ctx, p.ChatID)
		return uuid.Nil, ErrChatLocked
	}
	prevState := chat.WorkflowState

	// Debit before any record exists; every failure path after this
	// refunds exactly once.
	if err := c.store.DebitCredits(ctx, p.UserID, profile.Cost); err != nil {
		c.releaseLock(ctx, p.ChatID)
		if errors.Is(err, store.ErrInsufficientCredits) {
			return uuid.Nil, ErrInsufficientCredits
		}
		return uuid.Nil, fmt.Errorf("debit credits: %w", err)
	}
	c.creditsChanged(p.UserID)

	now := time.Now().UTC()
	video := &models.Video{
		ID:             uuid.New(),
		ChatID:         p.ChatID,
		Kind:           p.Kind,
		ParentVideoID:  p.ParentVideoID,
		Status:         models.VideoStatusQueued,
		Prompt:         p.Brief,
		CreditsCharged: profile.Cost,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p.ImageURL != "" {
		video.ImageURL = &p.ImageURL
	}
	if err := c.store.CreateVideo(ctx, video); err != nil {
		c.refund(ctx, p.UserID, profile.Cost)
		c.releaseLock(ctx, p.ChatID)
		return uuid.Nil, fmt.Errorf("create video: %w", err)
	}

	startedAt := now
	if err := c.store.UpdateChat(ctx, p.ChatID,
		store.WithWorkflowState(models.WorkflowStateInProduction),
		store.WithActiveVideo(&video.ID),
		store.WithProductionStartedAt(&startedAt),
	); err != nil {
		c.rollbackStart(ctx, video, p.UserID, profile.Cost, prevState, fmt.Sprintf("starting production: %v", err))
		return uuid.Nil, fmt.Errorf("update chat: %w", err)
	}

	if err := c.dispatch(ctx, p, video, profile); err != nil {
		// Uniform recovery for a failed dispatch: the video is marked
		// failed with a visible error, the chat is reverted, credits are
		// refunded and the lock released. Nothing is left dangling.
		c.rollbackStart(ctx, video, p.UserID, profile.Cost, prevState, fmt.Sprintf("dispatching to render pipeline: %v", err))
		c.notify.Error("Failed to start video production. Please try again.")
		if errors.Is(err, render.ErrChatLocked) {
			return uuid.Nil, ErrChatLocked
		}
		return uuid.Nil, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	c.postSystemMessage(ctx, p.ChatID, startMessage(p.Kind), map[string]any{
		"video_id":        video.ID.String(),
		"credits_charged": profile.Cost,
	})

	c.update(p.ChatID)
	c.notify.Success(startToast(p.Kind))

	c.Watch(Job{
		VideoID:   video.ID,
		ChatID:    p.ChatID,
		UserID:    p.UserID,
		Kind:      p.Kind,
		Credits:   profile.Cost,
		StartedAt: startedAt,
	})
	return video.ID, nil
}

func (c *Controller) dispatch(ctx context.Context, p startParams, video *models.Video, profile Profile) error {
	if p.Kind == models.VideoKindRevision {
		_, err := c.render.StartRevision(ctx, render.RevisionRequest{
			VideoID:        video.ID,
			ChatID:         p.ChatID,
			ParentVideoID:  *p.ParentVideoID,
			Brief:          p.Brief,
			ImageURL:       p.ImageURL,
			Feedback:       p.Feedback,
			CreditsCharged: profile.Cost,
		})
		return err
	}
	_, err := c.render.Start(ctx, render.StartRequest{
		VideoID:        video.ID,
		ChatID:         p.ChatID,
		Brief:          p.Brief,
		ImageURL:       p.ImageURL,
		CreditsCharged: profile.Cost,
	})
	return err
}

// productionLive reports whether the chat has a production still running:
// workflow state in_production and the active video, when one is recorded,
// not yet terminal. Store read errors count as live, so admission never
// releases a lock it cannot prove stale.
func (c *Controller) productionLive(ctx context.Context, chat *models.Chat) bool {
	if chat.WorkflowState != models.WorkflowStateInProduction {
		return false
	}
	if chat.ActiveVideoID == nil {
		return true
	}
	video, err := c.store.GetVideo(ctx, *chat.ActiveVideoID)
	if err != nil {
		return true
	}
	return !video.Status.Terminal()
}

// rollbackStart undoes a partially-started production: video failed with
// the reason, chat restored to its pre-start workflow state, credits
// refunded, lock released. The terminal guard is claimed so no watcher can
// race it.
func (c *Controller) rollbackStart(ctx context.Context, video *models.Video, userID uuid.UUID, cost int, prevState models.WorkflowState, reason string) {
	c.claimTerminal(video.ID)

	if err := c.store.UpdateVideoStatus(ctx, video.ID, models.VideoStatusFailed,
		store.WithErrorMessage(reason)); err != nil {
		slog.Error("rollback: marking video failed", "video_id", video.ID, "error", err)
	}
	if err := c.store.UpdateChat(ctx, video.ChatID,
		store.WithWorkflowState(prevState),
		store.WithActiveVideo(nil),
		store.WithProductionStartedAt(nil),
	); err != nil {
		slog.Error("rollback: reverting chat", "chat_id", video.ChatID, "error", err)
	}
	c.refund(ctx, userID, cost)
	c.creditsChanged(userID)
	c.releaseLock(ctx, video.ChatID)
	c.update(video.ChatID)
}

// Job identifies one in-flight production plus the facts the timeout path
// needs. Credits and UserID are captured at registration so the refund
// never depends on reading the records back.
type Job struct {
	VideoID   uuid.UUID
	ChatID    uuid.UUID
	UserID    uuid.UUID
	Kind      models.VideoKind
	Credits   int
	StartedAt time.Time
}

// Watch starts status polling for a video. Idempotent: a second call for
// the same video id while a watcher is running (or after the video
// finished) is a no-op, so duplicate registrations can never produce
// duplicate timers.
func (c *Controller) Watch(job Job) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished[job.VideoID] {
		return
	}
	if _, ok := c.watchers[job.VideoID]; ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.watchers[job.VideoID] = cancel
	c.wg.Add(1)
	go c.watch(ctx, job)
}

// Resume reconstructs watchers for chats persisted as in_production.
// Called once at startup; the wall-clock elapsed time since the persisted
// start decides whether to wait out the grace window, poll immediately,
// or go straight to the timeout path.
func (c *Controller) Resume(ctx context.Context) error {
	chats, err := c.store.ListChatsInProduction(ctx)
	if err != nil {
		return fmt.Errorf("list chats in production: %w", err)
	}

	for _, chat := range chats {
		if chat.ActiveVideoID == nil || chat.ProductionStartedAt == nil {
			slog.Warn("chat in production without active video or start time", "chat_id", chat.ID)
			continue
		}
		video, err := c.store.GetVideo(ctx, *chat.ActiveVideoID)
		if err != nil {
			slog.Error("resume: loading active video", "chat_id", chat.ID, "video_id", *chat.ActiveVideoID, "error", err)
			continue
		}
		if video.Status.Terminal() {
			// The pipeline finished while we were down; reconcile the chat.
			if err := c.store.UpdateChat(ctx, chat.ID,
				store.WithWorkflowState(models.WorkflowStateCompleted),
				store.WithActiveVideo(nil),
				store.WithProductionStartedAt(nil),
			); err != nil {
				slog.Error("resume: reconciling finished chat", "chat_id", chat.ID, "error", err)
			}
			continue
		}
		slog.Info("resuming production watch", "chat_id", chat.ID, "video_id", video.ID,
			"kind", video.Kind, "elapsed", time.Since(*chat.ProductionStartedAt).Round(time.Second))
		c.Watch(Job{
			VideoID:   video.ID,
			ChatID:    chat.ID,
			UserID:    chat.UserID,
			Kind:      video.Kind,
			Credits:   video.CreditsCharged,
			StartedAt: *chat.ProductionStartedAt,
		})
	}
	return nil
}

func (c *Controller) watch(ctx context.Context, job Job) {
	defer c.wg.Done()
	defer c.dropWatcher(job.VideoID)

	profile := c.profile(job.Kind)

	elapsed := time.Since(job.StartedAt)
	if elapsed >= profile.Timeout {
		c.handleTimeout(ctx, job)
		return
	}

	// The pipeline produces no meaningful status before the grace window
	// elapses; polling earlier wastes calls.
	if remaining := profile.Grace - elapsed; remaining > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(remaining):
		}
	}

	ticker := jitterbug.New(profile.Poll, &jitterbug.Norm{Stdev: profile.Poll / 10})
	defer ticker.Stop()

	for {
		if time.Since(job.StartedAt) >= profile.Timeout {
			c.handleTimeout(ctx, job)
			return
		}

		result, err := c.render.Status(ctx, job.VideoID, job.ChatID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			// Transient poll failures are retried on the next tick. They
			// neither consume nor reset the timeout budget.
			slog.Warn("status poll failed", "video_id", job.VideoID, "error", err)
		case result.Status == models.VideoStatusCompleted:
			c.finishCompleted(job.VideoID, job.ChatID, result.VideoURL)
			return
		case result.Status == models.VideoStatusFailed:
			c.finishFailed(job.VideoID, job.ChatID, result.ErrorMessage)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// claimTerminal marks the video as finished and tears down its watcher.
// Returns false if another path already claimed it; the caller must then
// do nothing. This is the ordering guarantee that keeps completion,
// failure, timeout and cancel mutually exclusive.
func (c *Controller) claimTerminal(videoID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished[videoID] {
		return false
	}
	c.finished[videoID] = true
	if cancel, ok := c.watchers[videoID]; ok {
		cancel()
		delete(c.watchers, videoID)
	}
	return true
}

func (c *Controller) dropWatcher(videoID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.watchers[videoID]; ok {
		cancel()
		delete(c.watchers, videoID)
	}
}

func (c *Controller) finishCompleted(videoID, chatID uuid.UUID, videoURL string) {
	if !c.claimTerminal(videoID) {
		return
	}
	ctx := context.Background()

	if err := c.store.UpdateVideoStatus(ctx, videoID, models.VideoStatusCompleted,
		store.WithVideoURL(videoURL)); err != nil {
		slog.Error("marking video completed", "video_id", videoID, "error", err)
	}
	c.clearChat(ctx, chatID)
	c.releaseLock(ctx, chatID)
	c.notify.Success("Your video is ready!")
	c.update(chatID)
	c.notifyCreditsForChat(ctx, chatID)
}

func (c *Controller) finishFailed(videoID, chatID uuid.UUID, errorMessage string) {
	if !c.claimTerminal(videoID) {
		return
	}
	ctx := context.Background()

	if errorMessage == "" {
		errorMessage = "Video generation failed."
	}
	if err := c.store.UpdateVideoStatus(ctx, videoID, models.VideoStatusFailed,
		store.WithErrorMessage(errorMessage)); err != nil {
		slog.Error("marking video failed", "video_id", videoID, "error", err)
	}
	c.clearChat(ctx, chatID)
	c.releaseLock(ctx, chatID)
	// Credits were consumed by the pipeline; failure does not refund.
	c.notify.Error("Video generation failed. Please try again.")
	c.update(chatID)
}

// handleTimeout runs when the total timeout elapses with no terminal
// status observed. All effects run at most once per video: the terminal
// guard is claimed before any of them. It works entirely from the job
// captured at registration, so the refund, the chat reset and the lock
// release cannot be stranded by a failing store read.
func (c *Controller) handleTimeout(ctx context.Context, job Job) {
	if !c.claimTerminal(job.VideoID) {
		return
	}

	slog.Info("production timed out, refunding credits",
		"video_id", job.VideoID, "chat_id", job.ChatID, "credits", job.Credits)

	if err := c.store.UpdateVideoStatus(ctx, job.VideoID, models.VideoStatusCancelled,
		store.WithCancellation("system", "production timed out")); err != nil {
		slog.Error("timeout: marking video cancelled", "video_id", job.VideoID, "error", err)
	}

	c.postSystemMessage(ctx, job.ChatID,
		"**Video generation timed out**\n\nThe video took longer than expected to generate. Your credits have been automatically refunded. Please try again.",
		map[string]any{
			"timeout":          true,
			"video_id":         job.VideoID.String(),
			"credits_refunded": job.Credits,
		})

	c.clearChat(ctx, job.ChatID)
	c.releaseLock(ctx, job.ChatID)
	c.refund(ctx, job.UserID, job.Credits)

	c.notify.Error("Video generation timed out. Credits have been refunded.")
	c.update(job.ChatID)
	c.creditsChanged(job.UserID)
}

// Cancel stops a non-terminal production at the user's request. Safe to
// call while a poll is in flight: whichever side claims the terminal
// guard first wins, and the loser's effects are suppressed entirely.
func (c *Controller) Cancel(ctx context.Context, videoID, chatID, userID uuid.UUID, reason string) error {
	video, err := c.store.GetVideo(ctx, videoID)
	if err != nil {
		return err
	}
	if video.Status.Terminal() {
		return fmt.Errorf("%w: video is %s", ErrAlreadyFinished, video.Status)
	}

	if !c.claimTerminal(videoID) {
		// A completion, failure or timeout got there first.
		return nil
	}

	if reason == "" {
		reason = "User requested cancellation"
	}
	if err := c.store.UpdateVideoStatus(ctx, videoID, models.VideoStatusCancelled,
		store.WithCancellation(userID.String(), reason)); err != nil {
		slog.Error("cancel: marking video cancelled", "video_id", videoID, "error", err)
	}

	c.clearChat(ctx, chatID)
	return c.finishCancel(ctx, video, chatID, userID)
}

func (c *Controller) finishCancel(ctx context.Context, video *models.Video, chatID, userID uuid.UUID) error {
	c.refund(ctx, userID, video.CreditsCharged)

	c.postSystemMessage(ctx, chatID,
		fmt.Sprintf("**Video production cancelled**\n\nYou successfully cancelled the video production. Your %d credits have been refunded to your account.", video.CreditsCharged),
		map[string]any{
			"video_cancelled":    true,
			"credits_refunded":   video.CreditsCharged,
			"cancelled_video_id": video.ID.String(),
		})

	c.releaseLock(ctx, chatID)
	c.notify.Success("Video production cancelled. Credits have been refunded.")
	c.update(chatID)
	c.creditsChanged(userID)
	return nil
}

// ForceUnlock is the escalation path offered to users when admission
// fails with ErrChatLocked and they choose to override.
func (c *Controller) ForceUnlock(ctx context.Context, chatID uuid.UUID, reason string) error {
	if err := c.lock.ForceRelease(ctx, chatID, reason); err != nil {
		return fmt.Errorf("force unlock: %w", err)
	}
	if err := c.store.UpdateChat(ctx, chatID,
		store.WithWorkflowState(models.WorkflowStateAwaitingApproval),
	); err != nil {
		return fmt.Errorf("reset chat after force unlock: %w", err)
	}
	c.update(chatID)
	return nil
}

// Close cancels all watchers and waits for them to exit.
func (c *Controller) Close() {
	c.mu.Lock()
	for id, cancel := range c.watchers {
		cancel()
		delete(c.watchers, id)
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// --- helpers ---

func (c *Controller) clearChat(ctx context.Context, chatID uuid.UUID) {
	if err := c.store.UpdateChat(ctx, chatID,
		store.WithWorkflowState(models.WorkflowStateCompleted),
		store.WithActiveVideo(nil),
		store.WithProductionStartedAt(nil),
	); err != nil {
		slog.Error("clearing chat production state", "chat_id", chatID, "error", err)
	}
}

// releaseLock is best effort: once a job is terminal the lock only
// matters for the next admission, and a leaked lock is recoverable there.
func (c *Controller) releaseLock(ctx context.Context, chatID uuid.UUID) {
	if err := c.lock.Release(ctx, chatID); err != nil {
		slog.Warn("lock release failed", "chat_id", chatID, "error", err)
	}
}

func (c *Controller) refund(ctx context.Context, userID uuid.UUID, amount int) {
	if amount <= 0 {
		return
	}
	if err := c.store.RefundCredits(ctx, userID, amount); err != nil {
		slog.Error("credit refund failed", "user_id", userID, "amount", amount, "error", err)
	}
}

func (c *Controller) postSystemMessage(ctx context.Context, chatID uuid.UUID, content string, metadata map[string]any) {
	msg := &models.Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		Role:      models.MessageRoleSystem,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.store.CreateMessage(ctx, msg); err != nil {
		slog.Error("posting system message", "chat_id", chatID, "error", err)
	}
}

func (c *Controller) update(chatID uuid.UUID) {
	if c.OnUpdate != nil {
		c.OnUpdate(chatID)
	}
}

func (c *Controller) creditsChanged(userID uuid.UUID) {
	if c.OnCreditsChanged != nil {
		c.OnCreditsChanged(userID)
	}
}

func (c *Controller) notifyCreditsForChat(ctx context.Context, chatID uuid.UUID) {
	if c.OnCreditsChanged == nil {
		return
	}
	chat, err := c.store.GetChat(ctx, chatID)
	if err != nil {
		return
	}
	c.OnCreditsChanged(chat.UserID)
}

func startMessage(kind models.VideoKind) string {
	if kind == models.VideoKindRevision {
		return "**Creating your revised video...**\n\nApplying your requested changes. This will take about 5 minutes."
	}
	return "**Video production started**\n\nYour 30-second video is being generated. This will take about 12 minutes."
}

func startToast(kind models.VideoKind) string {
	if kind == models.VideoKindRevision {
		return "Revision started! This will take about 5 minutes."
	}
	return "Video production started! This will take about 12 minutes."
}
