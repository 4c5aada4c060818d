package brief

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/pkg/models"
)

// ErrChatInProduction is returned when a user message arrives while the
// chat has a video in flight. The brief flow is frozen until the
// production reaches a terminal state.
var ErrChatInProduction = errors.New("chat is in production")

// MessageResult is the outcome of handling one user message: the stored
// user message, the assistant's reply, and the chat's new workflow state.
type MessageResult struct {
	UserMessage      *models.Message      `json:"user_message"`
	AssistantMessage *models.Message      `json:"assistant_message"`
	WorkflowState    models.WorkflowState `json:"workflow_state"`
}

// Service orchestrates the brief conversation: user messages go in,
// generated or revised briefs come back as assistant messages, and the
// chat's workflow state moves draft -> briefing -> awaiting_approval.
type Service struct {
	provider models.BriefProvider
	store    store.Store
	timeout  time.Duration
}

// NewService creates a brief Service.
func NewService(provider models.BriefProvider, st store.Store, timeout time.Duration) *Service {
	return &Service{provider: provider, store: st, timeout: timeout}
}

// HandleMessage processes one user message for the given chat. In draft or
// briefing state the message is treated as a product description and a
// fresh brief is generated. In awaiting_approval it is treated as feedback
// on the latest brief and a revision is generated. In production the
// message is rejected.
func (s *Service) HandleMessage(ctx context.Context, chat *models.Chat, content, imageURL string) (*MessageResult, error) {
	if chat.WorkflowState == models.WorkflowStateInProduction {
		return nil, ErrChatInProduction
	}

	userMsg := &models.Message{
		ID:        uuid.New(),
		ChatID:    chat.ID,
		Role:      models.MessageRoleUser,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if imageURL != "" {
		userMsg.Metadata = map[string]any{"image_url": imageURL}
	}
	if err := s.store.CreateMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("storing user message: %w", err)
	}

	var (
		briefText string
		err       error
	)
	switch chat.WorkflowState {
	case models.WorkflowStateAwaitingApproval:
		briefText, err = s.revise(ctx, chat.ID, content)
	default:
		// draft, briefing, or a completed chat starting over
		if err := s.store.UpdateChat(ctx, chat.ID, store.WithWorkflowState(models.WorkflowStateBriefing)); err != nil {
			return nil, fmt.Errorf("updating chat state: %w", err)
		}
		briefText, err = s.generate(ctx, content, imageURL)
	}
	if err != nil {
		// Drop back to draft so the user can retry.
		if uerr := s.store.UpdateChat(ctx, chat.ID, store.WithWorkflowState(models.WorkflowStateDraft)); uerr != nil {
			slog.Error("reverting chat state after brief failure", "error", uerr, "chat_id", chat.ID)
		}
		return nil, err
	}

	assistantMsg := &models.Message{
		ID:      uuid.New(),
		ChatID:  chat.ID,
		Role:    models.MessageRoleAssistant,
		Content: briefText,
		Metadata: map[string]any{
			"kind":     "brief",
			"provider": s.provider.Name(),
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("storing assistant message: %w", err)
	}

	if err := s.store.UpdateChat(ctx, chat.ID, store.WithWorkflowState(models.WorkflowStateAwaitingApproval)); err != nil {
		return nil, fmt.Errorf("updating chat state: %w", err)
	}

	return &MessageResult{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		WorkflowState:    models.WorkflowStateAwaitingApproval,
	}, nil
}

// LatestBrief returns the content of the most recent assistant brief in
// the chat, or ErrNotFound if no brief has been generated yet.
func (s *Service) LatestBrief(ctx context.Context, chatID uuid.UUID) (string, error) {
	msgs, err := s.store.ListMessagesByChat(ctx, chatID)
	if err != nil {
		return "", fmt.Errorf("listing messages: %w", err)
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.MessageRoleAssistant {
			return msgs[i].Content, nil
		}
	}
	return "", store.ErrNotFound
}

func (s *Service) generate(ctx context.Context, content, imageURL string) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	briefText, err := s.provider.GenerateBrief(genCtx, models.BriefRequest{
		Prompt:   content,
		ImageURL: imageURL,
	})
	if err != nil {
		return "", s.classify(err)
	}
	if briefText == "" {
		return "", ErrInvalidResponse
	}
	return briefText, nil
}

func (s *Service) revise(ctx context.Context, chatID uuid.UUID, feedback string) (string, error) {
	current, err := s.LatestBrief(ctx, chatID)
	if err != nil {
		return "", err
	}

	revCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	briefText, err := s.provider.ReviseBrief(revCtx, current, feedback)
	if err != nil {
		return "", s.classify(err)
	}
	if briefText == "" {
		return "", ErrInvalidResponse
	}
	return briefText, nil
}

// classify maps provider failures onto the package sentinels so handlers
// can pick status codes without knowing which provider is wired in.
func (s *Service) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrGenerationTimeout, s.provider.Name())
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
