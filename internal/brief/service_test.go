package brief_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelforge/reelforge/internal/brief"
	"github.com/reelforge/reelforge/internal/brief/mock"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/pkg/models"
)

// briefStore implements just enough of store.Store for the brief flow.
type briefStore struct {
	store.Store

	messages []*models.Message
	states   []models.WorkflowState
}

func (s *briefStore) CreateMessage(_ context.Context, msg *models.Message) error {
	s.messages = append(s.messages, msg)
	return nil
}

func (s *briefStore) ListMessagesByChat(_ context.Context, chatID uuid.UUID) ([]*models.Message, error) {
	var out []*models.Message
	for _, m := range s.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *briefStore) UpdateChat(_ context.Context, _ uuid.UUID, opts ...store.ChatUpdateOption) error {
	params := store.ApplyChatOptions(opts)
	if params.WorkflowState != nil {
		s.states = append(s.states, *params.WorkflowState)
	}
	return nil
}

func (s *briefStore) lastState() models.WorkflowState {
	if len(s.states) == 0 {
		return ""
	}
	return s.states[len(s.states)-1]
}

func draftChat() *models.Chat {
	return &models.Chat{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		WorkflowState: models.WorkflowStateDraft,
	}
}

func TestHandleMessage_GeneratesBrief(t *testing.T) {
	st := &briefStore{}
	svc := brief.NewService(mock.NewMockProvider(), st, time.Second)
	chat := draftChat()

	result, err := svc.HandleMessage(context.Background(), chat, "a 30 second ad for trail running shoes", "")
	require.NoError(t, err)

	assert.Equal(t, models.MessageRoleUser, result.UserMessage.Role)
	assert.Equal(t, models.MessageRoleAssistant, result.AssistantMessage.Role)
	assert.Contains(t, result.AssistantMessage.Content, "trail running shoes")
	assert.Equal(t, "brief", result.AssistantMessage.Metadata["kind"])
	assert.Equal(t, "mock", result.AssistantMessage.Metadata["provider"])
	assert.Equal(t, models.WorkflowStateAwaitingApproval, result.WorkflowState)

	// State moved draft -> briefing -> awaiting_approval.
	require.Len(t, st.states, 2)
	assert.Equal(t, models.WorkflowStateBriefing, st.states[0])
	assert.Equal(t, models.WorkflowStateAwaitingApproval, st.states[1])
}

func TestHandleMessage_ImageURLStoredAsMetadata(t *testing.T) {
	st := &briefStore{}
	svc := brief.NewService(mock.NewMockProvider(), st, time.Second)

	result, err := svc.HandleMessage(context.Background(), draftChat(), "product on a beach", "https://cdn.example.com/shot.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/shot.png", result.UserMessage.Metadata["image_url"])
}

func TestHandleMessage_RevisesAwaitingApprovalChat(t *testing.T) {
	st := &briefStore{}
	svc := brief.NewService(mock.NewMockProvider(), st, time.Second)
	chat := draftChat()

	// Seed an existing brief.
	st.messages = append(st.messages,
		&models.Message{ID: uuid.New(), ChatID: chat.ID, Role: models.MessageRoleUser, Content: "first idea"},
		&models.Message{ID: uuid.New(), ChatID: chat.ID, Role: models.MessageRoleAssistant, Content: "Scene 1: the first brief."},
	)
	chat.WorkflowState = models.WorkflowStateAwaitingApproval

	result, err := svc.HandleMessage(context.Background(), chat, "make it moodier", "")
	require.NoError(t, err)

	assert.Contains(t, result.AssistantMessage.Content, "Scene 1: the first brief.")
	assert.Contains(t, result.AssistantMessage.Content, "make it moodier")
	assert.Equal(t, models.WorkflowStateAwaitingApproval, st.lastState())
}

func TestHandleMessage_RejectsChatInProduction(t *testing.T) {
	st := &briefStore{}
	svc := brief.NewService(mock.NewMockProvider(), st, time.Second)
	chat := draftChat()
	chat.WorkflowState = models.WorkflowStateInProduction

	_, err := svc.HandleMessage(context.Background(), chat, "change the ending", "")
	assert.ErrorIs(t, err, brief.ErrChatInProduction)
	assert.Empty(t, st.messages)
}

func TestHandleMessage_ProviderTimeout(t *testing.T) {
	st := &briefStore{}
	svc := brief.NewService(mock.NewTimeoutProvider(), st, 20*time.Millisecond)

	_, err := svc.HandleMessage(context.Background(), draftChat(), "an ad", "")
	assert.ErrorIs(t, err, brief.ErrGenerationTimeout)

	// Chat dropped back to draft so the user can retry.
	assert.Equal(t, models.WorkflowStateDraft, st.lastState())
}

func TestHandleMessage_ProviderFailure(t *testing.T) {
	st := &briefStore{}
	svc := brief.NewService(mock.NewFailingProvider(errors.New("upstream 500")), st, time.Second)

	_, err := svc.HandleMessage(context.Background(), draftChat(), "an ad", "")
	assert.ErrorIs(t, err, brief.ErrProviderUnavailable)
	assert.Equal(t, models.WorkflowStateDraft, st.lastState())
}

func TestHandleMessage_EmptyBriefIsInvalid(t *testing.T) {
	st := &briefStore{}
	provider := &mock.MockProvider{
		Name_: "mock",
		GenerateFunc: func(_ context.Context, _ models.BriefRequest) (string, error) {
			return "", nil
		},
	}
	svc := brief.NewService(provider, st, time.Second)

	_, err := svc.HandleMessage(context.Background(), draftChat(), "an ad", "")
	assert.ErrorIs(t, err, brief.ErrInvalidResponse)
}

func TestLatestBrief(t *testing.T) {
	st := &briefStore{}
	svc := brief.NewService(mock.NewMockProvider(), st, time.Second)
	chatID := uuid.New()

	_, err := svc.LatestBrief(context.Background(), chatID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	st.messages = append(st.messages,
		&models.Message{ID: uuid.New(), ChatID: chatID, Role: models.MessageRoleAssistant, Content: "old brief"},
		&models.Message{ID: uuid.New(), ChatID: chatID, Role: models.MessageRoleUser, Content: "feedback"},
		&models.Message{ID: uuid.New(), ChatID: chatID, Role: models.MessageRoleAssistant, Content: "new brief"},
	)

	got, err := svc.LatestBrief(context.Background(), chatID)
	require.NoError(t, err)
	assert.Equal(t, "new brief", got)
}
