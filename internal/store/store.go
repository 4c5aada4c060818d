package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/reelforge/reelforge/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// ErrInsufficientCredits is returned by DebitCredits when the user's
// balance is below the requested amount. No mutation occurs.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrInvalidTransition is returned by UpdateVideoStatus when the requested
// status change is not a legal edge of the video state machine. Terminal
// videos never transition further.
var ErrInvalidTransition = errors.New("invalid video status transition")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	DebitCredits(ctx context.Context, userID uuid.UUID, amount int) error
	RefundCredits(ctx context.Context, userID uuid.UUID, amount int) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	CreateChat(ctx context.Context, chat *models.Chat) error
	GetChat(ctx context.Context, id uuid.UUID) (*models.Chat, error)
	ListChatsByUser(ctx context.Context, userID uuid.UUID, filter ChatFilter) ([]*models.Chat, int, error)
	ListChatsInProduction(ctx context.Context) ([]*models.Chat, error)
	UpdateChat(ctx context.Context, id uuid.UUID, opts ...ChatUpdateOption) error

	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessagesByChat(ctx context.Context, chatID uuid.UUID) ([]*models.Message, error)

	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error)
	ListVideosByChat(ctx context.Context, chatID uuid.UUID) ([]*models.Video, error)
	UpdateVideoStatus(ctx context.Context, id uuid.UUID, status models.VideoStatus, opts ...VideoUpdateOption) error
}

type ChatFilter struct {
	Since time.Time
	Page  int
	Limit int
}

// --- video update options ---

// VideoUpdateParams collects the optional fields of UpdateVideoStatus.
// Exported so alternative Store implementations (including test fakes)
// can apply the same options.
type VideoUpdateParams struct {
	VideoURL     *string
	ErrorMessage *string
	CancelledBy  *string
	CancelReason *string
}

type VideoUpdateOption func(*VideoUpdateParams)

// ApplyVideoOptions folds the options into a params struct.
func ApplyVideoOptions(opts []VideoUpdateOption) VideoUpdateParams {
	var p VideoUpdateParams
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func WithVideoURL(url string) VideoUpdateOption {
	return func(p *VideoUpdateParams) {
		p.VideoURL = &url
	}
}

func WithErrorMessage(msg string) VideoUpdateOption {
	return func(p *VideoUpdateParams) {
		p.ErrorMessage = &msg
	}
}

func WithCancellation(by, reason string) VideoUpdateOption {
	return func(p *VideoUpdateParams) {
		p.CancelledBy = &by
		p.CancelReason = &reason
	}
}

// --- chat update options ---

// ChatUpdateParams collects the optional fields of UpdateChat. The
// double pointers distinguish "leave unchanged" (outer nil) from "set to
// NULL" (outer set, inner nil).
type ChatUpdateParams struct {
	WorkflowState *models.WorkflowState
	ActiveVideo   **uuid.UUID
	ProductionAt  **time.Time
	Title         *string
}

type ChatUpdateOption func(*ChatUpdateParams)

// ApplyChatOptions folds the options into a params struct.
func ApplyChatOptions(opts []ChatUpdateOption) ChatUpdateParams {
	var p ChatUpdateParams
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func WithWorkflowState(state models.WorkflowState) ChatUpdateOption {
	return func(p *ChatUpdateParams) {
		p.WorkflowState = &state
	}
}

// WithActiveVideo sets the chat's active video. Pass nil to clear it.
func WithActiveVideo(id *uuid.UUID) ChatUpdateOption {
	return func(p *ChatUpdateParams) {
		p.ActiveVideo = &id
	}
}

// WithProductionStartedAt sets the persisted production start timestamp.
// Pass nil to clear it.
func WithProductionStartedAt(t *time.Time) ChatUpdateOption {
	return func(p *ChatUpdateParams) {
		p.ProductionAt = &t
	}
}

func WithTitle(title string) ChatUpdateOption {
	return func(p *ChatUpdateParams) {
		p.Title = &title
	}
}
