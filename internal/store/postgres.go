package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reelforge/reelforge/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users / credits ---

const userColumns = `id, email, credits, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Credits, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, credits, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.Credits, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// DebitCredits subtracts amount from the user's balance in a single
// guarded UPDATE, so a concurrent debit can never drive the balance
// negative. Returns ErrInsufficientCredits without mutating anything if
// the balance is too low.
func (s *PostgresStore) DebitCredits(ctx context.Context, userID uuid.UUID, amount int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET credits = credits - $2, updated_at = NOW()
		 WHERE id = $1 AND credits >= $2`, userID, amount)
	if err != nil {
		return fmt.Errorf("debit credits: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the user does not exist or the balance is too low.
		if _, getErr := s.GetUser(ctx, userID); getErr != nil {
			return getErr
		}
		return ErrInsufficientCredits
	}
	return nil
}

func (s *PostgresStore) RefundCredits(ctx context.Context, userID uuid.UUID, amount int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET credits = credits + $2, updated_at = NOW() WHERE id = $1`,
		userID, amount)
	if err != nil {
		return fmt.Errorf("refund credits: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- API Keys ---

const apiKeyColumns = `id, user_id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at`

func scanAPIKeys(rows pgx.Rows) ([]*models.APIKey, error) {
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	return scanAPIKeys(rows)
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.UserID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys
		 WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return scanAPIKeys(rows)
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Chats ---

const chatColumns = `id, user_id, title, workflow_state, active_video_id, production_started_at, created_at, updated_at`

func scanChat(row pgx.Row) (*models.Chat, error) {
	var c models.Chat
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.WorkflowState,
		&c.ActiveVideoID, &c.ProductionStartedAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan chat: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) CreateChat(ctx context.Context, chat *models.Chat) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chats (id, user_id, title, workflow_state, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		chat.ID, chat.UserID, chat.Title, chat.WorkflowState, chat.CreatedAt, chat.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetChat(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	return scanChat(s.pool.QueryRow(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE id = $1`, id))
}

func (s *PostgresStore) ListChatsByUser(ctx context.Context, userID uuid.UUID, filter ChatFilter) ([]*models.Chat, int, error) {
	conditions := []string{"user_id = $1"}
	args := []any{userID}
	argIdx := 2

	if !filter.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("updated_at >= $%d", argIdx))
		args = append(args, filter.Since)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM chats WHERE " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count chats: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	dataQuery := fmt.Sprintf(
		`SELECT `+chatColumns+` FROM chats WHERE %s ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var chats []*models.Chat
	for rows.Next() {
		var c models.Chat
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.WorkflowState,
			&c.ActiveVideoID, &c.ProductionStartedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, &c)
	}
	return chats, total, rows.Err()
}

// ListChatsInProduction returns every chat whose workflow state is
// in_production. Used on startup to reconstruct watchers.
func (s *PostgresStore) ListChatsInProduction(ctx context.Context) ([]*models.Chat, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+chatColumns+` FROM chats
		 WHERE workflow_state = $1 AND active_video_id IS NOT NULL`,
		models.WorkflowStateInProduction)
	if err != nil {
		return nil, fmt.Errorf("list chats in production: %w", err)
	}
	defer rows.Close()

	var chats []*models.Chat
	for rows.Next() {
		var c models.Chat
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.WorkflowState,
			&c.ActiveVideoID, &c.ProductionStartedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, &c)
	}
	return chats, rows.Err()
}

func (s *PostgresStore) UpdateChat(ctx context.Context, id uuid.UUID, opts ...ChatUpdateOption) error {
	params := &ChatUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}

	query := `UPDATE chats SET updated_at = NOW()`
	var args []any
	args = append(args, id)
	argIdx := 2

	if params.WorkflowState != nil {
		query += fmt.Sprintf(", workflow_state = $%d", argIdx)
		args = append(args, *params.WorkflowState)
		argIdx++
	}
	if params.ActiveVideo != nil {
		query += fmt.Sprintf(", active_video_id = $%d", argIdx)
		args = append(args, *params.ActiveVideo)
		argIdx++
	}
	if params.ProductionAt != nil {
		query += fmt.Sprintf(", production_started_at = $%d", argIdx)
		args = append(args, *params.ProductionAt)
		argIdx++
	}
	if params.Title != nil {
		query += fmt.Sprintf(", title = $%d", argIdx)
		args = append(args, *params.Title)
		argIdx++
	}

	query += " WHERE id = $1"

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Messages ---

func (s *PostgresStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, chat_id, role, content, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.ChatID, msg.Role, msg.Content, msg.Metadata, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListMessagesByChat(ctx context.Context, chatID uuid.UUID) ([]*models.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, chat_id, role, content, metadata, created_at
		 FROM messages WHERE chat_id = $1 ORDER BY created_at ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.Metadata, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// --- Videos ---

const videoColumns = `id, chat_id, kind, parent_video_id, status, prompt, image_url, video_url,
	 error_message, credits_charged, cancelled_by, cancellation_reason,
	 processing_started_at, processing_completed_at, created_at, updated_at`

func scanVideo(row pgx.Row) (*models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.ChatID, &v.Kind, &v.ParentVideoID, &v.Status, &v.Prompt,
		&v.ImageURL, &v.VideoURL, &v.ErrorMessage, &v.CreditsCharged,
		&v.CancelledBy, &v.CancellationReason,
		&v.ProcessingStartedAt, &v.ProcessingCompletedAt, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan video: %w", err)
	}
	return &v, nil
}

func (s *PostgresStore) CreateVideo(ctx context.Context, video *models.Video) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO videos (id, chat_id, kind, parent_video_id, status, prompt, image_url,
		   credits_charged, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		video.ID, video.ChatID, video.Kind, video.ParentVideoID, video.Status,
		video.Prompt, video.ImageURL, video.CreditsCharged, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	return scanVideo(s.pool.QueryRow(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
}

func (s *PostgresStore) ListVideosByChat(ctx context.Context, chatID uuid.UUID) ([]*models.Video, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE chat_id = $1 ORDER BY created_at DESC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.ChatID, &v.Kind, &v.ParentVideoID, &v.Status, &v.Prompt,
			&v.ImageURL, &v.VideoURL, &v.ErrorMessage, &v.CreditsCharged,
			&v.CancelledBy, &v.CancellationReason,
			&v.ProcessingStartedAt, &v.ProcessingCompletedAt, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, &v)
	}
	return videos, rows.Err()
}

// UpdateVideoStatus moves a video along the state machine. The transition
// is validated against the current status inside one guarded UPDATE, so a
// terminal video can never be moved again even under concurrent callers.
func (s *PostgresStore) UpdateVideoStatus(ctx context.Context, id uuid.UUID, status models.VideoStatus, opts ...VideoUpdateOption) error {
	params := &VideoUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}

	var currentStatus models.VideoStatus
	err := s.pool.QueryRow(ctx, `SELECT status FROM videos WHERE id = $1`, id).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get video status: %w", err)
	}

	if !currentStatus.CanTransition(status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, currentStatus, status)
	}

	now := time.Now().UTC()
	query := `UPDATE videos SET status = $2, updated_at = $3`
	args := []any{id, status, now}
	argIdx := 4

	if status == models.VideoStatusProcessing {
		query += fmt.Sprintf(", processing_started_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if status.Terminal() {
		query += fmt.Sprintf(", processing_completed_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if params.VideoURL != nil {
		query += fmt.Sprintf(", video_url = $%d", argIdx)
		args = append(args, *params.VideoURL)
		argIdx++
	}
	if params.ErrorMessage != nil {
		query += fmt.Sprintf(", error_message = $%d", argIdx)
		args = append(args, *params.ErrorMessage)
		argIdx++
	}
	if params.CancelledBy != nil {
		query += fmt.Sprintf(", cancelled_by = $%d, cancellation_reason = $%d", argIdx, argIdx+1)
		args = append(args, *params.CancelledBy, *params.CancelReason)
		argIdx += 2
	}

	// Re-check the current status in the WHERE clause so a concurrent
	// transition between our read and this write cannot slip through.
	query += fmt.Sprintf(" WHERE id = $1 AND status = $%d", argIdx)
	args = append(args, currentStatus)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update video status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: video moved concurrently", ErrInvalidTransition)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
