package production_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge/internal/lock"
	"github.com/reelforge/reelforge/internal/render"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/pkg/models"
)

// fakeStore is an in-memory store.Store that counts debits and refunds.
type fakeStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	chats    map[uuid.UUID]*models.Chat
	videos   map[uuid.UUID]*models.Video
	messages []*models.Message

	debits  int
	refunds int

	// staleVideoReads makes GetVideo return the snapshot taken at
	// creation, simulating a read racing an in-flight status update.
	staleVideoReads bool
	snapshots       map[uuid.UUID]models.Video

	// Injectable read failures, set while a job is in flight to model a
	// database outage.
	getVideoErr error
	getChatErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[uuid.UUID]*models.User),
		chats:     make(map[uuid.UUID]*models.Chat),
		videos:    make(map[uuid.UUID]*models.Video),
		snapshots: make(map[uuid.UUID]models.Video),
	}
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeStore) DebitCredits(_ context.Context, userID uuid.UUID, amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	if u.Credits < amount {
		return store.ErrInsufficientCredits
	}
	u.Credits -= amount
	f.debits++
	return nil
}

func (f *fakeStore) RefundCredits(_ context.Context, userID uuid.UUID, amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.Credits += amount
	f.refunds++
	return nil
}

func (f *fakeStore) refundCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refunds
}

func (f *fakeStore) debitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.debits
}

func (f *fakeStore) credits(userID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[userID].Credits
}

func (f *fakeStore) GetAPIKeyByPrefix(context.Context, string) ([]*models.APIKey, error) {
	return nil, nil
}
func (f *fakeStore) UpdateAPIKeyLastUsed(context.Context, uuid.UUID) error { return nil }
func (f *fakeStore) CreateAPIKey(context.Context, *models.APIKey) error    { return nil }
func (f *fakeStore) ListAPIKeys(context.Context, uuid.UUID) ([]*models.APIKey, error) {
	return nil, nil
}
func (f *fakeStore) RevokeAPIKey(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (f *fakeStore) CreateChat(_ context.Context, chat *models.Chat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *chat
	f.chats[chat.ID] = &cp
	return nil
}

func (f *fakeStore) GetChat(_ context.Context, id uuid.UUID) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getChatErr != nil {
		return nil, f.getChatErr
	}
	c, ok := f.chats[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListChatsByUser(context.Context, uuid.UUID, store.ChatFilter) ([]*models.Chat, int, error) {
	return nil, 0, nil
}

func (f *fakeStore) ListChatsInProduction(context.Context) ([]*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Chat
	for _, c := range f.chats {
		if c.WorkflowState == models.WorkflowStateInProduction {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateChat(_ context.Context, id uuid.UUID, opts ...store.ChatUpdateOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[id]
	if !ok {
		return store.ErrNotFound
	}
	p := store.ApplyChatOptions(opts)
	if p.WorkflowState != nil {
		c.WorkflowState = *p.WorkflowState
	}
	if p.ActiveVideo != nil {
		c.ActiveVideoID = *p.ActiveVideo
	}
	if p.ProductionAt != nil {
		c.ProductionStartedAt = *p.ProductionAt
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeStore) CreateMessage(_ context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *msg
	f.messages = append(f.messages, &cp)
	return nil
}

func (f *fakeStore) ListMessagesByChat(_ context.Context, chatID uuid.UUID) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Message
	for _, m := range f.messages {
		if m.ChatID == chatID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateVideo(_ context.Context, video *models.Video) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *video
	f.videos[video.ID] = &cp
	f.snapshots[video.ID] = cp
	return nil
}

func (f *fakeStore) GetVideo(_ context.Context, id uuid.UUID) (*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getVideoErr != nil {
		return nil, f.getVideoErr
	}
	v, ok := f.videos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if f.staleVideoReads {
		cp := f.snapshots[id]
		return &cp, nil
	}
	cp := *v
	return &cp, nil
}

func (f *fakeStore) ListVideosByChat(_ context.Context, chatID uuid.UUID) ([]*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Video
	for _, v := range f.videos {
		if v.ChatID == chatID {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateVideoStatus(_ context.Context, id uuid.UUID, status models.VideoStatus, opts ...store.VideoUpdateOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok {
		return store.ErrNotFound
	}
	if !v.Status.CanTransition(status) {
		return store.ErrInvalidTransition
	}
	p := store.ApplyVideoOptions(opts)
	v.Status = status
	if p.VideoURL != nil {
		v.VideoURL = p.VideoURL
	}
	if p.ErrorMessage != nil {
		v.ErrorMessage = p.ErrorMessage
	}
	if p.CancelledBy != nil {
		v.CancelledBy = p.CancelledBy
	}
	if p.CancelReason != nil {
		v.CancellationReason = p.CancelReason
	}
	v.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeStore) video(id uuid.UUID) models.Video {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.videos[id]
}

func (f *fakeStore) chat(id uuid.UUID) models.Chat {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.chats[id]
}

func (f *fakeStore) systemMessages(chatID uuid.UUID) []*models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Message
	for _, m := range f.messages {
		if m.ChatID == chatID && m.Role == models.MessageRoleSystem {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out
}

var _ store.Store = (*fakeStore)(nil)

// fakeLock is an in-memory lock.Service with real release semantics:
// Release always deletes, the way a Redis DEL does.
type fakeLock struct {
	mu     sync.Mutex
	locks  map[uuid.UUID]string
	forced int
}

func newFakeLock() *fakeLock {
	return &fakeLock{locks: make(map[uuid.UUID]string)}
}

func (l *fakeLock) Acquire(_ context.Context, chatID uuid.UUID, reason string, _ time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.locks[chatID]; ok {
		return lock.ErrAlreadyLocked
	}
	l.locks[chatID] = reason
	return nil
}

func (l *fakeLock) Status(_ context.Context, chatID uuid.UUID) (lock.Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	reason, ok := l.locks[chatID]
	return lock.Status{IsLocked: ok, Reason: reason}, nil
}

func (l *fakeLock) Release(_ context.Context, chatID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, chatID)
	return nil
}

func (l *fakeLock) ForceRelease(_ context.Context, chatID uuid.UUID, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, chatID)
	l.forced++
	return nil
}

func (l *fakeLock) locked(chatID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.locks[chatID]
	return ok
}

var _ lock.Service = (*fakeLock)(nil)

// fakeRender is a render.Client with injectable behavior.
type fakeRender struct {
	mu          sync.Mutex
	startErr    error
	revisionErr error
	statusFunc  func(videoID uuid.UUID) (*render.StatusResult, error)
	statusCalls int
	starts      []render.StartRequest
	revisions   []render.RevisionRequest
}

func (r *fakeRender) Start(_ context.Context, req render.StartRequest) (*render.StartResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return nil, r.startErr
	}
	r.starts = append(r.starts, req)
	return &render.StartResult{VideoID: req.VideoID}, nil
}

func (r *fakeRender) StartRevision(_ context.Context, req render.RevisionRequest) (*render.StartResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revisionErr != nil {
		return nil, r.revisionErr
	}
	r.revisions = append(r.revisions, req)
	return &render.StartResult{VideoID: req.VideoID}, nil
}

func (r *fakeRender) Status(_ context.Context, videoID, _ uuid.UUID) (*render.StatusResult, error) {
	r.mu.Lock()
	fn := r.statusFunc
	r.statusCalls++
	r.mu.Unlock()
	if fn == nil {
		return &render.StatusResult{Status: models.VideoStatusProcessing}, nil
	}
	return fn(videoID)
}

func (r *fakeRender) polls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusCalls
}

var _ render.Client = (*fakeRender)(nil)

// recordingNotifier captures toast messages.
type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
	infos     []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}
