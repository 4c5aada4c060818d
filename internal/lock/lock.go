// Package lock provides a Redis-backed mutual-exclusion primitive keyed by
// chat id. It guards against two sessions (two tabs, or a retry racing a
// background revision) starting production against the same chat at once.
// It is a distributed lock between sessions, not an in-process one.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrAlreadyLocked is returned by Acquire when another holder owns the lock.
var ErrAlreadyLocked = errors.New("chat already locked")

// Status describes the lock state of one chat.
type Status struct {
	IsLocked bool   `json:"is_locked"`
	Reason   string `json:"reason,omitempty"`
}

// Service is the chat locking interface.
type Service interface {
	// Acquire takes the lock for the given reason. Fails with
	// ErrAlreadyLocked if another holder owns it.
	Acquire(ctx context.Context, chatID uuid.UUID, reason string, ttl time.Duration) error
	// Status reports whether the chat is locked and why.
	Status(ctx context.Context, chatID uuid.UUID) (Status, error)
	// Release drops the lock. Releasing an unlocked chat is a no-op.
	Release(ctx context.Context, chatID uuid.UUID) error
	// ForceRelease drops the lock unconditionally, recording the
	// escalation reason in the server log. User-driven escape hatch for
	// locks leaked by a crashed session.
	ForceRelease(ctx context.Context, chatID uuid.UUID, reason string) error
}

// RedisLock implements Service using go-redis/v9 with SET NX + TTL.
type RedisLock struct {
	client *redis.Client
}

// NewRedisLock creates a RedisLock from a Redis URL.
func NewRedisLock(redisURL string) (*RedisLock, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisLock{client: redis.NewClient(opts)}, nil
}

// NewRedisLockFromClient wraps an existing client. Used by tests.
func NewRedisLockFromClient(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

func (l *RedisLock) Close() error {
	return l.client.Close()
}

func lockKey(chatID uuid.UUID) string {
	return fmt.Sprintf("chatlock:%s", chatID)
}

func (l *RedisLock) Acquire(ctx context.Context, chatID uuid.UUID, reason string, ttl time.Duration) error {
	ok, err := l.client.SetNX(ctx, lockKey(chatID), reason, ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyLocked
	}
	return nil
}

func (l *RedisLock) Status(ctx context.Context, chatID uuid.UUID) (Status, error) {
	reason, err := l.client.Get(ctx, lockKey(chatID)).Result()
	if err == redis.Nil {
		return Status{IsLocked: false}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("lock status: %w", err)
	}
	return Status{IsLocked: true, Reason: reason}, nil
}

func (l *RedisLock) Release(ctx context.Context, chatID uuid.UUID) error {
	if err := l.client.Del(ctx, lockKey(chatID)).Err(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

func (l *RedisLock) ForceRelease(ctx context.Context, chatID uuid.UUID, reason string) error {
	if err := l.client.Del(ctx, lockKey(chatID)).Err(); err != nil {
		return fmt.Errorf("force release lock (%s): %w", reason, err)
	}
	slog.Warn("chat lock force released", "chat_id", chatID, "reason", reason)
	return nil
}

// Compile-time check that RedisLock implements Service.
var _ Service = (*RedisLock)(nil)
