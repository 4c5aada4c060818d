package models

import (
	"time"

	"github.com/google/uuid"
)

// Message roles. System messages are written by the service itself
// (production started, timed out, cancelled, refund notices).
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
	MessageRoleSystem    = "system"
)

// Message is a single chat transcript entry. Metadata carries
// role-specific details (image URL on user messages, refund amounts on
// system notices) and is stored as JSONB.
type Message struct {
	ID        uuid.UUID      `db:"id"         json:"id"`
	ChatID    uuid.UUID      `db:"chat_id"    json:"chat_id"`
	Role      string         `db:"role"       json:"role"`
	Content   string         `db:"content"    json:"content"`
	Metadata  map[string]any `db:"metadata"   json:"metadata,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
