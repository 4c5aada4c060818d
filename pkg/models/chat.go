// Package models contains shared data models used across the reelforge codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowState tracks where a chat is in the brief-then-produce flow.
type WorkflowState string

const (
	WorkflowStateDraft            WorkflowState = "draft"
	WorkflowStateBriefing         WorkflowState = "briefing"
	WorkflowStateAwaitingApproval WorkflowState = "awaiting_approval"
	WorkflowStateInProduction     WorkflowState = "in_production"
	WorkflowStateCompleted        WorkflowState = "completed"
)

// Chat is one conversation between a user and the brief assistant.
// ActiveVideoID is non-nil exactly while WorkflowState is in_production;
// ProductionStartedAt mirrors the active video's start so watchers can be
// reconstructed from persisted state after a restart.
type Chat struct {
	ID                  uuid.UUID     `db:"id"                    json:"id"`
	UserID              uuid.UUID     `db:"user_id"               json:"user_id"`
	Title               string        `db:"title"                 json:"title"`
	WorkflowState       WorkflowState `db:"workflow_state"        json:"workflow_state"`
	ActiveVideoID       *uuid.UUID    `db:"active_video_id"       json:"active_video_id,omitempty"`
	ProductionStartedAt *time.Time    `db:"production_started_at" json:"production_started_at,omitempty"`
	CreatedAt           time.Time     `db:"created_at"            json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at"            json:"updated_at"`
}
