package models

import (
	"time"

	"github.com/google/uuid"
)

// VideoStatus is the lifecycle state of a production job.
type VideoStatus string

const (
	VideoStatusQueued     VideoStatus = "queued"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusCompleted  VideoStatus = "completed"
	VideoStatusFailed     VideoStatus = "failed"
	VideoStatusCancelled  VideoStatus = "cancelled"
)

// videoTransitions defines the legal status edges. Terminal states
// (completed, failed, cancelled) have no outgoing edges.
var videoTransitions = map[VideoStatus][]VideoStatus{
	VideoStatusQueued:     {VideoStatusProcessing, VideoStatusCompleted, VideoStatusFailed, VideoStatusCancelled},
	VideoStatusProcessing: {VideoStatusCompleted, VideoStatusFailed, VideoStatusCancelled},
}

// CanTransition reports whether moving from s to next is a legal edge.
func (s VideoStatus) CanTransition(next VideoStatus) bool {
	for _, allowed := range videoTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s VideoStatus) Terminal() bool {
	return len(videoTransitions[s]) == 0
}

// VideoKind distinguishes a first production run from a revision of an
// earlier video. The kind selects the credit cost and timeout profile.
type VideoKind string

const (
	VideoKindInitial  VideoKind = "initial"
	VideoKindRevision VideoKind = "revision"
)

// Video is one production job. A chat may accumulate many videos over
// time but holds at most one non-terminal video at once.
type Video struct {
	ID                    uuid.UUID   `db:"id"                      json:"id"`
	ChatID                uuid.UUID   `db:"chat_id"                 json:"chat_id"`
	Kind                  VideoKind   `db:"kind"                    json:"kind"`
	ParentVideoID         *uuid.UUID  `db:"parent_video_id"         json:"parent_video_id,omitempty"`
	Status                VideoStatus `db:"status"                  json:"status"`
	Prompt                string      `db:"prompt"                  json:"prompt"`
	ImageURL              *string     `db:"image_url"               json:"image_url,omitempty"`
	VideoURL              *string     `db:"video_url"               json:"video_url,omitempty"`
	ErrorMessage          *string     `db:"error_message"           json:"error_message,omitempty"`
	CreditsCharged        int         `db:"credits_charged"         json:"credits_charged"`
	CancelledBy           *string     `db:"cancelled_by"            json:"cancelled_by,omitempty"`
	CancellationReason    *string     `db:"cancellation_reason"     json:"cancellation_reason,omitempty"`
	ProcessingStartedAt   *time.Time  `db:"processing_started_at"   json:"processing_started_at,omitempty"`
	ProcessingCompletedAt *time.Time  `db:"processing_completed_at" json:"processing_completed_at,omitempty"`
	CreatedAt             time.Time   `db:"created_at"              json:"created_at"`
	UpdatedAt             time.Time   `db:"updated_at"              json:"updated_at"`
}
