package models

import "context"

// BriefProvider is the interface every LLM integration must implement.
// Callers inject this interface rather than a concrete provider.
type BriefProvider interface {
	// GenerateBrief turns a product description (and optional reference
	// image URL) into a structured creative plan for a 30-second video.
	GenerateBrief(ctx context.Context, req BriefRequest) (string, error)
	// ReviseBrief rewrites an existing brief to incorporate user feedback.
	ReviseBrief(ctx context.Context, brief, feedback string) (string, error)
	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string
}

// BriefRequest is the input to a brief generation call.
type BriefRequest struct {
	Prompt   string
	ImageURL string
}
