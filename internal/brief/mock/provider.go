package mock

import (
	"context"
	"fmt"

	"github.com/reelforge/reelforge/pkg/models"
)

// MockProvider satisfies models.BriefProvider for testing and local development.
type MockProvider struct {
	Name_        string
	GenerateFunc func(ctx context.Context, req models.BriefRequest) (string, error)
	ReviseFunc   func(ctx context.Context, brief, feedback string) (string, error)
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) GenerateBrief(ctx context.Context, req models.BriefRequest) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "", nil
}

func (m *MockProvider) ReviseBrief(ctx context.Context, brief, feedback string) (string, error) {
	if m.ReviseFunc != nil {
		return m.ReviseFunc(ctx, brief, feedback)
	}
	return brief, nil
}

// NewMockProvider returns a MockProvider with sensible default responses.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		GenerateFunc: func(_ context.Context, req models.BriefRequest) (string, error) {
			return fmt.Sprintf("Scene 1: Opening shot introducing %q.\nScene 2: Product close-up.\nScene 3: Call to action.", req.Prompt), nil
		},
		ReviseFunc: func(_ context.Context, brief, feedback string) (string, error) {
			return fmt.Sprintf("%s\n\nRevised per feedback: %s", brief, feedback), nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		GenerateFunc: func(_ context.Context, _ models.BriefRequest) (string, error) {
			return "", err
		},
		ReviseFunc: func(_ context.Context, _, _ string) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		GenerateFunc: func(ctx context.Context, _ models.BriefRequest) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
		ReviseFunc: func(ctx context.Context, _, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
}

// Compile-time check that MockProvider implements BriefProvider.
var _ models.BriefProvider = (*MockProvider)(nil)
