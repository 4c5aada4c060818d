package brief

import (
	"fmt"

	"github.com/reelforge/reelforge/internal/brief/anthropic"
	"github.com/reelforge/reelforge/internal/brief/mock"
	"github.com/reelforge/reelforge/internal/brief/openai"
	"github.com/reelforge/reelforge/internal/config"
	"github.com/reelforge/reelforge/pkg/models"
)

// NewProvider constructs the appropriate brief provider based on config.
// Called once at server startup.
func NewProvider(cfg config.BriefConfig) (models.BriefProvider, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewProvider(cfg.OpenAI), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic), nil
	case "mock":
		return mock.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown brief provider %q: must be one of openai, anthropic, mock", cfg.Provider)
	}
}
