package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/reelforge/reelforge/internal/brief/prompt"
	"github.com/reelforge/reelforge/internal/config"
	"github.com/reelforge/reelforge/pkg/models"
)

const (
	defaultBaseURL   = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"
	maxTokens        = 2048
)

// Provider implements models.BriefProvider using the Anthropic messages API.
type Provider struct {
	cfg     config.AnthropicConfig
	baseURL string
	client  *http.Client
}

func NewProvider(cfg config.AnthropicConfig) *Provider {
	return &Provider{cfg: cfg, baseURL: defaultBaseURL, client: &http.Client{}}
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) GenerateBrief(ctx context.Context, req models.BriefRequest) (string, error) {
	return p.complete(ctx, prompt.Generate(req))
}

func (p *Provider) ReviseBrief(ctx context.Context, briefText, feedback string) (string, error) {
	return p.complete(ctx, prompt.Revise(briefText, feedback))
}

func (p *Provider) complete(ctx context.Context, userPrompt string) (string, error) {
	body := messagesRequest{
		Model:     p.cfg.Model,
		MaxTokens: maxTokens,
		System:    prompt.System,
		Messages: []message{
			{Role: "user", Content: userPrompt},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic: unexpected status %d", resp.StatusCode)
	}

	var out messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("anthropic: decoding response: %w", err)
	}
	if len(out.Content) == 0 || out.Content[0].Text == "" {
		return "", fmt.Errorf("anthropic: empty completion")
	}
	return out.Content[0].Text, nil
}

// --- Anthropic wire types ---

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

var _ models.BriefProvider = (*Provider)(nil)
