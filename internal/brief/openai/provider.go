package openai

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

const defaultBaseURL = "https://api.openai.com/v1"

// Provider implements models.BriefProvider using the OpenAI chat API.
type Provider struct {
	cfg     config.OpenAIConfig
	baseURL string
	client  *http.Client
}

func NewProvider(cfg config.OpenAIConfig) *Provider {
	return &Provider{cfg: cfg, baseURL: defaultBaseURL, client: &http.Client{}}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) GenerateBrief(ctx context.Context, req models.BriefRequest) (string, error) {
	return p.complete(ctx, prompt.Generate(req))
}

func (p *Provider) ReviseBrief(ctx context.Context, briefText, feedback string) (string, error) {
	return p.complete(ctx, prompt.Revise(briefText, feedback))
}

func (p *Provider) complete(ctx context.Context, userPrompt string) (string, error) {
	body := chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: userPrompt},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai: unexpected status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("openai: decoding response: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai: empty completion")
	}
	return out.Choices[0].Message.Content, nil
}

// --- OpenAI wire types ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

var _ models.BriefProvider = (*Provider)(nil)
