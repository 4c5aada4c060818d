// Package render is the HTTP client for the external video render
// pipeline. The pipeline does the actual generation work; this service
// only dispatches jobs and polls their status.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/reelforge/reelforge/pkg/models"
)

// Sentinel errors for render pipeline failures.
var (
	ErrUnreachable         = errors.New("render pipeline unreachable")
	ErrTimeout             = errors.New("render pipeline timeout")
	ErrChatLocked          = errors.New("chat locked by render pipeline")
	ErrInsufficientCredits = errors.New("render pipeline rejected: insufficient credits")
	ErrRequestRejected     = errors.New("render pipeline rejected request")
)

// Client is the interface for talking to the render pipeline.
type Client interface {
	Start(ctx context.Context, req StartRequest) (*StartResult, error)
	StartRevision(ctx context.Context, req RevisionRequest) (*StartResult, error)
	Status(ctx context.Context, videoID, chatID uuid.UUID) (*StatusResult, error)
}

// StartRequest dispatches a new initial production. VideoID is the job
// record id assigned by this service; the pipeline adopts it.
type StartRequest struct {
	VideoID        uuid.UUID `json:"video_id"`
	ChatID         uuid.UUID `json:"chat_id"`
	Brief          string    `json:"brief"`
	ImageURL       string    `json:"image_url,omitempty"`
	CreditsCharged int       `json:"credits_charged"`
}

// RevisionRequest dispatches a revision of an earlier video.
type RevisionRequest struct {
	VideoID        uuid.UUID `json:"video_id"`
	ChatID         uuid.UUID `json:"chat_id"`
	ParentVideoID  uuid.UUID `json:"parent_video_id"`
	Brief          string    `json:"brief"`
	ImageURL       string    `json:"image_url,omitempty"`
	Feedback       string    `json:"feedback"`
	CreditsCharged int       `json:"credits_charged"`
}

// StartResult is the pipeline's acknowledgement of a dispatched job.
type StartResult struct {
	VideoID uuid.UUID `json:"video_id"`
}

// StatusResult is one status observation. VideoURL is set only when the
// status is completed, ErrorMessage only when failed.
type StatusResult struct {
	Status       models.VideoStatus `json:"status"`
	VideoURL     string             `json:"video_url,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
}

// HTTPClient implements Client against the pipeline's HTTP API.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a new render pipeline client.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	var result StartResult
	if err := c.post(ctx, "/v1/productions", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) StartRevision(ctx context.Context, req RevisionRequest) (*StartResult, error) {
	var result StartResult
	if err := c.post(ctx, "/v1/revisions", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Status(ctx context.Context, videoID, chatID uuid.UUID) (*StatusResult, error) {
	u := fmt.Sprintf("%s/v1/productions/%s?chat_id=%s", c.baseURL, videoID, chatID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	var result StatusResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding status response: %w", err)
	}
	return &result, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return statusError(resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// statusError maps pipeline HTTP status codes to sentinel errors.
func statusError(code int) error {
	switch code {
	case http.StatusLocked:
		return ErrChatLocked
	case http.StatusPaymentRequired:
		return ErrInsufficientCredits
	default:
		return fmt.Errorf("%w: status %d", ErrRequestRejected, code)
	}
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
