package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/consilium/internal/model"
)

// AnthropicAgent implements the Agent interface for Anthropic Claude models.
type AnthropicAgent struct {
	id         string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cfg        Config
	limiter    *Limiter
}

// Anthropic API structures
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicAgent creates a new Anthropic-backed agent.
func NewAnthropicAgent(cfg Config, limiter *Limiter) (*AnthropicAgent, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("Anthropic model name is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	return &AnthropicAgent{
		id:         cfg.ID,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		cfg:        cfg,
		limiter:    limiter,
	}, nil
}

// ID returns the stable pool-entry identifier.
func (a *AnthropicAgent) ID() string {
	return a.id
}

// Label returns a human-readable model label.
func (a *AnthropicAgent) Label() string {
	return "anthropic/" + a.cfg.Model
}

// Available checks if the backend is configured and reachable.
func (a *AnthropicAgent) Available(ctx context.Context) bool {
	req := anthropicRequest{
		Model:     a.cfg.Model,
		MaxTokens: 10,
		Messages: []anthropicMessage{
			{Role: "user", Content: "Hi"},
		},
	}

	_, err := a.makeRequest(ctx, req)
	return err == nil
}

// Produce analyzes the corpus with one Messages API call.
func (a *AnthropicAgent) Produce(ctx context.Context, req Request) (*model.Opinion, error) {
	started := time.Now()

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx, "anthropic"); err != nil {
			return nil, WrapError(KindOf(err), "rate limit wait", err)
		}
	}

	apiReq := anthropicRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		System:      analystSystemPrompt,
		Temperature: a.cfg.Temperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: buildPrompt(req.Query, req.Corpus, req.Dimension)},
		},
	}

	resp, err := a.makeRequest(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	if len(resp.Content) == 0 {
		return nil, Errorf(KindMalformed, "no content in Anthropic response")
	}

	return buildOpinion(a.id, req, resp.Content[0].Text, started)
}

// makeRequest makes an HTTP request to the Anthropic Messages API.
func (a *AnthropicAgent) makeRequest(ctx context.Context, apiReq anthropicRequest) (*anthropicResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, Errorf(KindMalformed, "marshal request: %v", err)
	}

	url := fmt.Sprintf("%s/v1/messages", a.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(KindTransport, "create request", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, WrapError(KindTimeout, "anthropic call", err)
		}
		return nil, WrapError(KindTransport, "execute request", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, WrapError(KindTransport, "read response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr anthropicError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, Errorf(classifyStatus(httpResp.StatusCode), "API error (%d): %s - %s",
				httpResp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
		}
		return nil, Errorf(classifyStatus(httpResp.StatusCode), "API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp anthropicResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, Errorf(KindMalformed, "unmarshal response: %v", err)
	}

	return &resp, nil
}
