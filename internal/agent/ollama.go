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

// OllamaAgent implements the Agent interface for local Ollama models.
type OllamaAgent struct {
	id         string
	baseURL    string
	httpClient *http.Client
	cfg        Config
	limiter    *Limiter
}

// Ollama API structures
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	System  string        `json:"system,omitempty"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

type ollamaResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaAgent creates a new Ollama-backed agent.
func NewOllamaAgent(cfg Config, limiter *Limiter) (*OllamaAgent, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b, mistral)")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	return &OllamaAgent{
		id:         cfg.ID,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		cfg:        cfg,
		limiter:    limiter,
	}, nil
}

// ID returns the stable pool-entry identifier.
func (a *OllamaAgent) ID() string {
	return a.id
}

// Label returns a human-readable model label.
func (a *OllamaAgent) Label() string {
	return "ollama/" + a.cfg.Model
}

// Available checks if Ollama is running by listing local models.
func (a *OllamaAgent) Available(ctx context.Context) bool {
	url := fmt.Sprintf("%s/api/tags", a.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// Produce analyzes the corpus with one generate call.
func (a *OllamaAgent) Produce(ctx context.Context, req Request) (*model.Opinion, error) {
	started := time.Now()

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx, "ollama"); err != nil {
			return nil, WrapError(KindOf(err), "rate limit wait", err)
		}
	}

	apiReq := ollamaRequest{
		Model:  a.cfg.Model,
		Prompt: buildPrompt(req.Query, req.Corpus, req.Dimension),
		Stream: false, // Get complete response at once
		System: analystSystemPrompt,
		Options: ollamaOptions{
			Temperature: a.cfg.Temperature,
			NumPredict:  a.cfg.MaxTokens,
		},
	}

	resp, err := a.makeRequest(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	return buildOpinion(a.id, req, resp.Response, started)
}

// makeRequest makes an HTTP request to the Ollama API.
func (a *OllamaAgent) makeRequest(ctx context.Context, apiReq ollamaRequest) (*ollamaResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, Errorf(KindMalformed, "marshal request: %v", err)
	}

	url := fmt.Sprintf("%s/api/generate", a.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(KindTransport, "create request", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, WrapError(KindTimeout, "ollama call", err)
		}
		return nil, WrapError(KindTransport, "execute request", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, WrapError(KindTransport, "read response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, Errorf(classifyStatus(httpResp.StatusCode), "API error (%d): %s", httpResp.StatusCode, apiErr.Error)
		}
		return nil, Errorf(classifyStatus(httpResp.StatusCode), "API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp ollamaResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, Errorf(KindMalformed, "unmarshal response: %v", err)
	}

	return &resp, nil
}
