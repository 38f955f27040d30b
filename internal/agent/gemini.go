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

// GeminiAgent implements the Agent interface for Google Gemini models via
// the Generative Language REST API.
type GeminiAgent struct {
	id         string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cfg        Config
	limiter    *Limiter
}

// Gemini API structures
type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGeminiAgent creates a new Gemini-backed agent.
func NewGeminiAgent(cfg Config, limiter *Limiter) (*GeminiAgent, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Google API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("Gemini model name is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	return &GeminiAgent{
		id:         cfg.ID,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		cfg:        cfg,
		limiter:    limiter,
	}, nil
}

// ID returns the stable pool-entry identifier.
func (a *GeminiAgent) ID() string {
	return a.id
}

// Label returns a human-readable model label.
func (a *GeminiAgent) Label() string {
	return "gemini/" + a.cfg.Model
}

// Available checks if the backend is configured and reachable.
func (a *GeminiAgent) Available(ctx context.Context) bool {
	req := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: "Hi"}}},
		},
		GenerationConfig: geminiGenConfig{MaxOutputTokens: 10},
	}

	_, err := a.makeRequest(ctx, req)
	return err == nil
}

// Produce analyzes the corpus with one generateContent call.
func (a *GeminiAgent) Produce(ctx context.Context, req Request) (*model.Opinion, error) {
	started := time.Now()

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx, "gemini"); err != nil {
			return nil, WrapError(KindOf(err), "rate limit wait", err)
		}
	}

	apiReq := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: buildPrompt(req.Query, req.Corpus, req.Dimension)}}},
		},
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: analystSystemPrompt}}},
		GenerationConfig: geminiGenConfig{
			Temperature:     a.cfg.Temperature,
			MaxOutputTokens: a.cfg.MaxTokens,
		},
	}

	resp, err := a.makeRequest(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, Errorf(KindMalformed, "no candidates in Gemini response")
	}

	return buildOpinion(a.id, req, resp.Candidates[0].Content.Parts[0].Text, started)
}

// makeRequest makes an HTTP request to the Generative Language API.
func (a *GeminiAgent) makeRequest(ctx context.Context, apiReq geminiRequest) (*geminiResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, Errorf(KindMalformed, "marshal request: %v", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", a.baseURL, a.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(KindTransport, "create request", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", a.apiKey)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, WrapError(KindTimeout, "gemini call", err)
		}
		return nil, WrapError(KindTransport, "execute request", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, WrapError(KindTransport, "read response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr geminiError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, Errorf(classifyStatus(httpResp.StatusCode), "API error (%d): %s - %s",
				httpResp.StatusCode, apiErr.Error.Status, apiErr.Error.Message)
		}
		return nil, Errorf(classifyStatus(httpResp.StatusCode), "API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp geminiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, Errorf(KindMalformed, "unmarshal response: %v", err)
	}

	return &resp, nil
}
