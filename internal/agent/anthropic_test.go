package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ppiankov/consilium/internal/model"
)

func anthropicTestConfig(baseURL string) Config {
	return Config{
		ID:          "claude-test",
		Model:       "claude-3-5-sonnet-20241022",
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Temperature: 0.7,
		MaxTokens:   1000,
	}
}

func TestAnthropicAgent_Produce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("unexpected api key header: %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("unexpected version header: %q", got)
		}

		var apiReq anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&apiReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if apiReq.Model != "claude-3-5-sonnet-20241022" {
			t.Errorf("unexpected model: %q", apiReq.Model)
		}
		if len(apiReq.Messages) != 1 || apiReq.Messages[0].Role != "user" {
			t.Errorf("unexpected messages: %+v", apiReq.Messages)
		}

		resp := anthropicResponse{}
		resp.Content = []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{
			{Type: "text", Text: "The papers agree.\n\nKey claims:\n- attention works\n\nConfidence: 0.9"},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	a, err := NewAnthropicAgent(anthropicTestConfig(server.URL), nil)
	if err != nil {
		t.Fatal(err)
	}

	op, err := a.Produce(context.Background(), Request{Query: "q", Dimension: model.DimensionWhat})
	if err != nil {
		t.Fatalf("Produce failed: %v", err)
	}

	if op.AgentID != "claude-test" {
		t.Errorf("unexpected agent ID: %q", op.AgentID)
	}
	if op.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %v", op.Confidence)
	}
	if len(op.Claims) != 1 || op.Claims[0] != "attention works" {
		t.Errorf("unexpected claims: %v", op.Claims)
	}
}

func TestAnthropicAgent_RateLimitedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"quota exhausted"}}`))
	}))
	defer server.Close()

	a, err := NewAnthropicAgent(anthropicTestConfig(server.URL), nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = a.Produce(context.Background(), Request{Query: "q", Dimension: model.DimensionWhat})
	if err == nil {
		t.Fatal("expected error for 429")
	}
	if KindOf(err) != KindRateLimited {
		t.Errorf("expected rate_limited kind, got %s", KindOf(err))
	}
}

func TestAnthropicAgent_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"msg","content":[]}`))
	}))
	defer server.Close()

	a, err := NewAnthropicAgent(anthropicTestConfig(server.URL), nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = a.Produce(context.Background(), Request{Query: "q"})
	if err == nil {
		t.Fatal("expected error for empty content")
	}
	if KindOf(err) != KindMalformed {
		t.Errorf("expected malformed kind, got %s", KindOf(err))
	}
}

func TestNewAnthropicAgent_Validation(t *testing.T) {
	if _, err := NewAnthropicAgent(Config{Model: "m"}, nil); err == nil {
		t.Error("expected error for missing API key")
	}
	if _, err := NewAnthropicAgent(Config{APIKey: "k"}, nil); err == nil {
		t.Error("expected error for missing model")
	}
}
