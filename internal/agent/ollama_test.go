package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ppiankov/consilium/internal/model"
)

func TestOllamaAgent_Produce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var apiReq ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&apiReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if apiReq.Stream {
			t.Error("expected non-streaming request")
		}
		if apiReq.Model != "llama3.1" {
			t.Errorf("unexpected model: %q", apiReq.Model)
		}

		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:    "llama3.1",
			Response: "Local analysis.\n\nConfidence: 0.7",
			Done:     true,
		})
	}))
	defer server.Close()

	a, err := NewOllamaAgent(Config{ID: "llama", Model: "llama3.1", BaseURL: server.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}

	op, err := a.Produce(context.Background(), Request{Query: "q", Dimension: model.DimensionGeneral})
	if err != nil {
		t.Fatalf("Produce failed: %v", err)
	}
	if op.Confidence != 0.7 {
		t.Errorf("expected confidence 0.7, got %v", op.Confidence)
	}
}

func TestOllamaAgent_Available(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	a, err := NewOllamaAgent(Config{ID: "llama", Model: "llama3.1", BaseURL: server.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !a.Available(context.Background()) {
		t.Error("expected available against healthy endpoint")
	}

	server.Close()
	if a.Available(context.Background()) {
		t.Error("expected unavailable after server shutdown")
	}
}

func TestOllamaAgent_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	a, err := NewOllamaAgent(Config{ID: "llama", Model: "missing", BaseURL: server.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = a.Produce(context.Background(), Request{Query: "q"})
	if err == nil {
		t.Fatal("expected API error")
	}
	if KindOf(err) != KindTransport {
		t.Errorf("expected transport kind, got %s", KindOf(err))
	}
}

func TestNewOllamaAgent_Defaults(t *testing.T) {
	a, err := NewOllamaAgent(Config{ID: "llama", Model: "llama3.1"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.baseURL != "http://localhost:11434" {
		t.Errorf("unexpected default base URL: %q", a.baseURL)
	}

	if _, err := NewOllamaAgent(Config{ID: "x"}, nil); err == nil {
		t.Error("expected error for missing model")
	}
}
