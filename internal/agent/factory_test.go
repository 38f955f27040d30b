package agent

import (
	"testing"

	"github.com/ppiankov/consilium/internal/model"
)

func poolConfig() model.PoolConfig {
	cfg := model.DefaultConfig()
	return cfg.Pool
}

func TestNewPool_Empty(t *testing.T) {
	_, err := NewPool(Credentials{}, poolConfig())
	if err == nil {
		t.Fatal("expected error for empty credentials")
	}
}

func TestNewPool_Ordering(t *testing.T) {
	creds := Credentials{
		AnthropicKeys: []string{"key-a"},
		OpenAIKeys:    []string{"key-o"},
		DeepSeekKey:   "key-d",
	}

	agents, err := NewPool(creds, poolConfig())
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	want := []string{
		"claude-3-opus-20240229",
		"claude-3-5-sonnet-20241022",
		"gpt-4o",
		"o1-preview",
		"deepseek-reasoner",
	}

	if len(agents) != len(want) {
		t.Fatalf("expected %d agents, got %d", len(want), len(agents))
	}
	for i, id := range want {
		if agents[i].ID() != id {
			t.Errorf("position %d: expected %s, got %s", i, id, agents[i].ID())
		}
	}
}

func TestNewPool_DuplicateModelsSuffixed(t *testing.T) {
	creds := Credentials{
		OpenAIKeys: []string{"key-1", "key-2"},
	}

	agents, err := NewPool(creds, poolConfig())
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	ids := make(map[string]bool)
	for _, a := range agents {
		if ids[a.ID()] {
			t.Fatalf("duplicate agent ID %s", a.ID())
		}
		ids[a.ID()] = true
	}

	if !ids["gpt-4o"] || !ids["gpt-4o-2"] {
		t.Errorf("expected suffixed duplicate IDs, got %v", ids)
	}
}

func TestNewPool_MaxAgentsCap(t *testing.T) {
	cfg := poolConfig()
	cfg.MaxAgents = 3

	creds := Credentials{
		AnthropicKeys: []string{"a1", "a2"},
		OpenAIKeys:    []string{"o1", "o2", "o3"},
	}

	agents, err := NewPool(creds, cfg)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	if len(agents) != 3 {
		t.Errorf("expected pool capped at 3, got %d", len(agents))
	}
}

func TestNewPool_KeyLimits(t *testing.T) {
	// A fourth OpenAI key is ignored: at most three keys contribute agents.
	creds := Credentials{
		OpenAIKeys: []string{"k1", "k2", "k3", "k4"},
	}

	agents, err := NewPool(creds, poolConfig())
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	if len(agents) != 6 {
		t.Errorf("expected 6 agents (3 keys x 2 models), got %d", len(agents))
	}
}

func TestSplitKeys(t *testing.T) {
	got := splitKeys(" k1 , k2,, k3 ")
	want := []string{"k1", "k2", "k3"}
	if len(got) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	if keys := splitKeys(""); keys != nil {
		t.Errorf("expected nil for empty input, got %v", keys)
	}
}
