package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/ppiankov/consilium/internal/agent"
	"github.com/ppiankov/consilium/internal/consensus"
	"github.com/ppiankov/consilium/internal/model"
)

func newTestSession(t *testing.T, agents []agent.Agent) *Session {
	t.Helper()
	orch, err := New(agents, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	engine := consensus.NewEngine(model.ConsensusConfig{MinConfidence: 0.6, AgreementThreshold: 0.7})
	return NewSession(orch, engine)
}

func TestSession_Analyze_AllDimensions(t *testing.T) {
	agents := []agent.Agent{
		&mockAgent{id: "a", confidence: 0.8},
		&mockAgent{id: "b", confidence: 0.7},
	}
	s := newTestSession(t, agents)

	report := s.Analyze(context.Background(), "test query", nil, nil)

	if report.ID == "" {
		t.Error("expected generated report ID")
	}
	if report.Query != "test query" {
		t.Errorf("unexpected query: %q", report.Query)
	}
	if report.AgentsUsed != 2 {
		t.Errorf("expected 2 agents used, got %d", report.AgentsUsed)
	}
	if report.GeneratedAt.IsZero() {
		t.Error("expected GeneratedAt to be set")
	}

	// Empty dimension list means all four canonical passes.
	if len(report.Results) != 4 {
		t.Fatalf("expected 4 dimension results, got %d", len(report.Results))
	}
	for _, dim := range model.AllDimensions() {
		result, ok := report.Results[dim]
		if !ok {
			t.Errorf("missing result for dimension %s", dim)
			continue
		}
		if len(result.Opinions) != 2 {
			t.Errorf("dimension %s: expected 2 opinions, got %d", dim, len(result.Opinions))
		}
		if result.Consensus.Answer == "" {
			t.Errorf("dimension %s: expected non-empty answer", dim)
		}
	}
}

func TestSession_Analyze_SelectedDimensions(t *testing.T) {
	s := newTestSession(t, []agent.Agent{&mockAgent{id: "a", confidence: 0.8}})

	report := s.Analyze(context.Background(), "q", nil, []model.Dimension{model.DimensionWhat, model.DimensionWhy})

	if len(report.Results) != 2 {
		t.Fatalf("expected 2 dimension results, got %d", len(report.Results))
	}
	if _, ok := report.Results[model.DimensionHow]; ok {
		t.Error("unrequested dimension present in results")
	}
}

func TestSession_Analyze_FailuresRecorded(t *testing.T) {
	agents := []agent.Agent{
		&mockAgent{id: "a", confidence: 0.8},
		&mockAgent{id: "b", err: agent.Errorf(agent.KindRateLimited, "quota exhausted")},
	}
	s := newTestSession(t, agents)

	report := s.Analyze(context.Background(), "q", nil, []model.Dimension{model.DimensionWhat})

	result := report.Results[model.DimensionWhat]
	if len(result.Opinions) != 1 {
		t.Errorf("expected 1 opinion, got %d", len(result.Opinions))
	}
	if len(result.Failures) != 1 {
		t.Fatalf("expected 1 recorded failure, got %d", len(result.Failures))
	}
	if result.Failures[0].Kind != "rate_limited" {
		t.Errorf("expected rate_limited kind, got %s", result.Failures[0].Kind)
	}
}

func TestSession_Analyze_AllAgentsFail(t *testing.T) {
	agents := []agent.Agent{
		&mockAgent{id: "a", err: agent.Errorf(agent.KindTransport, "down")},
		&mockAgent{id: "b", err: agent.Errorf(agent.KindTransport, "down")},
	}
	s := newTestSession(t, agents)

	report := s.Analyze(context.Background(), "q", nil, []model.Dimension{model.DimensionWhat})

	result := report.Results[model.DimensionWhat]
	if len(result.Opinions) != 0 {
		t.Errorf("expected 0 opinions, got %d", len(result.Opinions))
	}
	if result.Consensus.Answer != "No responses available" {
		t.Errorf("expected degenerate consensus, got %q", result.Consensus.Answer)
	}
	if len(result.Failures) != 2 {
		t.Errorf("expected 2 failures, got %d", len(result.Failures))
	}
}
