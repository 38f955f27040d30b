package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/consilium/internal/agent"
	"github.com/ppiankov/consilium/internal/model"
)

// mockAgent implements agent.Agent
type mockAgent struct {
	id         string
	confidence float64
	err        error
	delay      time.Duration
	panics     bool
	nilOpinion bool
}

func (m *mockAgent) ID() string    { return m.id }
func (m *mockAgent) Label() string { return "mock/" + m.id }

func (m *mockAgent) Available(ctx context.Context) bool { return true }

func (m *mockAgent) Produce(ctx context.Context, req agent.Request) (*model.Opinion, error) {
	if m.panics {
		panic("mock agent exploded")
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.nilOpinion {
		return nil, nil
	}
	return &model.Opinion{
		AgentID:    m.id,
		Dimension:  req.Dimension,
		Narrative:  "narrative from " + m.id,
		Confidence: m.confidence,
	}, nil
}

func TestNew_EmptyPool(t *testing.T) {
	if _, err := New(nil, time.Second); err == nil {
		t.Error("expected error for empty pool")
	}
}

func TestNew_DefaultTimeout(t *testing.T) {
	o, err := New([]agent.Agent{&mockAgent{id: "a", confidence: 0.8}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if o.timeout != DefaultAgentTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultAgentTimeout, o.timeout)
	}
}

func TestRun_AllSucceed(t *testing.T) {
	agents := []agent.Agent{
		&mockAgent{id: "a", confidence: 0.9},
		&mockAgent{id: "b", confidence: 0.8},
		&mockAgent{id: "c", confidence: 0.7},
	}
	o, err := New(agents, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	opinions, failures := o.Run(context.Background(), "test query", nil, model.DimensionWhat)

	if len(opinions) != 3 {
		t.Fatalf("expected 3 opinions, got %d", len(opinions))
	}
	if len(failures) != 0 {
		t.Fatalf("expected 0 failures, got %d", len(failures))
	}

	// Opinions come back compacted in pool order regardless of completion
	// order.
	for i, id := range []string{"a", "b", "c"} {
		if opinions[i].AgentID != id {
			t.Errorf("expected opinion %d from %s, got %s", i, id, opinions[i].AgentID)
		}
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	agents := []agent.Agent{
		&mockAgent{id: "a", confidence: 0.9},
		&mockAgent{id: "b", err: agent.Errorf(agent.KindTransport, "connection refused")},
		&mockAgent{id: "c", confidence: 0.7},
	}
	o, err := New(agents, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	opinions, failures := o.Run(context.Background(), "q", nil, model.DimensionHow)

	if len(opinions) != 2 {
		t.Fatalf("expected 2 opinions, got %d", len(opinions))
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if failures[0].AgentID != "b" {
		t.Errorf("expected failure from b, got %s", failures[0].AgentID)
	}
	if failures[0].Kind != agent.KindTransport {
		t.Errorf("expected transport kind, got %s", failures[0].Kind)
	}
}

func TestRun_SlowAgentTimesOut(t *testing.T) {
	agents := []agent.Agent{
		&mockAgent{id: "fast", confidence: 0.8},
		&mockAgent{id: "slow", confidence: 0.8, delay: 5 * time.Second},
	}
	o, err := New(agents, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	opinions, failures := o.Run(context.Background(), "q", nil, model.DimensionWhy)

	if len(opinions) != 1 || opinions[0].AgentID != "fast" {
		t.Fatalf("expected only fast agent's opinion, got %+v", opinions)
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if failures[0].Kind != agent.KindTimeout {
		t.Errorf("expected timeout kind, got %s", failures[0].Kind)
	}
}

func TestRun_PanicRecovered(t *testing.T) {
	agents := []agent.Agent{
		&mockAgent{id: "a", confidence: 0.8},
		&mockAgent{id: "boom", panics: true},
	}
	o, err := New(agents, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	opinions, failures := o.Run(context.Background(), "q", nil, model.DimensionWhat)

	if len(opinions) != 1 {
		t.Fatalf("expected 1 opinion, got %d", len(opinions))
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if failures[0].AgentID != "boom" {
		t.Errorf("expected failure from boom, got %s", failures[0].AgentID)
	}
}

func TestRun_ContractChecks(t *testing.T) {
	agents := []agent.Agent{
		&mockAgent{id: "nil-op", nilOpinion: true},
		&mockAgent{id: "over", confidence: 1.5},
		&mockAgent{id: "under", confidence: -0.1},
	}
	o, err := New(agents, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	opinions, failures := o.Run(context.Background(), "q", nil, model.DimensionWhat)

	if len(opinions) != 0 {
		t.Fatalf("expected 0 opinions, got %d", len(opinions))
	}
	if len(failures) != 3 {
		t.Fatalf("expected 3 failures, got %d", len(failures))
	}
	for _, f := range failures {
		if f.Kind != agent.KindMalformed {
			t.Errorf("agent %s: expected malformed kind, got %s", f.AgentID, f.Kind)
		}
	}
}

func TestFailure_Record(t *testing.T) {
	f := Failure{AgentID: "a", Kind: agent.KindTimeout, Err: errors.New("deadline exceeded")}
	rec := f.Record()

	if rec.AgentID != "a" || rec.Kind != "timeout" || rec.Error != "deadline exceeded" {
		t.Errorf("unexpected record: %+v", rec)
	}

	empty := Failure{AgentID: "b", Kind: agent.KindTransport}
	if got := empty.Record().Error; got != "" {
		t.Errorf("expected empty error string, got %q", got)
	}
}
