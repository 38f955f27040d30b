// Package orchestrator fans one analytical query out to a pool of
// independent reasoning agents, isolates per-agent failure, and aggregates
// the opinions that survive.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ppiankov/consilium/internal/agent"
	"github.com/ppiankov/consilium/internal/model"
)

// DefaultAgentTimeout bounds one agent invocation when no timeout is
// configured. Reasoning backends can legitimately take minutes.
const DefaultAgentTimeout = 300 * time.Second

// Failure records one agent that produced no opinion this round.
type Failure struct {
	AgentID string
	Kind    agent.Kind
	Err     error
}

// Record converts a failure into its serializable report form.
func (f Failure) Record() model.Failure {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return model.Failure{AgentID: f.AgentID, Kind: string(f.Kind), Error: msg}
}

// Orchestrator owns a fixed agent pool and runs every agent concurrently
// per analysis round. The pool is read-only after construction, so a single
// Orchestrator is safe for concurrent Run calls.
type Orchestrator struct {
	agents  []agent.Agent
	timeout time.Duration
}

// New creates an orchestrator over a fixed ordered pool. An empty pool is
// a configuration error surfaced here, once, rather than per call.
func New(agents []agent.Agent, timeout time.Duration) (*Orchestrator, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("agent pool is empty")
	}
	if timeout <= 0 {
		timeout = DefaultAgentTimeout
	}
	return &Orchestrator{agents: agents, timeout: timeout}, nil
}

// PoolSize returns the number of agents in the pool.
func (o *Orchestrator) PoolSize() int {
	return len(o.agents)
}

// Agents returns the pool for diagnostics. Callers must not mutate it.
func (o *Orchestrator) Agents() []agent.Agent {
	return o.agents
}

// unit holds one agent's outcome. Exactly one field is set.
type unit struct {
	opinion *model.Opinion
	failure *Failure
}

// Run invokes every agent in the pool concurrently for one
// query+corpus+dimension and waits for all of them to finish or time out.
// There is no short-circuit: this is an all-complete barrier, not a race.
//
// Opinions come back compacted in pool order, so repeated runs with the
// same successes produce the same sequence. No agent failure aborts the
// others; failures surface only in the returned diagnostics.
func (o *Orchestrator) Run(ctx context.Context, query string, corpus []model.Document, dimension model.Dimension) ([]model.Opinion, []Failure) {
	units := make([]unit, len(o.agents))
	req := agent.Request{Query: query, Corpus: corpus, Dimension: dimension}

	var wg sync.WaitGroup
	for i, ag := range o.agents {
		wg.Add(1)
		go func(i int, ag agent.Agent) {
			defer wg.Done()
			units[i] = o.runOne(ctx, ag, req)
		}(i, ag)
	}
	wg.Wait()

	opinions := make([]model.Opinion, 0, len(units))
	var failures []Failure
	for _, u := range units {
		if u.opinion != nil {
			opinions = append(opinions, *u.opinion)
		} else if u.failure != nil {
			failures = append(failures, *u.failure)
		}
	}

	fmt.Fprintf(os.Stderr, "orchestrator: dimension=%s agents_total=%d agents_succeeded=%d agents_failed=%d\n",
		dimension, len(o.agents), len(opinions), len(failures))

	return opinions, failures
}

// runOne executes a single agent under its own deadline. Panics and errors
// inside one unit never propagate to or cancel sibling units.
func (o *Orchestrator) runOne(ctx context.Context, ag agent.Agent, req agent.Request) (result unit) {
	defer func() {
		if r := recover(); r != nil {
			result = unit{failure: &Failure{
				AgentID: ag.ID(),
				Kind:    agent.KindTransport,
				Err:     fmt.Errorf("agent panicked: %v", r),
			}}
		}
	}()

	unitCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	opinion, err := ag.Produce(unitCtx, req)
	if err != nil {
		kind := agent.KindOf(err)
		if unitCtx.Err() == context.DeadlineExceeded {
			kind = agent.KindTimeout
		}
		fmt.Fprintf(os.Stderr, "orchestrator: agent %s (%s) failed: %v\n", ag.ID(), ag.Label(), err)
		return unit{failure: &Failure{AgentID: ag.ID(), Kind: kind, Err: err}}
	}

	// Contract checks: the opinion must be populated and its confidence
	// normalized before it may enter the consensus engine.
	if opinion == nil {
		return unit{failure: &Failure{
			AgentID: ag.ID(),
			Kind:    agent.KindMalformed,
			Err:     fmt.Errorf("agent returned no opinion and no error"),
		}}
	}
	if opinion.Confidence < 0 || opinion.Confidence > 1 {
		return unit{failure: &Failure{
			AgentID: ag.ID(),
			Kind:    agent.KindMalformed,
			Err:     fmt.Errorf("confidence %g outside [0,1]", opinion.Confidence),
		}}
	}

	return unit{opinion: opinion}
}
