package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/consilium/internal/consensus"
	"github.com/ppiankov/consilium/internal/model"
)

// Session runs the orchestrate-then-reduce pipeline once per requested
// dimension and assembles the combined report. Dimensions are fully
// independent: a fully-failed round for one never blocks the others.
type Session struct {
	orch   *Orchestrator
	engine *consensus.Engine
}

// NewSession creates an analysis session.
func NewSession(orch *Orchestrator, engine *consensus.Engine) *Session {
	return &Session{orch: orch, engine: engine}
}

// Analyze runs every requested dimension sequentially over the same corpus.
// An empty dimensions list means all four canonical passes.
func (s *Session) Analyze(ctx context.Context, query string, corpus []model.Document, dimensions []model.Dimension) *model.Report {
	if len(dimensions) == 0 {
		dimensions = model.AllDimensions()
	}

	results := make(map[model.Dimension]model.DimensionResult, len(dimensions))
	for _, dim := range dimensions {
		opinions, failures := s.orch.Run(ctx, query, corpus, dim)

		records := make([]model.Failure, 0, len(failures))
		for _, f := range failures {
			records = append(records, f.Record())
		}

		results[dim] = model.DimensionResult{
			Opinions:  opinions,
			Consensus: s.engine.Reduce(opinions),
			Failures:  records,
		}
	}

	return &model.Report{
		ID:          uuid.NewString(),
		Query:       query,
		GeneratedAt: time.Now().UTC(),
		Documents:   corpus,
		AgentsUsed:  s.orch.PoolSize(),
		Results:     results,
	}
}
