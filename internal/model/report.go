package model

import "time"

// Failure records one agent that produced no opinion in a round. Failures
// are diagnostic metadata, never an error condition for the round itself.
type Failure struct {
	AgentID string `json:"agent_id"`
	Kind    string `json:"kind"`
	Error   string `json:"error"`
}

// DimensionResult pairs one dimension's surviving opinions with their
// reduced consensus and per-agent failure diagnostics.
type DimensionResult struct {
	Opinions  []Opinion `json:"opinions"`
	Consensus Consensus `json:"consensus"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Report is the complete output of one analysis session: every requested
// dimension reduced independently over the same corpus.
type Report struct {
	ID          string                        `json:"id"`
	Query       string                        `json:"query"`
	GeneratedAt time.Time                     `json:"generated_at"`
	Documents   []Document                    `json:"documents,omitempty"`
	AgentsUsed  int                           `json:"agents_used"`
	Results     map[Dimension]DimensionResult `json:"results"`
}
