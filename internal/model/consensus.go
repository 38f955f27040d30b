package model

// ContradictionSeverity grades how widespread a flagged tension is.
type ContradictionSeverity string

const (
	SeverityMedium ContradictionSeverity = "medium" // Flagged by at least two agents
	SeverityHigh   ContradictionSeverity = "high"   // Flagged by half the pool or more
)

// Contradiction is a tension reported independently by multiple agents.
type Contradiction struct {
	Statement string                `json:"statement"`
	Frequency int                   `json:"frequency"`
	Severity  ContradictionSeverity `json:"severity"`
}

// Consensus is the single reduced result for one dimension. It is produced
// once per dimension by the consensus engine and is deterministic over the
// opinion sequence it was built from.
type Consensus struct {
	Answer           string             `json:"answer"`
	Confidence       float64            `json:"confidence"` // Weighted, rounded to 3 decimals
	Agreement        float64            `json:"agreement"`  // 1 - stddev of confidences, rounded to 3 decimals
	KeyFindings      []string           `json:"key_findings,omitempty"`
	Contradictions   []Contradiction    `json:"contradictions,omitempty"`
	AgentVotes       map[string]float64 `json:"agent_votes,omitempty"` // agent_id -> normalized weight
	MinorityOpinions []string           `json:"minority_opinions,omitempty"`
	Recommendations  []string           `json:"recommendations,omitempty"`
	ReasoningDigest  string             `json:"reasoning_digest,omitempty"`
}
