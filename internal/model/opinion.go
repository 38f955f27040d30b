package model

import (
	"fmt"
	"strings"
	"time"
)

// Dimension is the analytical framing applied to a query. Each dimension is
// an independent pass over the same corpus.
type Dimension string

const (
	DimensionWhat    Dimension = "what"    // Findings, results, conclusions
	DimensionHow     Dimension = "how"     // Methods, procedures, reproduction
	DimensionWhy     Dimension = "why"     // Mechanisms, significance, limitations
	DimensionGeneral Dimension = "general" // Unconstrained analysis
)

// AllDimensions returns every dimension in canonical run order.
func AllDimensions() []Dimension {
	return []Dimension{DimensionWhat, DimensionHow, DimensionWhy, DimensionGeneral}
}

// ParseDimension converts a user-supplied string into a Dimension.
func ParseDimension(s string) (Dimension, error) {
	switch Dimension(strings.ToLower(strings.TrimSpace(s))) {
	case DimensionWhat:
		return DimensionWhat, nil
	case DimensionHow:
		return DimensionHow, nil
	case DimensionWhy:
		return DimensionWhy, nil
	case DimensionGeneral:
		return DimensionGeneral, nil
	}
	return "", fmt.Errorf("unknown dimension: %q (supported: what, how, why, general)", s)
}

// EvidenceItem is an opaque key/value record supporting one or more claims.
// The consensus engine only counts these; it never interprets the contents.
type EvidenceItem map[string]string

// Opinion is one agent's structured judgment for one query, corpus and
// dimension. Opinions are immutable value objects: the producing agent
// builds one and hands ownership to the caller.
type Opinion struct {
	AgentID          string         `json:"agent_id"`
	Dimension        Dimension      `json:"dimension"`
	Narrative        string         `json:"narrative"`
	ReasoningSummary string         `json:"reasoning_summary"`
	Confidence       float64        `json:"confidence"` // Always in [0,1] once past the agent contract
	Claims           []string       `json:"claims,omitempty"`
	EvidenceItems    []EvidenceItem `json:"evidence_items,omitempty"`
	Contradictions   []string       `json:"contradictions,omitempty"`
	Recommendations  []string       `json:"recommendations,omitempty"`
	Citations        []string       `json:"citations,omitempty"`
	Latency          time.Duration  `json:"latency"`
	ProducedAt       time.Time      `json:"produced_at"`
}
