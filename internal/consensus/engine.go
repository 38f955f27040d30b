// Package consensus reduces a set of heterogeneous, confidence-scored
// opinions to one consolidated answer with traceable provenance: agent
// weights, consolidated findings, contradictions and minority opinions.
//
// The reduction is pure and deterministic: the same opinion sequence always
// produces a byte-identical result. Every sort is stable with ties broken
// by input order.
package consensus

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/consilium/internal/model"
)

const (
	degenerateAnswer = "No responses available"
	noReasoningText  = "No detailed reasoning available."

	evidenceBonusPerItem = 0.05
	evidenceBonusCap     = 0.20
	claimsBonusPerItem   = 0.03
	claimsBonusCap       = 0.15

	maxKeyFindings      = 15
	maxContradictions   = 10
	maxRecommendations  = 10
	maxMinorityOpinions = 5
	minorityClaimsEach  = 2

	maxAnswerNarratives   = 5
	narrativeExcerptChars = 500
	maxDigestSummaries    = 3
	digestExcerptChars    = 300
)

// Engine reduces opinion sets. Both tuning parameters are fixed at
// construction; a constructed engine is safe for concurrent use.
type Engine struct {
	minConfidence      float64
	agreementThreshold float64
}

// NewEngine creates a consensus engine with the given tuning.
func NewEngine(cfg model.ConsensusConfig) *Engine {
	return &Engine{
		minConfidence:      cfg.MinConfidence,
		agreementThreshold: cfg.AgreementThreshold,
	}
}

// Reduce computes the consensus over one dimension's opinion set. It is
// total: any input, including the empty set, yields a structurally valid
// result.
func (e *Engine) Reduce(opinions []model.Opinion) model.Consensus {
	if len(opinions) == 0 {
		return model.Consensus{
			Answer:     degenerateAnswer,
			Confidence: 0.0,
			Agreement:  0.0,
		}
	}

	// Opinions below the confidence floor are provisionally excluded, but
	// a weak signal beats none: if nothing survives, use the full set.
	surviving := make([]model.Opinion, 0, len(opinions))
	for _, op := range opinions {
		if op.Confidence >= e.minConfidence {
			surviving = append(surviving, op)
		}
	}
	if len(surviving) == 0 {
		surviving = opinions
	}

	weights := agentWeights(surviving)

	votes := make(map[string]float64, len(surviving))
	for i, op := range surviving {
		votes[op.AgentID] = weights[i]
	}

	return model.Consensus{
		Answer:           e.synthesizeAnswer(surviving, weights),
		Confidence:       overallConfidence(surviving, weights),
		Agreement:        agreementLevel(surviving),
		KeyFindings:      e.consolidateFindings(surviving, weights),
		Contradictions:   identifyContradictions(surviving),
		AgentVotes:       votes,
		MinorityOpinions: minorityOpinions(surviving, weights),
		Recommendations:  consolidateRecommendations(surviving, weights),
		ReasoningDigest:  reasoningDigest(surviving),
	}
}

// agentWeights computes normalized influence weights. Confidence is the
// base; volume of evidence and claims earns a capped bonus. Weights sum to
// 1.0 unless every raw weight is zero, in which case they stay zero.
func agentWeights(opinions []model.Opinion) []float64 {
	weights := make([]float64, len(opinions))
	total := 0.0

	for i, op := range opinions {
		w := op.Confidence
		w += math.Min(float64(len(op.EvidenceItems))*evidenceBonusPerItem, evidenceBonusCap)
		w += math.Min(float64(len(op.Claims))*claimsBonusPerItem, claimsBonusCap)
		w = math.Min(w, 1.0)
		weights[i] = w
		total += w
	}

	if total > 0 {
		for i := range weights {
			weights[i] /= total
		}
	}

	return weights
}

// weightedItem accumulates one normalized string's weight contributions.
type weightedItem struct {
	original string // first-seen casing
	weight   float64
}

// accumulate folds each opinion's items into per-normalized-key weight
// sums, preserving first-seen order and casing. An opinion contributes its
// weight once per distinct item it lists, not once per occurrence.
func accumulate(opinions []model.Opinion, weights []float64, items func(model.Opinion) []string) []weightedItem {
	index := make(map[string]int)
	var entries []weightedItem

	for i, op := range opinions {
		seen := make(map[string]bool)
		for _, raw := range items(op) {
			key := strings.ToLower(strings.TrimSpace(raw))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true

			if j, ok := index[key]; ok {
				entries[j].weight += weights[i]
			} else {
				index[key] = len(entries)
				entries = append(entries, weightedItem{original: strings.TrimSpace(raw), weight: weights[i]})
			}
		}
	}

	// Stable sort: ties keep first-seen order, so output is deterministic
	// over the input sequence.
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].weight > entries[b].weight
	})

	return entries
}

// consolidateFindings ranks distinct claims by accumulated weight. A claim
// counts as consolidated only when its accumulated weight clears the
// agreement threshold relative to the heaviest single agent.
func (e *Engine) consolidateFindings(opinions []model.Opinion, weights []float64) []string {
	entries := accumulate(opinions, weights, func(op model.Opinion) []string { return op.Claims })

	maxWeight := 0.0
	for _, w := range weights {
		maxWeight = math.Max(maxWeight, w)
	}
	gate := e.agreementThreshold * maxWeight

	var findings []string
	for _, entry := range entries {
		if len(findings) >= maxKeyFindings {
			break
		}
		if entry.weight >= gate {
			findings = append(findings, entry.original)
		}
	}

	return findings
}

// identifyContradictions pools self-reported contradictions across agents
// and reports the most frequent ones. A tension flagged by a single agent
// is noise; by half the pool, a high-severity signal.
func identifyContradictions(opinions []model.Opinion) []model.Contradiction {
	counts := make(map[string]int)
	var order []string

	for _, op := range opinions {
		for _, c := range op.Contradictions {
			key := strings.ToLower(c)
			if counts[key] == 0 {
				order = append(order, key)
			}
			counts[key]++
		}
	}

	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})

	highBar := float64(len(opinions)) * 0.5

	var result []model.Contradiction
	for _, key := range order {
		if len(result) >= maxContradictions {
			break
		}
		count := counts[key]
		if count < 2 {
			continue
		}
		severity := model.SeverityMedium
		if float64(count) >= highBar {
			severity = model.SeverityHigh
		}
		result = append(result, model.Contradiction{
			Statement: key,
			Frequency: count,
			Severity:  severity,
		})
	}

	return result
}

// synthesizeAnswer concatenates the narratives of the highest-weighted
// opinions, falling back to the first three when no single opinion clears
// the agreement threshold.
func (e *Engine) synthesizeAnswer(opinions []model.Opinion, weights []float64) string {
	var narratives []string
	for i, op := range opinions {
		if weights[i] >= e.agreementThreshold {
			narratives = append(narratives, op.Narrative)
		}
	}

	if len(narratives) == 0 {
		for _, op := range opinions[:min(3, len(opinions))] {
			narratives = append(narratives, op.Narrative)
		}
	}

	var b strings.Builder
	b.WriteString("Based on multi-agent analysis:\n\n")
	for i, narrative := range narratives {
		if i >= maxAnswerNarratives {
			break
		}
		excerpt := truncateRunes(narrative, narrativeExcerptChars)
		fmt.Fprintf(&b, "%d. %s...\n\n", i+1, strings.TrimSpace(excerpt))
	}

	return b.String()
}

// consolidateRecommendations ranks recommendations by accumulated weight.
// Unlike findings there is no threshold gate: recommendations are additive,
// not adversarial.
func consolidateRecommendations(opinions []model.Opinion, weights []float64) []string {
	entries := accumulate(opinions, weights, func(op model.Opinion) []string { return op.Recommendations })

	var recs []string
	for _, entry := range entries {
		if len(recs) >= maxRecommendations {
			break
		}
		recs = append(recs, entry.original)
	}

	return recs
}

// overallConfidence is each opinion's confidence weighted by its influence.
func overallConfidence(opinions []model.Opinion, weights []float64) float64 {
	sum := 0.0
	for i, op := range opinions {
		sum += op.Confidence * weights[i]
	}
	return round3(sum)
}

// agreementLevel is the inverse of confidence dispersion across the pool.
// A single opinion has no variance and agrees with itself completely.
func agreementLevel(opinions []model.Opinion) float64 {
	if len(opinions) < 2 {
		return 1.0
	}

	mean := 0.0
	for _, op := range opinions {
		mean += op.Confidence
	}
	mean /= float64(len(opinions))

	variance := 0.0
	for _, op := range opinions {
		d := op.Confidence - mean
		variance += d * d
	}
	variance /= float64(len(opinions))

	return round3(1.0 - math.Min(math.Sqrt(variance), 1.0))
}

// minorityOpinions collects claims from agents weighted well below the
// pool mean, so under-represented positions stay visible in the result.
func minorityOpinions(opinions []model.Opinion, weights []float64) []string {
	mean := 0.0
	for _, w := range weights {
		mean += w
	}
	mean /= float64(len(weights))

	var minority []string
	for i, op := range opinions {
		if weights[i] >= mean*0.5 {
			continue
		}

		added := 0
		for _, claim := range op.Claims {
			if added >= minorityClaimsEach || len(minority) >= maxMinorityOpinions {
				break
			}
			if containsString(minority, claim) {
				continue
			}
			minority = append(minority, claim)
			added++
		}
	}

	return minority
}

// reasoningDigest concatenates up to three reasoning summaries.
func reasoningDigest(opinions []model.Opinion) string {
	var summaries []string
	for _, op := range opinions {
		if op.ReasoningSummary != "" {
			summaries = append(summaries, op.ReasoningSummary)
		}
	}

	if len(summaries) == 0 {
		return noReasoningText
	}

	var b strings.Builder
	b.WriteString("Synthesized reasoning from agents:\n\n")
	for i, summary := range summaries {
		if i >= maxDigestSummaries {
			break
		}
		excerpt := truncateRunes(summary, digestExcerptChars)
		fmt.Fprintf(&b, "Agent %d: %s...\n\n", i+1, strings.TrimSpace(excerpt))
	}

	return b.String()
}

// truncateRunes caps s at limit runes, never splitting a multibyte
// sequence. The byte-length check keeps the common ASCII case cheap.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
