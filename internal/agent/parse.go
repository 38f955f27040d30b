package agent

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/consilium/internal/model"
)

// defaultConfidence is assumed when the model reports none.
const defaultConfidence = 0.75

// reasoningExcerptLimit bounds the reasoning summary carried on an Opinion.
const reasoningExcerptLimit = 1000

var (
	confidencePattern     = regexp.MustCompile(`(?i)confidence[:\s]+(\d+\.?\d*)%?`)
	claimsPattern         = regexp.MustCompile(`(?is)(?:key claims?|findings?)[:\s]+(.+?)(?:\n\n|\z)`)
	recommendationPattern = regexp.MustCompile(`(?is)(?:recommendations?|future work|research directions?)[:\s]+(.+?)(?:\n\n|\z)`)
	contradictionPattern  = regexp.MustCompile(`(?is)(?:contradictions?|uncertaint(?:y|ies)|tensions?)[:\s]+(.+?)(?:\n\n|\z)`)
	citationPattern       = regexp.MustCompile(`(?is)(?:citations?|sources?|references?)[:\s]+(.+?)(?:\n\n|\z)`)
	evidencePattern       = regexp.MustCompile(`(?is)(?:evidence|supporting data)[:\s]+(.+?)(?:\n\n|\z)`)
	bulletSplitter        = regexp.MustCompile(`\n[-•*\d]+\.?\s*`)
)

// parsed holds the structured fields extracted from free-form model output.
type parsed struct {
	Confidence      float64
	Claims          []string
	Evidence        []model.EvidenceItem
	Contradictions  []string
	Recommendations []string
	Citations       []string
}

// parseNarrative extracts structured claims from free-form model text.
// The heuristics mirror what the backends are instructed to emit; anything
// the model failed to structure simply stays in the narrative.
func parseNarrative(text string) parsed {
	p := parsed{Confidence: defaultConfidence}

	if m := confidencePattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			if v > 1 {
				v = v / 100
			}
			p.Confidence = v
		}
	}

	p.Claims = extractList(claimsPattern, text, 10)
	p.Recommendations = extractList(recommendationPattern, text, 5)
	p.Contradictions = extractList(contradictionPattern, text, 5)
	p.Citations = extractList(citationPattern, text, 10)

	for _, line := range extractList(evidencePattern, text, 10) {
		p.Evidence = append(p.Evidence, model.EvidenceItem{"text": line})
	}

	return p
}

// extractList pulls up to max bullet items from the first section the
// pattern matches.
func extractList(pattern *regexp.Regexp, text string, max int) []string {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	var items []string
	for _, part := range bulletSplitter.Split(m[1], -1) {
		// The first item keeps its bullet marker: the splitter only fires
		// on markers preceded by a newline.
		part = strings.TrimSpace(strings.TrimLeft(part, "-•* \t"))
		if part == "" {
			continue
		}
		items = append(items, part)
		if len(items) >= max {
			break
		}
	}
	return items
}

// truncateRunes caps s at limit runes, never splitting a multibyte
// sequence.
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

// buildOpinion assembles a validated Opinion from raw model output.
// Confidence outside [0,1] after normalization is a contract violation.
func buildOpinion(agentID string, req Request, content string, started time.Time) (*model.Opinion, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, Errorf(KindMalformed, "empty response from backend")
	}

	p := parseNarrative(content)
	if p.Confidence < 0 || p.Confidence > 1 {
		return nil, Errorf(KindMalformed, "confidence %g outside [0,1]", p.Confidence)
	}

	reasoning := truncateRunes(content, reasoningExcerptLimit)

	return &model.Opinion{
		AgentID:          agentID,
		Dimension:        req.Dimension,
		Narrative:        content,
		ReasoningSummary: reasoning,
		Confidence:       p.Confidence,
		Claims:           p.Claims,
		EvidenceItems:    p.Evidence,
		Contradictions:   p.Contradictions,
		Recommendations:  p.Recommendations,
		Citations:        p.Citations,
		Latency:          time.Since(started),
		ProducedAt:       time.Now().UTC(),
	}, nil
}
