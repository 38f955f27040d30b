package agent

import (
	"fmt"
	"strings"

	"github.com/ppiankov/consilium/internal/model"
)

const (
	maxPromptDocuments = 10
	maxExcerptChars    = 5000
	documentSeparator  = "\n\n---DOCUMENT SEPARATOR---\n\n"
)

// buildPrompt constructs the cross-document analysis prompt for one
// dimension. Shared by the bundled backends as a plain helper; custom Agent
// implementations are free to ignore it.
func buildPrompt(query string, corpus []model.Document, dimension model.Dimension) string {
	excerpts := make([]string, 0, len(corpus))
	for i, doc := range corpus {
		if i >= maxPromptDocuments {
			break
		}
		excerpt := truncateRunes(doc.Excerpt(), maxExcerptChars)
		excerpts = append(excerpts, excerpt)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are an expert research analyst. Analyze the following documents to answer this query: %s

Documents (separated by ---DOCUMENT SEPARATOR---):
%s

Please provide a comprehensive cross-document analysis focusing on the %s aspect:
`, query, strings.Join(excerpts, documentSeparator), strings.ToUpper(string(dimension)))

	switch dimension {
	case model.DimensionWhat:
		b.WriteString(`
- WHAT are the consistent findings across documents?
- WHAT materials/methods are commonly used?
- WHAT are the key differences in results?
- WHAT consensus exists in the literature?
`)
	case model.DimensionHow:
		b.WriteString(`
- HOW do methodologies compare across documents?
- HOW do different approaches affect outcomes?
- HOW can the methods be synthesized?
- HOW reproducible are the results?
`)
	case model.DimensionWhy:
		b.WriteString(`
- WHY do different documents reach different conclusions?
- WHY are certain approaches more effective?
- WHY do mechanisms vary across studies?
- WHY are there contradictions in the literature?
`)
	}

	b.WriteString(`
For your response:
1. Synthesize findings across all documents
2. Identify agreements and contradictions
3. Provide a confidence score (0-1)
4. List key claims, supporting evidence, and citations
5. Highlight gaps in knowledge
6. Recommend research directions

Show detailed reasoning for your synthesis.
`)

	return b.String()
}
