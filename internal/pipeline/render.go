package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/consilium/internal/model"
)

// Renderer writes analysis reports as JSON, Markdown and a stdout summary.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the full report as indented JSON.
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

// orderedDimensions returns the report's dimensions in canonical order so
// rendered output is stable across runs.
func orderedDimensions(report *model.Report) []model.Dimension {
	var dims []model.Dimension
	for _, dim := range model.AllDimensions() {
		if _, ok := report.Results[dim]; ok {
			dims = append(dims, dim)
		}
	}
	return dims
}

// RenderMarkdown writes a human-readable report.
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Consilium Analysis: %s\n\n", report.Query)
	fmt.Fprintf(&b, "- Report ID: `%s`\n", report.ID)
	fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- Documents analyzed: %d\n", len(report.Documents))
	fmt.Fprintf(&b, "- Agents in pool: %d\n\n", report.AgentsUsed)

	for _, dim := range orderedDimensions(report) {
		result := report.Results[dim]
		c := result.Consensus

		fmt.Fprintf(&b, "## %s analysis\n\n", strings.ToUpper(string(dim)))
		fmt.Fprintf(&b, "Confidence: %.3f | Agreement: %.3f | Opinions: %d | Failures: %d\n\n",
			c.Confidence, c.Agreement, len(result.Opinions), len(result.Failures))

		fmt.Fprintf(&b, "%s\n", c.Answer)

		if len(c.KeyFindings) > 0 {
			b.WriteString("### Key findings\n\n")
			for _, finding := range c.KeyFindings {
				fmt.Fprintf(&b, "- %s\n", finding)
			}
			b.WriteString("\n")
		}

		if len(c.Contradictions) > 0 {
			b.WriteString("### Contradictions\n\n")
			for _, contra := range c.Contradictions {
				fmt.Fprintf(&b, "- [%s, flagged by %d] %s\n", contra.Severity, contra.Frequency, contra.Statement)
			}
			b.WriteString("\n")
		}

		if len(c.MinorityOpinions) > 0 {
			b.WriteString("### Minority opinions\n\n")
			for _, op := range c.MinorityOpinions {
				fmt.Fprintf(&b, "- %s\n", op)
			}
			b.WriteString("\n")
		}

		if len(c.Recommendations) > 0 {
			b.WriteString("### Recommendations\n\n")
			for _, rec := range c.Recommendations {
				fmt.Fprintf(&b, "- %s\n", rec)
			}
			b.WriteString("\n")
		}

		if len(result.Failures) > 0 {
			b.WriteString("### Agent failures\n\n")
			for _, f := range result.Failures {
				fmt.Fprintf(&b, "- %s (%s): %s\n", f.AgentID, f.Kind, f.Error)
			}
			b.WriteString("\n")
		}
	}

	if r.includeFooter {
		b.WriteString("---\n\nGenerated by Consilium. Consensus weights, minority opinions and\ncontradiction counts are reported verbatim for traceability.\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

// RenderSummary prints a short per-dimension summary to stdout.
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Printf("\nQuery: %s\n", report.Query)
	fmt.Printf("Documents: %d | Agents: %d\n\n", len(report.Documents), report.AgentsUsed)

	for _, dim := range orderedDimensions(report) {
		result := report.Results[dim]
		c := result.Consensus
		fmt.Printf("  %-8s confidence=%.3f agreement=%.3f findings=%d contradictions=%d opinions=%d\n",
			strings.ToUpper(string(dim)), c.Confidence, c.Agreement,
			len(c.KeyFindings), len(c.Contradictions), len(result.Opinions))
	}

	fmt.Println()
}
