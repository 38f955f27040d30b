package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/consilium/internal/pipeline"
	"github.com/ppiankov/consilium/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze multiple queries from a file in parallel",
	Long: `Batch processes multiple queries concurrently:
- Read queries from input file (one per line, # comments skipped)
- Run full multi-agent analyses in parallel with configurable workers
- Generate individual JSON and Markdown reports per query

Concurrency defaults to 2 because each query already fans out to the
whole agent pool; raising it multiplies provider traffic accordingly.

Example:
  consilium batch queries.txt
  consilium batch queries.txt --concurrency 4 --output-dir ./reports
  consilium batch queries.txt --dimensions what,why --timeout 2h`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 2, "number of concurrent query analyses")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./consilium-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 2*time.Hour, "total timeout for batch processing")

	// Shared analysis flags
	batchCmd.Flags().StringVar(&dimensionsRaw, "dimensions", "", "comma-separated dimensions to run (default: all)")
	batchCmd.Flags().IntVar(&maxDocs, "max-docs", 10, "maximum documents per corpus")
	batchCmd.Flags().IntVar(&maxAgents, "max-agents", 15, "maximum agents in the pool")
	batchCmd.Flags().DurationVar(&agentTimeout, "agent-timeout", 300*time.Second, "per-agent timeout within each dimension")
	batchCmd.Flags().Float64Var(&minConfidence, "min-confidence", 0.6, "minimum opinion confidence for consensus")
	batchCmd.Flags().Float64Var(&agreement, "agreement-threshold", 0.7, "agreement threshold for key findings")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable corpus cache")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	dims, err := parseDimensions(dimensionsRaw)
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Consilium Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	// Create output directory
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Reading queries from file...\n")
	results, err := processor.ProcessFile(ctx, file, dims)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Loaded %d queries\n", len(results))
	fmt.Fprintf(os.Stderr, "\n")

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)

	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %q: %v\n", result.Query, result.Error)
			continue
		}

		successCount++

		slug := sanitizeFilename(result.Query)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %q: failed to write JSON: %v\n", result.Query, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %q: failed to write Markdown: %v\n", result.Query, err)
			continue
		}

		fmt.Fprintf(os.Stderr, "✓ %q (%d dimensions)\n", result.Query, len(result.Report.Results))
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d queries\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// sanitizeFilename turns a query into a safe filename slug.
func sanitizeFilename(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "query"
	}
	if len(out) > 100 {
		out = out[:100]
	}
	return out
}
