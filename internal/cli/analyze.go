package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/consilium/internal/agent"
	"github.com/ppiankov/consilium/internal/model"
	"github.com/ppiankov/consilium/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	outJSON       string
	outMD         string
	timeout       time.Duration
	agentTimeout  time.Duration
	dimensionsRaw string
	webDocs       []string
	maxDocs       int
	maxAgents     int
	minConfidence float64
	agreement     float64
	noCache       bool
	noFooter      bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <query>",
	Short: "Run a multi-agent consensus analysis for a single query",
	Long: `Analyze retrieves a document corpus for the query, fans the query out
to every configured LLM agent in parallel, and reduces their opinions
into one consensus report per analysis dimension:
- what:    factual findings
- how:     mechanisms and methodology
- why:     causal reasoning
- general: open-ended analysis

Corpus documents come from the arXiv API by default, or from explicit
web pages passed with --doc.

Example:
  consilium analyze "impact of transformer architectures on NLP"
  consilium analyze "quantum error correction" --dimensions what,why
  consilium analyze "room-temperature superconductivity" --json report.json --md report.md
  consilium analyze "CRISPR off-target effects" --doc https://example.org/review --doc https://example.org/meta-analysis`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")

	// Analysis flags
	analyzeCmd.Flags().StringVar(&dimensionsRaw, "dimensions", "", "comma-separated dimensions to run (what,how,why,general; default: all)")
	analyzeCmd.Flags().StringSliceVar(&webDocs, "doc", nil, "web page URL to use as corpus instead of arXiv (repeatable)")
	analyzeCmd.Flags().IntVar(&maxDocs, "max-docs", 10, "maximum documents in the corpus")
	analyzeCmd.Flags().IntVar(&maxAgents, "max-agents", 15, "maximum agents in the pool")
	analyzeCmd.Flags().Float64Var(&minConfidence, "min-confidence", 0.6, "minimum opinion confidence for consensus")
	analyzeCmd.Flags().Float64Var(&agreement, "agreement-threshold", 0.7, "agreement threshold for key findings")

	// Timing flags
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().DurationVar(&agentTimeout, "agent-timeout", 300*time.Second, "per-agent timeout within each dimension")

	// Misc flags
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable corpus cache (force fresh retrieval)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

// parseDimensions turns the --dimensions flag into dimension values.
// Empty input means all dimensions.
func parseDimensions(raw string) ([]model.Dimension, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var dims []model.Dimension
	for _, part := range strings.Split(raw, ",") {
		dim, err := model.ParseDimension(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		dims = append(dims, dim)
	}
	return dims, nil
}

// buildConfig assembles the effective configuration. File and environment
// values land on top of the defaults; flags the user set explicitly win
// over both.
func buildConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("max-agents") {
		cfg.Pool.MaxAgents = maxAgents
	}
	if flags.Changed("agent-timeout") {
		cfg.Pool.AgentTimeout = agentTimeout
	}
	if flags.Changed("min-confidence") {
		cfg.Consensus.MinConfidence = minConfidence
	}
	if flags.Changed("agreement-threshold") {
		cfg.Consensus.AgreementThreshold = agreement
	}
	if flags.Changed("max-docs") {
		cfg.Corpus.MaxDocuments = maxDocs
	}
	if noCache {
		cfg.Corpus.CacheEnabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	return cfg, nil
}

// buildPipeline builds the default arXiv pipeline, or a web-corpus
// pipeline when --doc URLs were given.
func buildPipeline(cfg *model.Config) (*pipeline.Pipeline, error) {
	creds := agent.CredentialsFromEnv()
	if len(webDocs) > 0 {
		return pipeline.BuildWeb(cfg, creds, webDocs)
	}
	return pipeline.Build(cfg, creds)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	dims, err := parseDimensions(dimensionsRaw)
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Query: %s\n", query)
		fmt.Fprintf(os.Stderr, "Timeout: %v (per agent: %v)\n", timeout, agentTimeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Corpus.CacheEnabled)
		fmt.Fprintln(os.Stderr)
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	report, err := p.Analyze(ctx, query, dims)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}
