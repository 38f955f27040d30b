// Package pipeline wires corpus retrieval, the agent fan-out and consensus
// reduction into the end-to-end analysis flow the CLI drives.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/consilium/internal/agent"
	"github.com/ppiankov/consilium/internal/cache"
	"github.com/ppiankov/consilium/internal/consensus"
	"github.com/ppiankov/consilium/internal/corpus"
	"github.com/ppiankov/consilium/internal/model"
	"github.com/ppiankov/consilium/internal/orchestrator"
)

// Corpus cache lifetimes for the default build.
const (
	searchMemoryTTL = 1 * time.Hour
	searchDiskTTL   = 24 * time.Hour
)

// Pipeline orchestrates the complete analysis process.
type Pipeline struct {
	provider corpus.Provider
	session  *orchestrator.Session
	renderer *Renderer
	config   *model.Config
}

// New assembles a pipeline from explicit parts.
func New(cfg *model.Config, provider corpus.Provider, session *orchestrator.Session) *Pipeline {
	return &Pipeline{
		provider: provider,
		session:  session,
		renderer: NewRenderer(cfg.Output.IncludeFooter),
		config:   cfg,
	}
}

// Build constructs the full default pipeline: credentials from the
// environment, arXiv corpus, configured orchestrator and engine.
// Configuration problems (invalid thresholds, empty pool) surface here,
// once, as fatal errors.
func Build(cfg *model.Config, creds agent.Credentials) (*Pipeline, error) {
	return build(cfg, creds, func(store cache.Cache) corpus.Provider {
		return corpus.NewArxivProvider(cfg.Corpus, store)
	})
}

// BuildWeb constructs a pipeline whose corpus comes from a fixed list of
// web pages instead of arXiv.
func BuildWeb(cfg *model.Config, creds agent.Credentials, urls []string) (*Pipeline, error) {
	return build(cfg, creds, func(store cache.Cache) corpus.Provider {
		return corpus.NewWebProvider(urls, cfg.Corpus, store)
	})
}

func build(cfg *model.Config, creds agent.Credentials, provider func(cache.Cache) corpus.Provider) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	agents, err := agent.NewPool(creds, cfg.Pool)
	if err != nil {
		return nil, fmt.Errorf("build agent pool: %w", err)
	}

	orch, err := orchestrator.New(agents, cfg.Pool.AgentTimeout)
	if err != nil {
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}

	session := orchestrator.NewSession(orch, consensus.NewEngine(cfg.Consensus))

	var store cache.Cache
	if cfg.Corpus.CacheEnabled {
		store = cache.NewLayeredCache(searchMemoryTTL, cfg.Corpus.CacheDir, searchDiskTTL)
	}

	return New(cfg, provider(store), session), nil
}

// Analyze retrieves the corpus and runs every requested dimension over it.
// An empty corpus is not fatal: the pool still reasons from the query
// alone, it just has nothing to cite.
func (p *Pipeline) Analyze(ctx context.Context, query string, dimensions []model.Dimension) (*model.Report, error) {
	docs, err := p.provider.Search(ctx, query, p.config.Corpus.MaxDocuments)
	if err != nil {
		return nil, fmt.Errorf("search corpus: %w", err)
	}

	if len(docs) == 0 {
		fmt.Fprintf(os.Stderr, "Warning: %s returned no documents for %q\n", p.provider.Name(), query)
	}

	if p.config.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ Retrieved %d documents from %s\n", len(docs), p.provider.Name())
	}

	return p.session.Analyze(ctx, query, docs, dimensions), nil
}

// RenderReport renders the report to the requested outputs.
func (p *Pipeline) RenderReport(report *model.Report, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(report)

	return nil
}
