package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/consilium/internal/model"
)

// Analyzer runs a full multi-agent analysis for a single query.
type Analyzer interface {
	Analyze(ctx context.Context, query string, dimensions []model.Dimension) (*model.Report, error)
}

// AnalysisJob analyzes one query from a batch.
type AnalysisJob struct {
	Query      string
	Dimensions []model.Dimension
	Analyzer   Analyzer
}

// Execute runs the analysis.
func (j *AnalysisJob) Execute(ctx context.Context) Result {
	report, err := j.Analyzer.Analyze(ctx, j.Query, j.Dimensions)
	return &AnalysisResult{
		Query:  j.Query,
		Report: report,
		Error:  err,
	}
}

// AnalysisResult is the outcome of one batch query.
type AnalysisResult struct {
	Query  string
	Report *model.Report
	Error  error
}

// GetError returns the error from the analysis, if any.
func (r *AnalysisResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple queries concurrently.
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessQueries runs all queries through the worker pool.
func (b *BatchProcessor) ProcessQueries(ctx context.Context, queries []string, dimensions []model.Dimension) []*AnalysisResult {
	if len(queries) == 0 {
		return []*AnalysisResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, query := range queries {
		pool.Submit(&AnalysisJob{
			Query:      query,
			Dimensions: dimensions,
			Analyzer:   b.analyzer,
		})
	}

	results := pool.Wait()

	analysisResults := make([]*AnalysisResult, len(results))
	for i, result := range results {
		analysisResults[i] = result.(*AnalysisResult)
	}

	return analysisResults
}

// ProcessFile reads queries from a file and analyzes them concurrently.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string, dimensions []model.Dimension) ([]*AnalysisResult, error) {
	queries, err := ReadQueriesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}

	return b.ProcessQueries(ctx, queries, dimensions), nil
}

// ReadQueriesFromFile reads queries from a file, one per line. Empty
// lines and lines starting with # are skipped; duplicates are dropped.
func ReadQueriesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var queries []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			queries = append(queries, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return queries, nil
}
