package worker

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/ppiankov/consilium/internal/model"
)

// mockAnalyzer implements Analyzer
type mockAnalyzer struct {
	ShouldError bool
}

func (m *mockAnalyzer) Analyze(ctx context.Context, query string, dims []model.Dimension) (*model.Report, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return nil, errors.New("analysis error")
	}
	return &model.Report{
		ID:    "test-report",
		Query: query,
	}, nil
}

func TestBatchProcessor_ProcessQueries(t *testing.T) {
	analyzer := &mockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2)

	queries := []string{
		"impact of transformers on NLP",
		"quantum error correction progress",
		"protein folding prediction accuracy",
	}
	ctx := context.Background()

	results := processor.ProcessQueries(ctx, queries, nil)

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}

	successCount := 0
	for _, res := range results {
		if res.Error == nil {
			successCount++
			if res.Report == nil {
				t.Error("expected report for successful analysis")
			}
		} else {
			t.Errorf("unexpected error for %q: %v", res.Query, res.Error)
		}
	}

	if successCount != 3 {
		t.Errorf("expected 3 successes, got %d", successCount)
	}
}

func TestBatchProcessor_ProcessQueries_Error(t *testing.T) {
	analyzer := &mockAnalyzer{ShouldError: true}
	processor := NewBatchProcessor(analyzer, 2)

	results := processor.ProcessQueries(context.Background(), []string{"some query"}, nil)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Report != nil {
		t.Error("expected nil report on error")
	}
}

func TestBatchProcessor_ProcessQueries_Empty(t *testing.T) {
	analyzer := &mockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2)

	results := processor.ProcessQueries(context.Background(), []string{}, nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadQueriesFromFile(t *testing.T) {
	content := `impact of transformers on NLP
# comment
quantum error correction progress

protein folding prediction accuracy   `

	tmpfile, err := os.CreateTemp("", "queries")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	queries, err := ReadQueriesFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadQueriesFromFile failed: %v", err)
	}

	expected := []string{
		"impact of transformers on NLP",
		"quantum error correction progress",
		"protein folding prediction accuracy",
	}
	if len(queries) != len(expected) {
		t.Fatalf("expected %d queries, got %d", len(expected), len(queries))
	}

	for i, query := range queries {
		if query != expected[i] {
			t.Errorf("expected query %q at index %d, got %q", expected[i], i, query)
		}
	}
}

func TestReadQueriesFromFile_NonExistent(t *testing.T) {
	_, err := ReadQueriesFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestAnalysisResult_GetError(t *testing.T) {
	r1 := &AnalysisResult{Query: "q", Error: nil}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("analysis failed")
	r2 := &AnalysisResult{Query: "q", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	content := "query one\nquery two\n# comment\n\nquery three\n"

	tmpfile, err := os.CreateTemp("", "batch_queries")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	analyzer := &mockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2)

	results, err := processor.ProcessFile(context.Background(), tmpfile.Name(), nil)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	analyzer := &mockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2)

	_, err := processor.ProcessFile(context.Background(), "no_such_file.txt", nil)
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessFile_Empty(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "empty_queries")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	analyzer := &mockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2)

	results, err := processor.ProcessFile(context.Background(), tmpfile.Name(), nil)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results for empty file, got %d", len(results))
	}
}

func TestReadQueriesFromFile_Deduplication(t *testing.T) {
	content := `same query
same query`

	tmpfile, err := os.CreateTemp("", "queries_dedup")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	queries, err := ReadQueriesFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadQueriesFromFile failed: %v", err)
	}

	if len(queries) != 1 {
		t.Errorf("expected 1 query after deduplication, got %d", len(queries))
	}
}
