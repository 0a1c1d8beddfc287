package engine

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/scoutlab/scout/internal/model"
	"github.com/scoutlab/scout/internal/worker"
)

// BatchResult is the outcome of one query in a batch run
type BatchResult struct {
	Query  string
	Report *model.Report
	Error  error
}

// GetError returns the error from the batch result
func (r *BatchResult) GetError() error {
	return r.Error
}

// researchJob runs one query through the engine
type researchJob struct {
	ctx    context.Context
	engine *Engine
	query  string
}

// Execute runs the session; the pool context is only used for shutdown
func (j *researchJob) Execute(context.Context) worker.Result {
	report, err := j.engine.Execute(j.ctx, j.query)
	return &BatchResult{Query: j.query, Report: report, Error: err}
}

// BatchProcessor researches many queries concurrently
type BatchProcessor struct {
	engine      *Engine
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(engine *Engine, concurrency int) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 2
	}
	return &BatchProcessor{engine: engine, concurrency: concurrency}
}

// Process researches all queries and returns one result per query
func (b *BatchProcessor) Process(ctx context.Context, queries []string) []BatchResult {
	pool := worker.NewPool(b.concurrency)
	pool.Start()

	for _, query := range queries {
		pool.Submit(&researchJob{ctx: ctx, engine: b.engine, query: query})
	}

	raw := pool.Wait()
	results := make([]BatchResult, 0, len(raw))
	for _, res := range raw {
		results = append(results, *res.(*BatchResult))
	}

	return results
}

// ProcessFile reads one query per line (blank lines and # comments skipped)
// and researches them all.
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]BatchResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queries file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read queries file: %w", err)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("no queries in %s", path)
	}

	return b.Process(ctx, queries), nil
}
