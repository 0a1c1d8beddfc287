// Package retrieve fans sub-questions out to the search providers and merges
// the results deterministically. A provider failure degrades its slice to
// empty results; it never aborts the retrieval round.
package retrieve

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scoutlab/scout/internal/fetch"
	"github.com/scoutlab/scout/internal/model"
	"github.com/scoutlab/scout/internal/search"
	"github.com/scoutlab/scout/internal/worker"
)

// Retriever runs one retrieval round per iteration
type Retriever struct {
	internal search.InternalProvider // nil disables internal search
	web      search.WebProvider      // nil disables web search
	enricher *fetch.Enricher         // nil disables snippet enrichment
	filters  search.Filters
	bounds   model.BoundsConfig
	workers  int
	logger   *zap.Logger
}

// New creates a retriever. Either provider may be nil; with both nil every
// round yields zero evidence and the writer decides whether that is fatal.
func New(internal search.InternalProvider, web search.WebProvider, enricher *fetch.Enricher,
	filters search.Filters, bounds model.BoundsConfig, workers int, logger *zap.Logger) *Retriever {
	if workers <= 0 {
		workers = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		internal: internal,
		web:      web,
		enricher: enricher,
		filters:  filters,
		bounds:   bounds.Normalize(),
		workers:  workers,
		logger:   logger,
	}
}

// retrievalTask is one (sub-question, provider) call
type retrievalTask struct {
	r         *Retriever
	parent    context.Context
	question  model.SubQuestion
	kind      model.SourceKind
	seq       int // submission order; the merge tie-breaker
	iteration int
}

// retrievalResult carries one task's evidence or its degraded-empty error
type retrievalResult struct {
	seq      int
	question model.SubQuestion
	kind     model.SourceKind
	items    []model.EvidenceItem
	err      error
}

// GetError returns the task error, if any
func (r *retrievalResult) GetError() error { return r.err }

// Execute calls one provider with the per-call timeout. The pool context is
// only consulted for shutdown; cancellation of the request flows through the
// parent context.
func (t *retrievalTask) Execute(context.Context) worker.Result {
	ctx, cancel := context.WithTimeout(t.parent, t.r.bounds.ProviderTimeout)
	defer cancel()

	res := &retrievalResult{seq: t.seq, question: t.question, kind: t.kind}

	switch t.kind {
	case model.SourceKindInternal:
		chunks, err := t.r.internal.Search(ctx, t.question.Text, t.r.filters, t.r.bounds.MaxChunks)
		if err != nil {
			res.err = err
			return res
		}
		for _, c := range chunks {
			res.items = append(res.items, model.EvidenceItem{
				ID:   uuid.NewString(),
				Kind: model.SourceKindInternal,
				Locator: model.Locator{
					DocumentID: c.DocumentID,
					ChunkID:    c.ChunkID,
				},
				Snippet:        c.Snippet,
				Score:          c.Score,
				IterationFound: t.iteration,
				SubQuestionID:  t.question.ID,
			})
		}

	case model.SourceKindWeb:
		results, err := t.r.web.Search(ctx, t.question.Text)
		if err != nil {
			res.err = err
			return res
		}
		for _, w := range results {
			res.items = append(res.items, model.EvidenceItem{
				ID:   uuid.NewString(),
				Kind: model.SourceKindWeb,
				Locator: model.Locator{
					URL:   w.URL,
					Title: w.Title,
				},
				Snippet:        w.Snippet,
				Score:          w.Score,
				IterationFound: t.iteration,
				SubQuestionID:  t.question.ID,
			})
		}
	}

	return res
}

// Retrieve fans out questions × providers, waits for every task to resolve
// (success or degraded-empty), and returns the merged evidence sorted by
// relevance score descending with ties broken by first-seen order. The only
// error it can return is the context's.
func (r *Retriever) Retrieve(ctx context.Context, questions []model.SubQuestion, iteration int) ([]model.EvidenceItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 || (r.internal == nil && r.web == nil) {
		return nil, nil
	}

	pool := worker.NewPool(r.workers)
	pool.Start()

	seq := 0
	for _, q := range questions {
		if r.internal != nil {
			pool.Submit(&retrievalTask{r: r, parent: ctx, question: q, kind: model.SourceKindInternal, seq: seq, iteration: iteration})
		}
		seq++
		if r.web != nil {
			pool.Submit(&retrievalTask{r: r, parent: ctx, question: q, kind: model.SourceKindWeb, seq: seq, iteration: iteration})
		}
		seq++
	}

	// Join point: no phase advance until every task has resolved
	raw := pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]*retrievalResult, 0, len(raw))
	for _, res := range raw {
		results = append(results, res.(*retrievalResult))
	}
	// Completion order is nondeterministic; restore submission order first
	sort.Slice(results, func(i, j int) bool { return results[i].seq < results[j].seq })

	var merged []model.EvidenceItem
	for _, res := range results {
		if res.err != nil {
			r.logger.Warn("provider degraded to empty results",
				zap.String("provider", string(res.kind)),
				zap.String("sub_question", res.question.Text),
				zap.Int("iteration", iteration),
				zap.Error(res.err))
			continue
		}
		merged = append(merged, res.items...)
	}

	if r.enricher != nil {
		r.enricher.Enrich(ctx, merged)
	}

	// Stable sort keeps first-seen order for equal scores
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })

	return merged, nil
}
