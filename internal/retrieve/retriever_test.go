package retrieve

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/scoutlab/scout/internal/model"
	"github.com/scoutlab/scout/internal/search"
)

type fakeInternal struct {
	mu      sync.Mutex
	chunks  map[string][]search.Chunk // by query
	err     error
	limits  []int
	queries []string
}

func (f *fakeInternal) Name() string { return "fake-internal" }
func (f *fakeInternal) Search(_ context.Context, query string, _ search.Filters, limit int) ([]search.Chunk, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.limits = append(f.limits, limit)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks[query], nil
}

type fakeWeb struct {
	mu      sync.Mutex
	results map[string][]search.WebResult
	err     error
	queries []string
}

func (f *fakeWeb) Name() string { return "fake-web" }
func (f *fakeWeb) Search(_ context.Context, query string) ([]search.WebResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func bounds() model.BoundsConfig {
	return model.DefaultBounds()
}

func questions(texts ...string) []model.SubQuestion {
	out := make([]model.SubQuestion, len(texts))
	for i, text := range texts {
		out[i] = model.NewSubQuestion(text, 1)
	}
	return out
}

func TestRetrieve_MergesByScoreThenFirstSeen(t *testing.T) {
	internal := &fakeInternal{chunks: map[string][]search.Chunk{
		"q1": {
			{DocumentID: "d1", ChunkID: "c1", Snippet: "high", Score: 0.9},
			{DocumentID: "d1", ChunkID: "c2", Snippet: "tie-first", Score: 0.5},
		},
	}}
	web := &fakeWeb{results: map[string][]search.WebResult{
		"q1": {
			{URL: "https://example.com/a", Title: "tie-second", Snippet: "s", Score: 0.5},
			{URL: "https://example.com/b", Title: "top", Snippet: "s", Score: 1.0},
		},
	}}

	r := New(internal, web, nil, nil, bounds(), 4, nil)

	items, err := r.Retrieve(context.Background(), questions("q1"), 1)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(items))
	}

	// Score descending; the 0.5 tie keeps submission order: internal before web
	if items[0].Locator.URL != "https://example.com/b" {
		t.Errorf("item 0 = %+v, want the 1.0-score web result", items[0].Locator)
	}
	if items[1].Locator.ChunkID != "c1" {
		t.Errorf("item 1 = %+v, want internal chunk c1", items[1].Locator)
	}
	if items[2].Snippet != "tie-first" {
		t.Errorf("tie broken out of first-seen order: %+v", items[2])
	}
	if items[3].Locator.URL != "https://example.com/a" {
		t.Errorf("item 3 = %+v", items[3].Locator)
	}

	for _, item := range items {
		if item.IterationFound != 1 {
			t.Errorf("iteration not stamped: %+v", item)
		}
		if item.ID == "" {
			t.Error("evidence item has no id")
		}
	}
}

func TestRetrieve_ProviderFailureDegradesToEmpty(t *testing.T) {
	internal := &fakeInternal{err: errors.New("index down")}
	web := &fakeWeb{results: map[string][]search.WebResult{
		"q1": {{URL: "https://example.com/a", Title: "A", Snippet: "s", Score: 1.0}},
		"q2": {{URL: "https://example.com/b", Title: "B", Snippet: "s", Score: 0.8}},
	}}

	r := New(internal, web, nil, nil, bounds(), 4, nil)

	items, err := r.Retrieve(context.Background(), questions("q1", "q2"), 1)
	if err != nil {
		t.Fatalf("a provider failure must not abort the round: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected the web results to survive, got %d items", len(items))
	}
	for _, item := range items {
		if item.Kind != model.SourceKindWeb {
			t.Errorf("unexpected item kind %q", item.Kind)
		}
	}
}

func TestRetrieve_EveryQuestionHitsBothProviders(t *testing.T) {
	internal := &fakeInternal{chunks: map[string][]search.Chunk{}}
	web := &fakeWeb{results: map[string][]search.WebResult{}}

	r := New(internal, web, nil, nil, bounds(), 2, nil)

	if _, err := r.Retrieve(context.Background(), questions("q1", "q2", "q3"), 1); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	if len(internal.queries) != 3 {
		t.Errorf("internal provider saw %d queries, want 3", len(internal.queries))
	}
	if len(web.queries) != 3 {
		t.Errorf("web provider saw %d queries, want 3", len(web.queries))
	}
	for _, limit := range internal.limits {
		if limit != bounds().MaxChunks {
			t.Errorf("internal limit = %d, want %d", limit, bounds().MaxChunks)
		}
	}
}

func TestRetrieve_SingleWorkerFullFanOut(t *testing.T) {
	// The maximum fan-out (five sub-questions, both providers) on the
	// smallest pool must still resolve every task.
	internal := &fakeInternal{chunks: map[string][]search.Chunk{}}
	web := &fakeWeb{results: map[string][]search.WebResult{}}
	for i, q := range []string{"q1", "q2", "q3", "q4", "q5"} {
		internal.chunks[q] = []search.Chunk{{DocumentID: "d", ChunkID: q, Score: float64(10 - i)}}
		web.results[q] = []search.WebResult{{URL: "https://example.com/" + q, Title: q, Score: float64(5 - i)}}
	}

	r := New(internal, web, nil, nil, bounds(), 1, nil)

	items, err := r.Retrieve(context.Background(), questions("q1", "q2", "q3", "q4", "q5"), 1)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(items))
	}
}

func TestRetrieve_NoProviders(t *testing.T) {
	r := New(nil, nil, nil, nil, bounds(), 2, nil)

	items, err := r.Retrieve(context.Background(), questions("q1"), 1)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestRetrieve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	web := &fakeWeb{}
	r := New(nil, web, nil, nil, bounds(), 2, nil)

	if _, err := r.Retrieve(ctx, questions("q1"), 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
