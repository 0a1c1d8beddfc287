// Package search holds the retrieval provider clients. The index service and
// the web search APIs are external collaborators; everything here is plain
// HTTP plumbing behind two small interfaces.
package search

import "context"

// Chunk is one ranked passage returned by the internal index service
type Chunk struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score"`
}

// WebResult is one ranked result returned by a web search provider
type WebResult struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Filters restricts an internal search (e.g. collection or tag constraints)
type Filters map[string]string

// InternalProvider searches the internal document index
type InternalProvider interface {
	Name() string
	Search(ctx context.Context, query string, filters Filters, limit int) ([]Chunk, error)
}

// WebProvider searches the public web
type WebProvider interface {
	Name() string
	Search(ctx context.Context, query string) ([]WebResult, error)
}

// rankScore assigns a reciprocal-rank score to providers that return results
// without one, so merged ordering stays deterministic.
func rankScore(rank int) float64 {
	return 1.0 / float64(rank+1)
}
