package model

// SourceKind identifies which provider an evidence item came from
type SourceKind string

const (
	SourceKindInternal SourceKind = "internal" // index service chunk
	SourceKindWeb      SourceKind = "web"      // web search result
)

// Locator pins an evidence item to its origin. Internal items carry
// (DocumentID, ChunkID); web items carry a URL.
type Locator struct {
	DocumentID string `json:"document_id,omitempty"`
	ChunkID    string `json:"chunk_id,omitempty"`
	URL        string `json:"url,omitempty"`
	Title      string `json:"title,omitempty"`
}

// String renders the locator for the references section
func (l Locator) String() string {
	if l.URL != "" {
		return l.URL
	}
	return l.DocumentID + "#" + l.ChunkID
}

// EvidenceItem is one retrieved snippet plus its origin and relevance score
type EvidenceItem struct {
	ID             string     `json:"id"`
	Kind           SourceKind `json:"kind"`
	Snippet        string     `json:"snippet"`
	Locator        Locator    `json:"locator"`
	Score          float64    `json:"score"`
	IterationFound int        `json:"iteration_found"`
	SubQuestionID  string     `json:"sub_question_id,omitempty"`
}
