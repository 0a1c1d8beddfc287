package model

import "time"

// Reference is one entry of the final references section. CitationID matches
// the [n] markers embedded in the report text.
type Reference struct {
	CitationID int    `json:"citation_id"`
	Title      string `json:"title,omitempty"`
	Locator    string `json:"locator"`
}

// IterationRecord captures what one research round did, for the trace
type IterationRecord struct {
	Iteration       int      `json:"iteration"`
	SubQuestions    []string `json:"sub_questions"`
	EvidenceFound   int      `json:"evidence_found"`
	NewCitations    int      `json:"new_citations"`
	ReusedCitations int      `json:"reused_citations"`
	CompleteEnough  bool     `json:"complete_enough"`
	MissingTopics   []string `json:"missing_topics,omitempty"`
	Continued       bool     `json:"continued"`
}

// Report is the final structured research result
type Report struct {
	Query       string            `json:"query"`
	Draft       string            `json:"report"`
	References  []Reference       `json:"references"`
	Iterations  int               `json:"iterations"`
	BestEffort  bool              `json:"best_effort"` // iteration cap hit before the critic was satisfied
	GeneratedAt time.Time         `json:"generated_at"`
	Trace       []IterationRecord `json:"trace,omitempty"`
}
