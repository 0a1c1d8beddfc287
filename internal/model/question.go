package model

import "github.com/google/uuid"

// SubQuestion is one decomposed facet of the original query. It drives a
// single retrieval round against both providers.
type SubQuestion struct {
	ID              string `json:"id"`
	Text            string `json:"text"`
	OriginIteration int    `json:"origin_iteration"` // 1 for initial planning, N for critique follow-ups
}

// NewSubQuestion creates a sub-question with a fresh id
func NewSubQuestion(text string, iteration int) SubQuestion {
	return SubQuestion{
		ID:              uuid.NewString(),
		Text:            text,
		OriginIteration: iteration,
	}
}
