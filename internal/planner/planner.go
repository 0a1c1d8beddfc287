// Package planner decomposes a research query into bounded sub-question
// sets. The first iteration asks the generation backend for a decomposition;
// later iterations only validate and cap the critic's follow-ups.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/scoutlab/scout/internal/llm"
	"github.com/scoutlab/scout/internal/model"
)

// PlanningError is fatal: no sub-question could be produced at all. The
// engine surfaces it as a session failure only on the first iteration.
type PlanningError struct {
	Reason string
	Err    error
}

func (e *PlanningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("planning failed: %s: %v", e.Reason, e.Err)
	}
	return "planning failed: " + e.Reason
}

func (e *PlanningError) Unwrap() error { return e.Err }

// Planner produces sub-question lists
type Planner struct {
	provider llm.Provider // nil means generation is disabled
	bounds   model.BoundsConfig
	logger   *zap.Logger
}

// New creates a planner. provider may be nil; planning then falls back to a
// single sub-question equal to the query.
func New(provider llm.Provider, bounds model.BoundsConfig, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{provider: provider, bounds: bounds.Normalize(), logger: logger}
}

// PlanInitial decomposes the query for iteration 1. The result is capped at
// the initial sub-question bound and never empty on success.
func (p *Planner) PlanInitial(ctx context.Context, query string) ([]model.SubQuestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &PlanningError{Reason: "query is empty"}
	}

	texts := p.decompose(ctx, query)
	if len(texts) == 0 {
		// Fallback: research the query as a single sub-question
		texts = []string{query}
	}

	questions := make([]model.SubQuestion, 0, len(texts))
	for _, text := range texts {
		questions = append(questions, model.NewSubQuestion(text, 1))
	}

	return questions, nil
}

// PlanFollowUps validates the critique's follow-ups for the next iteration.
// An empty result means no further planning is needed; it is never an error.
func (p *Planner) PlanFollowUps(critique model.CritiqueResult, iteration int) []model.SubQuestion {
	var questions []model.SubQuestion
	for _, q := range critique.FollowUps {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			continue
		}
		questions = append(questions, model.SubQuestion{
			ID:              q.ID,
			Text:            text,
			OriginIteration: iteration,
		})
		if len(questions) >= p.bounds.MaxFollowUps {
			break
		}
	}
	return questions
}

// decompose asks the generation backend for sub-questions. Any failure is
// absorbed: the caller falls back to the raw query.
func (p *Planner) decompose(ctx context.Context, query string) []string {
	if p.provider == nil {
		return nil
	}

	resp, err := p.provider.Generate(ctx, llm.Request{
		Role:   llm.RolePlan,
		Prompt: buildPlanPrompt(query, p.bounds.MaxSubQuestions),
	})
	if err != nil {
		p.logger.Warn("planner generation failed, using query as single sub-question",
			zap.String("provider", p.provider.Name()),
			zap.Error(err))
		return nil
	}

	texts := parseSubQuestions(resp.Text)
	if len(texts) == 0 {
		p.logger.Warn("planner returned no parseable sub-questions",
			zap.String("provider", p.provider.Name()))
		return nil
	}

	if len(texts) > p.bounds.MaxSubQuestions {
		texts = texts[:p.bounds.MaxSubQuestions]
	}

	return texts
}

// buildPlanPrompt constructs the decomposition prompt
func buildPlanPrompt(query string, max int) string {
	return fmt.Sprintf(`Decompose the following research query into at most %d focused sub-questions.
Each sub-question should cover a distinct facet needed to answer the query well.

Query: %s

Respond with a JSON array of strings and nothing else, for example:
["first sub-question", "second sub-question"]`, max, query)
}

// parseSubQuestions extracts the JSON string array from a model response,
// tolerating surrounding prose and code fences.
func parseSubQuestions(text string) []string {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil
	}

	var items []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &items); err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[strings.ToLower(item)] {
			continue
		}
		seen[strings.ToLower(item)] = true
		out = append(out, item)
	}

	return out
}
