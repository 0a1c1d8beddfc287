// Package critic judges draft completeness and proposes bounded follow-up
// research. A critic failure always defaults the continuation decision to
// "stop"; it never retries and never fails the session.
package critic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/scoutlab/scout/internal/llm"
	"github.com/scoutlab/scout/internal/model"
)

// Critic evaluates drafts
type Critic struct {
	provider llm.Provider // nil means generation is disabled
	bounds   model.BoundsConfig
	logger   *zap.Logger
}

// New creates a critic. provider may be nil; every review then stops the loop.
func New(provider llm.Provider, bounds model.BoundsConfig, logger *zap.Logger) *Critic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Critic{provider: provider, bounds: bounds.Normalize(), logger: logger}
}

// critiqueJSON is the structured reply the critique role must produce
type critiqueJSON struct {
	CompleteEnough bool     `json:"complete_enough"`
	MissingTopics  []string `json:"missing_topics"`
	FollowUps      []string `json:"follow_ups"`
}

// Review judges the draft for the current iteration. The continuation rule
// is applied here: continue only while the draft is incomplete, the
// iteration cap is not reached, and there are follow-ups to pursue.
func (c *Critic) Review(ctx context.Context, query, draft string, refs []model.Reference, iteration int) model.CritiqueResult {
	stop := model.CritiqueResult{CompleteEnough: false, ContinueFlag: false}

	if c.provider == nil {
		return stop
	}

	resp, err := c.provider.Generate(ctx, llm.Request{
		Role:   llm.RoleCritique,
		Prompt: buildCritiquePrompt(query, draft, len(refs), c.bounds.MaxFollowUps),
	})
	if err != nil {
		c.logger.Warn("critique generation failed, stopping iteration",
			zap.String("provider", c.provider.Name()),
			zap.Int("iteration", iteration),
			zap.Error(err))
		return stop
	}

	parsed, err := parseCritique(resp.Text)
	if err != nil {
		c.logger.Warn("critique response unparseable, stopping iteration",
			zap.Int("iteration", iteration),
			zap.Error(err))
		return stop
	}

	result := model.CritiqueResult{
		CompleteEnough: parsed.CompleteEnough,
		MissingTopics:  parsed.MissingTopics,
	}

	for _, text := range parsed.FollowUps {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		result.FollowUps = append(result.FollowUps, model.NewSubQuestion(text, iteration+1))
		if len(result.FollowUps) >= c.bounds.MaxFollowUps {
			break
		}
	}

	result.ContinueFlag = !result.CompleteEnough &&
		iteration < c.bounds.MaxIterations &&
		len(result.FollowUps) > 0

	return result
}

// buildCritiquePrompt constructs the review prompt
func buildCritiquePrompt(query, draft string, sourceCount, maxFollowUps int) string {
	return fmt.Sprintf(`Review this research report draft for completeness against the original query.

Query: %s

Draft (built from %d cited sources):
---
%s
---

Judge whether the draft answers the query completely. If not, name the
missing topics and propose at most %d follow-up research questions that
would close the gaps.

Respond with a JSON object and nothing else:
{"complete_enough": true|false, "missing_topics": ["..."], "follow_ups": ["..."]}`,
		query, sourceCount, draft, maxFollowUps)
}

// parseCritique extracts the JSON object from a model response, tolerating
// surrounding prose and code fences.
func parseCritique(text string) (*critiqueJSON, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var parsed critiqueJSON
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("decode critique: %w", err)
	}

	return &parsed, nil
}
