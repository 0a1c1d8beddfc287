// Package writer synthesizes the cited report draft from registered sources.
// On revision it amends the previous draft so content converges instead of
// oscillating between iterations.
package writer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/scoutlab/scout/internal/llm"
	"github.com/scoutlab/scout/internal/model"
	"github.com/scoutlab/scout/internal/registry"
)

// snippetsPerSource caps how many snippets one source contributes to the prompt
const snippetsPerSource = 2

// WritingError is fatal: no draft could be produced in any form
type WritingError struct {
	Reason string
	Err    error
}

func (e *WritingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("writing failed: %s: %v", e.Reason, e.Err)
	}
	return "writing failed: " + e.Reason
}

func (e *WritingError) Unwrap() error { return e.Err }

// Writer produces and revises report drafts
type Writer struct {
	provider llm.Provider // nil means generation is disabled
	logger   *zap.Logger
}

// New creates a writer. provider may be nil; drafts are then assembled
// deterministically from the evidence.
func New(provider llm.Provider, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{provider: provider, logger: logger}
}

// Input is everything the writer needs for one draft
type Input struct {
	Query         string
	Sources       []registry.Source
	Evidence      []model.EvidenceItem // registration order, all iterations
	PreviousDraft string               // empty on iteration 1
	MissingTopics []string             // from the previous critique, guides revision
	Iteration     int
}

// Write produces the draft for the current iteration. It fails with a
// WritingError only when there is no evidence and no previous draft to fall
// back on; a generation failure with evidence present degrades to a
// deterministic draft instead.
func (w *Writer) Write(ctx context.Context, in Input) (string, error) {
	if w.provider != nil {
		resp, err := w.provider.Generate(ctx, llm.Request{
			Role:   llm.RoleWrite,
			Prompt: buildWritePrompt(in),
		})
		if err == nil && strings.TrimSpace(resp.Text) != "" {
			return strings.TrimSpace(resp.Text), nil
		}
		if err != nil {
			w.logger.Warn("writer generation failed, falling back to assembled draft",
				zap.String("provider", w.provider.Name()),
				zap.Int("iteration", in.Iteration),
				zap.Error(err))
		}
	}

	if len(in.Sources) == 0 {
		if in.PreviousDraft != "" {
			// Keep the converged draft rather than regress
			return in.PreviousDraft, nil
		}
		return "", &WritingError{Reason: "no evidence and no fallback draft"}
	}

	return assembleDraft(in), nil
}

// buildWritePrompt constructs the synthesis or revision prompt
func buildWritePrompt(in Input) string {
	var b strings.Builder

	if in.PreviousDraft == "" {
		fmt.Fprintf(&b, "Write a structured research report answering this query:\n\n%s\n\n", in.Query)
	} else {
		fmt.Fprintf(&b, "Revise the research report below for this query:\n\n%s\n\n", in.Query)
		b.WriteString("Amend the existing draft: keep its structure and sound content, correct or extend it with the sources listed. Do not start over.\n\n")
		if len(in.MissingTopics) > 0 {
			fmt.Fprintf(&b, "A review found these topics missing or thin: %s\n\n", strings.Join(in.MissingTopics, "; "))
		}
		fmt.Fprintf(&b, "Current draft:\n---\n%s\n---\n\n", in.PreviousDraft)
	}

	b.WriteString("Rules:\n")
	b.WriteString("- Use exactly these sections: ## Overview, ## Key Findings, ## Detailed Analysis, ## Conclusion, ## References.\n")
	b.WriteString("- Every substantive claim carries at least one citation marker like [3] referencing a source below.\n")
	b.WriteString("- Use ONLY the numbered sources below. Never invent sources or citation numbers.\n")
	b.WriteString("- In ## References list each cited source as: [n] title - locator.\n\n")
	b.WriteString("Sources:\n")
	b.WriteString(formatSources(in.Sources, in.Evidence))

	return b.String()
}

// formatSources renders the numbered source list with their best snippets
func formatSources(sources []registry.Source, evidence []model.EvidenceItem) string {
	snippets := make(map[string]string, len(evidence))
	for _, item := range evidence {
		snippets[item.ID] = item.Snippet
	}

	var b strings.Builder
	for _, src := range sources {
		title := src.Title
		if title == "" {
			title = src.Locator.String()
		}
		fmt.Fprintf(&b, "[%d] %s - %s\n", src.CitationID, title, src.Locator.String())
		for i, id := range src.EvidenceIDs {
			if i >= snippetsPerSource {
				break
			}
			if s := strings.TrimSpace(snippets[id]); s != "" {
				fmt.Fprintf(&b, "    %s\n", s)
			}
		}
	}
	return b.String()
}

// assembleDraft builds a deterministic degraded draft straight from the
// evidence. It keeps the fixed section structure and cites every snippet it
// includes, so the report contract holds even without a generation backend.
func assembleDraft(in Input) string {
	snippets := make(map[string]string, len(in.Evidence))
	for _, item := range in.Evidence {
		snippets[item.ID] = item.Snippet
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", in.Query)

	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "This report collects evidence from %d sources addressing the query. ", len(in.Sources))
	b.WriteString("It was assembled directly from retrieved material without model synthesis.\n\n")

	b.WriteString("## Key Findings\n\n")
	for _, src := range in.Sources {
		if s := firstSnippet(src, snippets); s != "" {
			fmt.Fprintf(&b, "- %s [%d]\n", trimToSentence(s), src.CitationID)
		}
	}
	b.WriteString("\n## Detailed Analysis\n\n")
	for _, src := range in.Sources {
		title := src.Title
		if title == "" {
			title = src.Locator.String()
		}
		fmt.Fprintf(&b, "### %s [%d]\n\n", title, src.CitationID)
		for i, id := range src.EvidenceIDs {
			if i >= snippetsPerSource {
				break
			}
			if s := strings.TrimSpace(snippets[id]); s != "" {
				fmt.Fprintf(&b, "%s [%d]\n\n", s, src.CitationID)
			}
		}
	}

	b.WriteString("## Conclusion\n\n")
	fmt.Fprintf(&b, "The evidence above spans %d distinct sources across %d retrieval rounds. ",
		len(in.Sources), in.Iteration)
	b.WriteString("Review the cited material directly for authoritative detail.\n\n")

	b.WriteString("## References\n\n")
	for _, src := range in.Sources {
		title := src.Title
		if title == "" {
			title = src.Locator.String()
		}
		fmt.Fprintf(&b, "[%d] %s - %s\n", src.CitationID, title, src.Locator.String())
	}

	return strings.TrimSpace(b.String())
}

func firstSnippet(src registry.Source, snippets map[string]string) string {
	for _, id := range src.EvidenceIDs {
		if s := strings.TrimSpace(snippets[id]); s != "" {
			return s
		}
	}
	return ""
}

// trimToSentence cuts a snippet at its first sentence end, or at 200 runes
func trimToSentence(s string) string {
	if idx := strings.IndexAny(s, ".!?"); idx > 20 {
		return s[:idx+1]
	}
	runes := []rune(s)
	if len(runes) > 200 {
		return string(runes[:200]) + "…"
	}
	return s
}
