package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/scoutlab/scout/internal/model"
)

// Renderer writes finished reports to disk and the terminal
type Renderer struct {
	includeTrace bool
}

// NewRenderer creates a renderer
func NewRenderer(includeTrace bool) *Renderer {
	return &Renderer{includeTrace: includeTrace}
}

// RenderJSON writes the report as JSON to path
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	out := *report
	if !r.includeTrace {
		out.Trace = nil
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

// RenderMarkdown writes the report as Markdown to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	if err := os.WriteFile(path, []byte(r.Markdown(report)), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Markdown renders the report text plus the optional trace appendix
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder
	b.WriteString(report.Draft)
	b.WriteString("\n")

	if report.BestEffort {
		b.WriteString("\n> Best-effort report: the iteration cap was reached before the review considered it complete.\n")
	}

	if r.includeTrace && len(report.Trace) > 0 {
		b.WriteString("\n## Iteration Trace\n\n")
		for _, rec := range report.Trace {
			fmt.Fprintf(&b, "- Iteration %d: %d sub-questions, %d evidence items, %d new / %d reused citations",
				rec.Iteration, len(rec.SubQuestions), rec.EvidenceFound, rec.NewCitations, rec.ReusedCitations)
			if rec.CompleteEnough {
				b.WriteString(", judged complete")
			} else if len(rec.MissingTopics) > 0 {
				fmt.Fprintf(&b, ", missing: %s", strings.Join(rec.MissingTopics, "; "))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// RenderSummary prints a short completion summary to stdout
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Printf("✓ Research complete: %d iterations, %d references\n", report.Iterations, len(report.References))
	if report.BestEffort {
		fmt.Println("  (best effort: iteration cap reached before the review was satisfied)")
	}
}
