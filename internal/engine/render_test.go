package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scoutlab/scout/internal/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		Query: "q",
		Draft: "# Findings\n\nBody with a citation [1].",
		References: []model.Reference{
			{CitationID: 1, Title: "A", Locator: "https://example.com/a"},
		},
		Iterations: 2,
		BestEffort: true,
		Trace: []model.IterationRecord{
			{Iteration: 1, SubQuestions: []string{"sq1", "sq2"}, EvidenceFound: 4, NewCitations: 3, MissingTopics: []string{"costs"}, Continued: true},
			{Iteration: 2, SubQuestions: []string{"f1"}, EvidenceFound: 1, NewCitations: 1, ReusedCitations: 1},
		},
	}
}

func TestRenderer_Markdown(t *testing.T) {
	out := NewRenderer(true).Markdown(sampleReport())

	if !strings.Contains(out, "Body with a citation [1].") {
		t.Error("draft missing from markdown")
	}
	if !strings.Contains(out, "Best-effort report") {
		t.Error("best-effort note missing")
	}
	if !strings.Contains(out, "## Iteration Trace") {
		t.Error("trace appendix missing")
	}
	if !strings.Contains(out, "missing: costs") {
		t.Error("missing topics not rendered")
	}
}

func TestRenderer_MarkdownWithoutTrace(t *testing.T) {
	out := NewRenderer(false).Markdown(sampleReport())
	if strings.Contains(out, "Iteration Trace") {
		t.Error("trace rendered despite being disabled")
	}
}

func TestRenderer_RenderJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	if err := NewRenderer(false).RenderJSON(sampleReport(), path); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	var decoded model.Report
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if decoded.Query != "q" || len(decoded.References) != 1 {
		t.Errorf("decoded report = %+v", decoded)
	}
	if decoded.Trace != nil {
		t.Error("trace must be stripped when disabled")
	}
}
