package registry

import (
	"testing"

	"github.com/scoutlab/scout/internal/model"
)

func internalItem(id, doc, chunk string, iteration int) model.EvidenceItem {
	return model.EvidenceItem{
		ID:             id,
		Kind:           model.SourceKindInternal,
		Locator:        model.Locator{DocumentID: doc, ChunkID: chunk},
		IterationFound: iteration,
	}
}

func webItem(id, url, title string, iteration int) model.EvidenceItem {
	return model.EvidenceItem{
		ID:             id,
		Kind:           model.SourceKindWeb,
		Locator:        model.Locator{URL: url, Title: title},
		IterationFound: iteration,
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "https://example.com/page", "https://example.com/page", false},
		{"strips query", "https://example.com/page?utm=1&x=2", "https://example.com/page", false},
		{"strips fragment", "https://example.com/page#section", "https://example.com/page", false},
		{"strips trailing slash", "https://example.com/page/", "https://example.com/page", false},
		{"case-folds host", "https://EXAMPLE.com/Page", "https://example.com/Page", false},
		{"case-folds scheme", "HTTPS://example.com/page", "https://example.com/page", false},
		{"root path", "https://example.com/", "https://example.com", false},
		{"path case preserved", "https://example.com/A/B", "https://example.com/A/B", false},
		{"no scheme", "example.com/page", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeURL(%q) expected error, got %q", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeURL(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRegister_AssignsIncreasingIDs(t *testing.T) {
	reg := New()

	items := []model.EvidenceItem{
		internalItem("e1", "doc-a", "c1", 1),
		internalItem("e2", "doc-a", "c2", 1),
		webItem("e3", "https://example.com/one", "One", 1),
	}

	for i, item := range items {
		id, isNew, err := reg.Register(item)
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if !isNew {
			t.Errorf("item %d: expected new source", i)
		}
		if id != i+1 {
			t.Errorf("item %d: expected citation id %d, got %d", i, i+1, id)
		}
	}

	if reg.Len() != 3 {
		t.Errorf("expected 3 sources, got %d", reg.Len())
	}
}

func TestRegister_Idempotent(t *testing.T) {
	reg := New()

	first, isNew, err := reg.Register(internalItem("e1", "doc-a", "c1", 1))
	if err != nil || !isNew {
		t.Fatalf("first Register: id=%d isNew=%v err=%v", first, isNew, err)
	}

	// Same canonical key in a later iteration reuses the id
	second, isNew, err := reg.Register(internalItem("e2", "doc-a", "c1", 2))
	if err != nil {
		t.Fatalf("second Register: %v", err)
	}
	if isNew {
		t.Error("duplicate key must not mint a new source")
	}
	if second != first {
		t.Errorf("expected reused id %d, got %d", first, second)
	}

	if reg.Len() != 1 {
		t.Errorf("expected 1 source, got %d", reg.Len())
	}

	sources := reg.List()
	if len(sources[0].EvidenceIDs) != 2 {
		t.Errorf("expected 2 evidence ids on the source, got %d", len(sources[0].EvidenceIDs))
	}
	if sources[0].FirstSeenIteration != 1 {
		t.Errorf("first seen iteration must stay 1, got %d", sources[0].FirstSeenIteration)
	}
}

func TestRegister_URLVariantsShareOneSource(t *testing.T) {
	reg := New()

	variants := []string{
		"https://example.com/page",
		"https://example.com/page/",
		"https://example.com/page?ref=rss",
		"https://EXAMPLE.com/page#top",
	}

	for i, u := range variants {
		id, _, err := reg.Register(webItem("e", u, "", 1))
		if err != nil {
			t.Fatalf("Register(%q): %v", u, err)
		}
		if id != 1 {
			t.Errorf("variant %d (%q): expected citation id 1, got %d", i, u, id)
		}
	}

	if reg.Len() != 1 {
		t.Errorf("expected a single source, got %d", reg.Len())
	}
}

func TestRegister_InvalidItems(t *testing.T) {
	reg := New()

	tests := []struct {
		name string
		item model.EvidenceItem
	}{
		{"internal missing chunk", model.EvidenceItem{Kind: model.SourceKindInternal, Locator: model.Locator{DocumentID: "d"}}},
		{"web bad url", model.EvidenceItem{Kind: model.SourceKindWeb, Locator: model.Locator{URL: "not-a-url"}}},
		{"unknown kind", model.EvidenceItem{Kind: "carrier-pigeon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := reg.Register(tt.item); err == nil {
				t.Error("expected error")
			}
		})
	}

	if reg.Len() != 0 {
		t.Errorf("invalid items must not mint sources, got %d", reg.Len())
	}
}

func TestList_CitationIDOrder(t *testing.T) {
	reg := New()
	_, _, _ = reg.Register(webItem("e1", "https://b.example.com/x", "B", 1))
	_, _, _ = reg.Register(internalItem("e2", "doc", "c9", 1))
	_, _, _ = reg.Register(webItem("e3", "https://a.example.com/y", "A", 2))

	sources := reg.List()
	for i, src := range sources {
		if src.CitationID != i+1 {
			t.Errorf("position %d: citation id %d", i, src.CitationID)
		}
	}

	refs := reg.References()
	if len(refs) != 3 {
		t.Fatalf("expected 3 references, got %d", len(refs))
	}
	if refs[1].Locator != "doc#c9" {
		t.Errorf("internal reference locator = %q", refs[1].Locator)
	}
}
