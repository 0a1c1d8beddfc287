// Package registry deduplicates evidence into stable citation identities.
// Citation ids are integers assigned starting at 1, strictly increasing,
// exactly once per distinct canonical key, and never reassigned: an item
// whose key recurs in a later iteration gets the id minted the first time.
package registry

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/scoutlab/scout/internal/model"
)

// Source is the deduplicated identity behind one or more evidence items
type Source struct {
	CitationID         int              `json:"citation_id"`
	CanonicalKey       string           `json:"canonical_key"`
	Kind               model.SourceKind `json:"kind"`
	Title              string           `json:"title,omitempty"`
	Locator            model.Locator    `json:"locator"` // representative: first item registered under this key
	FirstSeenIteration int              `json:"first_seen_iteration"`
	EvidenceIDs        []string         `json:"evidence_ids"`
}

// Registry assigns citation ids. It is not safe for concurrent use: all
// retrieval results of an iteration are merged into one sequential
// registration pass after the fan-out join point.
type Registry struct {
	byKey   map[string]*Source
	ordered []*Source // citation-id order
}

// New creates an empty registry
func New() *Registry {
	return &Registry{byKey: make(map[string]*Source)}
}

// Register records an evidence item and returns its citation id. The second
// return value reports whether a new Source was minted. Registering the same
// canonical key again is idempotent with respect to the id.
func (r *Registry) Register(item model.EvidenceItem) (int, bool, error) {
	key, err := CanonicalKey(item)
	if err != nil {
		return 0, false, err
	}

	if src, ok := r.byKey[key]; ok {
		src.EvidenceIDs = append(src.EvidenceIDs, item.ID)
		if src.Title == "" {
			src.Title = item.Locator.Title
		}
		return src.CitationID, false, nil
	}

	src := &Source{
		CitationID:         len(r.ordered) + 1,
		CanonicalKey:       key,
		Kind:               item.Kind,
		Title:              item.Locator.Title,
		Locator:            item.Locator,
		FirstSeenIteration: item.IterationFound,
		EvidenceIDs:        []string{item.ID},
	}
	r.byKey[key] = src
	r.ordered = append(r.ordered, src)

	return src.CitationID, true, nil
}

// List returns all sources in citation-id order
func (r *Registry) List() []Source {
	out := make([]Source, len(r.ordered))
	for i, src := range r.ordered {
		out[i] = *src
	}
	return out
}

// Len returns the number of distinct sources
func (r *Registry) Len() int {
	return len(r.ordered)
}

// References renders the registry as the final references section
func (r *Registry) References() []model.Reference {
	refs := make([]model.Reference, len(r.ordered))
	for i, src := range r.ordered {
		refs[i] = model.Reference{
			CitationID: src.CitationID,
			Title:      src.Title,
			Locator:    src.Locator.String(),
		}
	}
	return refs
}

// CanonicalKey computes the dedup key for an evidence item. Internal items
// key on (documentId, chunkId); web items key on the normalized URL.
func CanonicalKey(item model.EvidenceItem) (string, error) {
	switch item.Kind {
	case model.SourceKindInternal:
		if item.Locator.DocumentID == "" || item.Locator.ChunkID == "" {
			return "", fmt.Errorf("internal item %s has no document/chunk id", item.ID)
		}
		return "doc:" + item.Locator.DocumentID + "#" + item.Locator.ChunkID, nil

	case model.SourceKindWeb:
		normalized, err := NormalizeURL(item.Locator.URL)
		if err != nil {
			return "", fmt.Errorf("web item %s: %w", item.ID, err)
		}
		return "url:" + normalized, nil

	default:
		return "", fmt.Errorf("unknown source kind %q", item.Kind)
	}
}

// NormalizeURL canonicalizes a web URL for citation dedup: scheme and host
// are case-folded, the query string and fragment are stripped, and a
// trailing slash on the path is removed. Two URLs differing only in those
// parts count as one source.
func NormalizeURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("URL %q has no scheme or host", raw)
	}

	path := parsed.EscapedPath()
	path = strings.TrimSuffix(path, "/")

	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host) + path, nil
}
