// Package fetch optionally expands thin web snippets by fetching the result
// pages themselves. Fetches are robots.txt-gated, per-host rate-limited and
// body-capped; any failure leaves the original snippet in place.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/scoutlab/scout/internal/model"
	"github.com/scoutlab/scout/internal/util"
	"github.com/scoutlab/scout/internal/worker"
)

// snippetLimit bounds the enriched snippet length in runes
const snippetLimit = 900

// Enricher fetches top web results and replaces their snippets with
// extracted page text
type Enricher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	topResults int
	robots     *RobotsChecker
	limiter    *worker.Limiter
	logger     *zap.Logger
}

// NewEnricher creates an enricher from the fetch configuration
func NewEnricher(cfg model.FetchConfig, proxy model.ProxyConfig, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	topResults := cfg.TopResults
	if topResults <= 0 {
		topResults = 3
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 1_000_000
	}

	return &Enricher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(proxy.HTTPProxy, proxy.HTTPSProxy, proxy.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:  cfg.UserAgent,
		maxBytes:   maxBytes,
		topResults: topResults,
		robots:     NewRobotsChecker(cfg.UserAgent, cfg.Timeout),
		limiter:    worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		logger:     logger,
	}
}

// Enrich replaces the snippets of the highest-scored web items in place.
// Failures are logged and skipped.
func (e *Enricher) Enrich(ctx context.Context, items []model.EvidenceItem) {
	var webIdx []int
	for i, item := range items {
		if item.Kind == model.SourceKindWeb && item.Locator.URL != "" {
			webIdx = append(webIdx, i)
		}
	}
	sort.SliceStable(webIdx, func(a, b int) bool {
		return items[webIdx[a]].Score > items[webIdx[b]].Score
	})
	if len(webIdx) > e.topResults {
		webIdx = webIdx[:e.topResults]
	}

	for _, i := range webIdx {
		if ctx.Err() != nil {
			return
		}
		text, err := e.fetchText(ctx, items[i].Locator.URL)
		if err != nil {
			e.logger.Debug("snippet enrichment skipped",
				zap.String("url", items[i].Locator.URL),
				zap.Error(err))
			continue
		}
		if len(text) > len(items[i].Snippet) {
			items[i].Snippet = text
		}
	}
}

// fetchText retrieves a page and extracts its visible text
func (e *Enricher) fetchText(ctx context.Context, rawURL string) (string, error) {
	if !e.robots.Allowed(ctx, rawURL) {
		return "", fmt.Errorf("disallowed by robots.txt")
	}

	if err := e.limiter.Wait(ctx, rawURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text := extractText(string(body))
	if text == "" {
		return "", fmt.Errorf("no text content")
	}

	runes := []rune(text)
	if len(runes) > snippetLimit {
		text = string(runes[:snippetLimit])
	}

	return text, nil
}

// extractText walks the HTML tree and collects visible text, skipping
// script, style and navigation chrome.
func extractText(page string) string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "nav", "header", "footer", "aside":
				return
			}
		}
		if n.Type == html.TextNode {
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				b.WriteString(trimmed)
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(b.String())
}
