package search

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ddgLimiter enforces a global 1 QPS limit across all DuckDuckGo instances
// and goroutines; the lite endpoint bans faster clients quickly.
var ddgLimiter = rate.NewLimiter(rate.Limit(1), 1)

// DuckDuckGo scrapes DuckDuckGo's lite HTML interface. It needs no API key,
// which makes it the default web provider.
type DuckDuckGo struct {
	client *http.Client
}

// NewDuckDuckGo creates a DuckDuckGo provider with a modest timeout
func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{client: &http.Client{Timeout: 15 * time.Second}}
}

// NewDuckDuckGoWithClient creates a DuckDuckGo provider using the supplied
// HTTP client.
func NewDuckDuckGoWithClient(client *http.Client) *DuckDuckGo {
	return &DuckDuckGo{client: client}
}

// ddgEndpoint is a variable so tests can point at a mock server
var ddgEndpoint = "https://lite.duckduckgo.com/lite/"

// Name returns the provider name
func (d *DuckDuckGo) Name() string {
	return "duckduckgo"
}

// Search posts the query to the lite HTML page and scrapes the results
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]WebResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is empty")
	}

	if err := ddgLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	formData := url.Values{}
	formData.Set("q", query)

	var resp *http.Response
	delay := 1 * time.Second
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ddgEndpoint, strings.NewReader(formData.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err = d.client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		resp.Body.Close()

		// Back off and retry on 429, doubling the delay each time up to 30 s.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return parseLiteResults(string(body)), nil
}

// Result links in the lite page: <a ... class='result-link' href='URL'>TITLE</a>
var (
	ddgLinkPattern    = regexp.MustCompile(`<a[^>]*class=['"]result-link['"][^>]*href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	ddgLinkPatternAlt = regexp.MustCompile(`<a[^>]*href=['"]([^'"]+)['"][^>]*class=['"]result-link['"][^>]*>([^<]+)</a>`)
	ddgSnippetPattern = regexp.MustCompile(`<td[^>]*class=['"]result-snippet['"][^>]*>([^<]+)</td>`)
)

// parseLiteResults extracts search results from the DuckDuckGo lite HTML
func parseLiteResults(page string) []WebResult {
	matches := ddgLinkPattern.FindAllStringSubmatch(page, -1)
	if len(matches) == 0 {
		matches = ddgLinkPatternAlt.FindAllStringSubmatch(page, -1)
	}
	snippets := ddgSnippetPattern.FindAllStringSubmatch(page, -1)

	var results []WebResult
	for i, m := range matches {
		link := html.UnescapeString(m[1])
		if strings.HasPrefix(link, "//") {
			link = "https:" + link
		}
		// The lite page wraps outbound links in a redirect
		if u, err := url.Parse(link); err == nil && strings.Contains(u.Path, "/l/") {
			if target := u.Query().Get("uddg"); target != "" {
				link = target
			}
		}

		snippet := ""
		if i < len(snippets) {
			snippet = html.UnescapeString(strings.TrimSpace(snippets[i][1]))
		}

		results = append(results, WebResult{
			URL:     link,
			Title:   html.UnescapeString(strings.TrimSpace(m[2])),
			Snippet: snippet,
			Score:   rankScore(i),
		})
	}

	return results
}
