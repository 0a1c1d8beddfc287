package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Tavily calls the Tavily search API
type Tavily struct {
	apiKey string
	depth  string // basic or advanced
	client *http.Client
}

// NewTavily constructs a Tavily web search provider
func NewTavily(apiKey string, depth string) *Tavily {
	if depth == "" {
		depth = "basic"
	}
	return &Tavily{apiKey: apiKey, depth: depth, client: &http.Client{Timeout: 15 * time.Second}}
}

// NewTavilyWithClient constructs a Tavily provider using the supplied HTTP
// client, useful for overriding the default timeout in tests.
func NewTavilyWithClient(apiKey string, depth string, client *http.Client) *Tavily {
	if depth == "" {
		depth = "basic"
	}
	return &Tavily{apiKey: apiKey, depth: depth, client: client}
}

// tavilyEndpoint is a variable so tests can point at a mock server
var tavilyEndpoint = "https://api.tavily.com/search"

// Name returns the provider name
func (t *Tavily) Name() string {
	return "tavily"
}

// Search posts a query to Tavily
func (t *Tavily) Search(ctx context.Context, query string) ([]WebResult, error) {
	if strings.TrimSpace(t.apiKey) == "" {
		return nil, errors.New("tavily: API key is missing")
	}

	body := map[string]any{
		"query":   query,
		"api_key": t.apiKey,
		"depth":   t.depth,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	delay := 1 * time.Second
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyEndpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err = t.client.Do(req)
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
		return nil, fmt.Errorf("tavily http %d", resp.StatusCode)
	}

	var response struct {
		Results []struct {
			Title   string  `json:"title"`
			URL     string  `json:"url"`
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("tavily decode: %w", err)
	}

	results := make([]WebResult, 0, len(response.Results))
	for i, r := range response.Results {
		score := r.Score
		if score == 0 {
			score = rankScore(i)
		}
		results = append(results, WebResult{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: r.Content,
			Score:   score,
		})
	}

	return results, nil
}
