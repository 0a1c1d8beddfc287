package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/scoutlab/scout/internal/util"
)

// IndexClient talks to the internal index service over HTTP JSON
type IndexClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// IndexOption configures an IndexClient
type IndexOption func(*IndexClient)

// WithIndexHTTPClient overrides the default HTTP client
func WithIndexHTTPClient(client *http.Client) IndexOption {
	return func(c *IndexClient) { c.httpClient = client }
}

// WithIndexProxy routes requests through the configured proxies
func WithIndexProxy(httpProxy, httpsProxy, noProxy string) IndexOption {
	return func(c *IndexClient) {
		c.httpClient.Transport = &http.Transport{
			Proxy: util.NewProxyFunc(httpProxy, httpsProxy, noProxy),
		}
	}
}

// NewIndexClient creates a client for the index service at endpoint
func NewIndexClient(endpoint, apiKey string, timeout time.Duration, opts ...IndexOption) *IndexClient {
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	c := &IndexClient{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider name
func (c *IndexClient) Name() string {
	return "indexd"
}

type indexSearchRequest struct {
	Query   string            `json:"query"`
	Filters map[string]string `json:"filters,omitempty"`
	Limit   int               `json:"limit"`
}

type indexSearchResponse struct {
	Results []Chunk `json:"results"`
	Error   string  `json:"error,omitempty"`
}

// Search runs a ranked chunk search. The limit is enforced client-side as
// well, in case the service ignores it.
func (c *IndexClient) Search(ctx context.Context, query string, filters Filters, limit int) ([]Chunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("indexd: query is empty")
	}

	payload, err := json.Marshal(indexSearchRequest{
		Query:   query,
		Filters: filters,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("indexd request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiResp indexSearchResponse
		if json.Unmarshal(raw, &apiResp) == nil && apiResp.Error != "" {
			return nil, fmt.Errorf("indexd error: %s", apiResp.Error)
		}
		return nil, fmt.Errorf("indexd http %d", resp.StatusCode)
	}

	var apiResp indexSearchResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := apiResp.Results
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}
