package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/scoutlab/scout/internal/cache"
	"github.com/scoutlab/scout/internal/model"
)

// NewWebProvider creates the configured web search provider. An empty
// provider name returns (nil, nil): web search is disabled and retrieval
// degrades to internal results only.
func NewWebProvider(cfg *model.Config) (WebProvider, error) {
	var provider WebProvider

	switch strings.ToLower(cfg.Search.WebProvider) {
	case "tavily":
		if cfg.Search.TavilyAPIKey == "" {
			return nil, fmt.Errorf("tavily requires an API key (search.tavily_api_key or TAVILY_API_KEY)")
		}
		provider = NewTavily(cfg.Search.TavilyAPIKey, cfg.Search.TavilyDepth)

	case "duckduckgo":
		provider = NewDuckDuckGo()

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown web provider: %s (supported: tavily, duckduckgo)", cfg.Search.WebProvider)
	}

	if cfg.Cache.Enabled {
		provider = NewCachedWeb(provider, newCache(cfg), cfg.Cache.TTL)
	}

	return provider, nil
}

// NewInternalProvider creates the index service client. An empty endpoint
// returns (nil, nil): internal search is disabled.
func NewInternalProvider(cfg *model.Config, timeout time.Duration) (InternalProvider, error) {
	if cfg.Search.InternalEndpoint == "" {
		return nil, nil
	}

	var provider InternalProvider = NewIndexClient(
		cfg.Search.InternalEndpoint,
		cfg.Search.InternalAPIKey,
		timeout,
		WithIndexProxy(cfg.Proxy.HTTPProxy, cfg.Proxy.HTTPSProxy, cfg.Proxy.NoProxy),
	)

	if cfg.Cache.Enabled {
		provider = NewCachedInternal(provider, newCache(cfg), cfg.Cache.TTL)
	}

	return provider, nil
}

func newCache(cfg *model.Config) cache.Cache {
	return cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval)
}
