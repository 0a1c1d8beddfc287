package search

import (
	"context"
	"encoding/json"
	"time"

	"github.com/scoutlab/scout/internal/cache"
)

// CachedWeb wraps a WebProvider with a result cache. Follow-up iterations
// and batch runs often repeat queries; a hit skips the provider entirely.
type CachedWeb struct {
	inner WebProvider
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedWeb wraps provider with the given cache
func NewCachedWeb(provider WebProvider, c cache.Cache, ttl time.Duration) *CachedWeb {
	return &CachedWeb{inner: provider, cache: c, ttl: ttl}
}

// Name returns the wrapped provider's name
func (w *CachedWeb) Name() string {
	return w.inner.Name()
}

// Search serves from cache when possible, otherwise delegates and stores
func (w *CachedWeb) Search(ctx context.Context, query string) ([]WebResult, error) {
	key := cache.Key("web:"+w.inner.Name(), query)
	if raw, found := w.cache.Get(key); found {
		var results []WebResult
		if err := json.Unmarshal(raw, &results); err == nil {
			return results, nil
		}
		// Corrupt entry: drop it and fall through to the provider
		_ = w.cache.Delete(key)
	}

	results, err := w.inner.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(results); err == nil {
		_ = w.cache.Set(key, raw, w.ttl)
	}

	return results, nil
}

// CachedInternal wraps an InternalProvider with a result cache
type CachedInternal struct {
	inner InternalProvider
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedInternal wraps provider with the given cache
func NewCachedInternal(provider InternalProvider, c cache.Cache, ttl time.Duration) *CachedInternal {
	return &CachedInternal{inner: provider, cache: c, ttl: ttl}
}

// Name returns the wrapped provider's name
func (i *CachedInternal) Name() string {
	return i.inner.Name()
}

// Search serves from cache when possible, otherwise delegates and stores
func (i *CachedInternal) Search(ctx context.Context, query string, filters Filters, limit int) ([]Chunk, error) {
	payload, _ := json.Marshal(indexSearchRequest{Query: query, Filters: filters, Limit: limit})
	key := cache.Key("internal:"+i.inner.Name(), string(payload))
	if raw, found := i.cache.Get(key); found {
		var chunks []Chunk
		if err := json.Unmarshal(raw, &chunks); err == nil {
			return chunks, nil
		}
		_ = i.cache.Delete(key)
	}

	chunks, err := i.inner.Search(ctx, query, filters, limit)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(chunks); err == nil {
		_ = i.cache.Set(key, raw, i.ttl)
	}

	return chunks, nil
}
