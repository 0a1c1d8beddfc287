package model

import "time"

// Config is the complete Scout configuration
type Config struct {
	Bounds      BoundsConfig      `yaml:"bounds" mapstructure:"bounds"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Search      SearchConfig      `yaml:"search" mapstructure:"search"`
	Fetch       FetchConfig       `yaml:"fetch" mapstructure:"fetch"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Proxy       ProxyConfig       `yaml:"proxy" mapstructure:"proxy"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// BoundsConfig caps the research loop. Every bound is passed into session
// construction so tests can exercise small values deterministically.
type BoundsConfig struct {
	MaxIterations   int           `yaml:"max_iterations" mapstructure:"max_iterations"`       // research rounds per session
	MaxSubQuestions int           `yaml:"max_sub_questions" mapstructure:"max_sub_questions"` // initial decomposition cap
	MaxFollowUps    int           `yaml:"max_follow_ups" mapstructure:"max_follow_ups"`       // follow-ups per critique round
	MaxChunks       int           `yaml:"max_chunks" mapstructure:"max_chunks"`               // internal chunks per sub-question
	ProviderTimeout time.Duration `yaml:"provider_timeout" mapstructure:"provider_timeout"`   // per provider call
}

// LLMConfig configures the text generation backend
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, ollama, "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SearchConfig configures the retrieval providers
type SearchConfig struct {
	WebProvider      string            `yaml:"web_provider" mapstructure:"web_provider"` // tavily, duckduckgo, "" (disabled)
	TavilyAPIKey     string            `yaml:"tavily_api_key" mapstructure:"tavily_api_key"`
	TavilyDepth      string            `yaml:"tavily_depth" mapstructure:"tavily_depth"`
	InternalEndpoint string            `yaml:"internal_endpoint" mapstructure:"internal_endpoint"` // index service base URL, "" disables
	InternalAPIKey   string            `yaml:"internal_api_key" mapstructure:"internal_api_key"`
	InternalFilters  map[string]string `yaml:"internal_filters,omitempty" mapstructure:"internal_filters"`
}

// FetchConfig configures web snippet enrichment
type FetchConfig struct {
	Enabled           bool          `yaml:"enabled" mapstructure:"enabled"`
	TopResults        int           `yaml:"top_results" mapstructure:"top_results"` // pages fetched per iteration
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"` // per host
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// CacheConfig configures search result caching
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL             time.Duration `yaml:"ttl" mapstructure:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	RetrievalWorkers int `yaml:"retrieval_workers" mapstructure:"retrieval_workers"`
	BatchWorkers     int `yaml:"batch_workers" mapstructure:"batch_workers"`
}

// ProxyConfig configures outbound HTTP proxying
type ProxyConfig struct {
	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose      bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeTrace bool `yaml:"include_trace" mapstructure:"include_trace"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Bounds: DefaultBounds(),
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   60,
			MaxTokens: 2000,
		},
		Search: SearchConfig{
			WebProvider: "duckduckgo",
			TavilyDepth: "basic",
		},
		Fetch: FetchConfig{
			Enabled:           false,
			TopResults:        3,
			Timeout:           15 * time.Second,
			UserAgent:         "Scout/0.2 (+https://github.com/scoutlab/scout)",
			MaxBodyBytes:      1_000_000,
			RequestsPerSecond: 1,
			Burst:             2,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             15 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			RetrievalWorkers: 8,
			BatchWorkers:     2,
		},
		Output: OutputConfig{
			IncludeTrace: true,
		},
	}
}

// DefaultBounds returns the production research bounds
func DefaultBounds() BoundsConfig {
	return BoundsConfig{
		MaxIterations:   3,
		MaxSubQuestions: 5,
		MaxFollowUps:    3,
		MaxChunks:       30,
		ProviderTimeout: 20 * time.Second,
	}
}

// Normalize clamps zero or negative bounds back to defaults
func (b BoundsConfig) Normalize() BoundsConfig {
	def := DefaultBounds()
	if b.MaxIterations <= 0 {
		b.MaxIterations = def.MaxIterations
	}
	if b.MaxSubQuestions <= 0 {
		b.MaxSubQuestions = def.MaxSubQuestions
	}
	if b.MaxFollowUps <= 0 {
		b.MaxFollowUps = def.MaxFollowUps
	}
	if b.MaxChunks <= 0 {
		b.MaxChunks = def.MaxChunks
	}
	if b.ProviderTimeout <= 0 {
		b.ProviderTimeout = def.ProviderTimeout
	}
	return b
}
