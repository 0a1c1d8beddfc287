package llm

import (
	"context"

	"github.com/scoutlab/scout/internal/model"
)

// Role selects the structural contract a generation must satisfy
type Role string

const (
	RolePlan     Role = "plan"     // JSON array of sub-question strings
	RoleWrite    Role = "write"    // markdown report draft
	RoleCritique Role = "critique" // JSON critique object
)

// Provider is the interface to a text generation backend
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate produces text for one research phase
	Generate(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// Request is the input for one generation call
type Request struct {
	// Role determines the default system prompt and sampling temperature
	Role Role

	// System overrides the role's default system prompt when non-empty
	System string

	// Prompt is the user prompt built by the calling phase
	Prompt string

	// Model overrides the configured model when non-empty
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// Response carries the generated text
type Response struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI-compatible endpoints
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   60,
		MaxTokens: 2000,
	}
}

// ConfigFromModel converts the top-level configuration into a provider Config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    cfg.LLM.Timeout,
		MaxTokens:  cfg.LLM.MaxTokens,
		HTTPProxy:  cfg.Proxy.HTTPProxy,
		HTTPSProxy: cfg.Proxy.HTTPSProxy,
		NoProxy:    cfg.Proxy.NoProxy,
	}
}

// systemPrompt returns the default system prompt for a role
func systemPrompt(role Role) string {
	switch role {
	case RolePlan:
		return "You are a research planner. You decompose queries into focused sub-questions and respond only with the requested JSON."
	case RoleCritique:
		return "You are a research reviewer. You judge draft completeness against the evidence and respond only with the requested JSON."
	default:
		return "You are a research writer. You synthesize cited reports strictly from the supplied sources and never invent citations."
	}
}

// temperature returns the sampling temperature for a role. Planning and
// critique need structured output; writing tolerates a little more freedom.
func temperature(role Role) float32 {
	if role == RoleWrite {
		return 0.4
	}
	return 0.1
}
