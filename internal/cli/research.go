package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/scoutlab/scout/internal/engine"
	"github.com/scoutlab/scout/internal/model"
)

var (
	outJSON          string
	outMD            string
	timeout          time.Duration
	maxIterations    int
	llmProvider      string
	llmModel         string
	llmBaseURL       string
	webProvider      string
	internalEndpoint string
	enrich           bool
	noCache          bool
	noTrace          bool
)

// researchCmd represents the research command
var researchCmd = &cobra.Command{
	Use:   "research <query>",
	Short: "Research a query and generate a cited report",
	Long: `Research runs the full plan/retrieve/write/critique loop for one query:
- Decompose the query into at most 5 sub-questions
- Retrieve evidence concurrently from the internal index and the web
- Write a structured draft where every claim cites a source as [n]
- Critique the draft and follow up for at most 3 rounds total

Example:
  scout research "economic impact of offshore wind in the North Sea"
  scout research "history of the laksa dish" --json report.json --md report.md
  scout research "..." --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	rootCmd.AddCommand(researchCmd)

	// Output flags
	researchCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	researchCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	researchCmd.Flags().BoolVar(&noTrace, "no-trace", false, "omit the iteration trace from outputs")

	// Session flags
	researchCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall session timeout")
	researchCmd.Flags().IntVar(&maxIterations, "iterations", 0, "override the iteration cap (default 3)")

	// LLM flags
	researchCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, ollama; empty disables generation)")
	researchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	researchCmd.Flags().StringVar(&llmBaseURL, "llm-base-url", "", "LLM base URL (custom endpoints, Ollama)")

	// Search flags
	researchCmd.Flags().StringVar(&webProvider, "web-provider", "duckduckgo", "web search provider (tavily, duckduckgo; empty disables)")
	researchCmd.Flags().StringVar(&internalEndpoint, "internal-endpoint", "", "internal index service base URL (empty disables)")
	researchCmd.Flags().BoolVar(&enrich, "enrich", false, "fetch top web results to expand thin snippets")
	researchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable search result caching")
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if verbose {
		fmt.Fprintf(os.Stderr, "Researching: %s\n", query)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintln(os.Stderr)
	}

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	report, err := eng.Execute(ctx, query)
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}

	renderer := engine.NewRenderer(cfg.Output.IncludeTrace)
	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}

	renderer.RenderSummary(report)

	return nil
}

// buildConfig merges defaults, viper sources and flags
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if maxIterations > 0 {
		cfg.Bounds.MaxIterations = maxIterations
	}
	cfg.Cache.Enabled = !noCache
	cfg.Fetch.Enabled = enrich
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeTrace = !noTrace

	cfg.Search.WebProvider = webProvider
	cfg.Search.InternalEndpoint = internalEndpoint
	if cfg.Search.WebProvider == "tavily" {
		cfg.Search.TavilyAPIKey = os.Getenv("TAVILY_API_KEY")
		if cfg.Search.TavilyAPIKey == "" {
			return nil, fmt.Errorf("TAVILY_API_KEY environment variable not set")
		}
	}
	if cfg.Search.InternalEndpoint != "" {
		cfg.Search.InternalAPIKey = os.Getenv("SCOUT_INTERNAL_API_KEY")
	}

	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel
		cfg.LLM.BaseURL = llmBaseURL

		switch llmProvider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.LLM.BaseURL == "" {
				cfg.LLM.BaseURL = baseURL
			}
		}
	}

	return cfg, nil
}
