package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/scoutlab/scout/internal/engine"
)

var (
	batchConcurrency int
	batchOutDir      string
	batchTimeout     time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <queries-file>",
	Short: "Research multiple queries from a file",
	Long: `Batch reads one query per line (blank lines and # comments are skipped)
and researches them concurrently. Each finished report is written to the
output directory as JSON, named after the query.

Example:
  scout batch queries.txt --out reports/ --concurrency 4`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 2, "concurrent research sessions")
	batchCmd.Flags().StringVar(&batchOutDir, "out", "reports", "output directory for JSON reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "overall batch timeout")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
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

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	if err := os.MkdirAll(batchOutDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	processor := engine.NewBatchProcessor(eng, batchConcurrency)
	results, err := processor.ProcessFile(ctx, args[0])
	if err != nil {
		return err
	}

	renderer := engine.NewRenderer(cfg.Output.IncludeTrace)
	failed := 0
	for _, res := range results {
		if res.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Query, res.Error)
			continue
		}
		path := filepath.Join(batchOutDir, slugify(res.Query)+".json")
		if err := renderer.RenderJSON(res.Report, path); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Query, err)
			continue
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ %s → %s\n", res.Query, path)
		}
	}

	fmt.Printf("✓ Batch complete: %d succeeded, %d failed\n", len(results)-failed, failed)
	if failed == len(results) {
		return fmt.Errorf("all %d queries failed", failed)
	}

	return nil
}

// slugify turns a query into a safe file name
func slugify(query string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(query) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 64 {
		slug = slug[:64]
	}
	if slug == "" {
		slug = "query"
	}
	return slug
}
