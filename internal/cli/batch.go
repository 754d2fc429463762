package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimgate/internal/worker"
)

var (
	batchMode    string
	batchRoot    string
	concurrency  int
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>...",
	Short: "Check multiple files through the gate in parallel",
	Long: `Batch runs the full verification gate over many files concurrently
with a configurable worker count. Each file gets its own decision; the
command fails when any file is blocked.

Example:
  claimgate batch src/*.ts
  claimgate batch src/a.ts src/b.ts --concurrency 8
  claimgate batch $(git diff --name-only) --mode observe`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchMode, "mode", "", "firewall mode (observe, enforce, lockdown; default enforce)")
	batchCmd.Flags().StringVar(&batchRoot, "root", ".", "project root the claims are verified against")
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig(batchMode)
	if err != nil {
		return err
	}
	cfg.ProjectRoot = batchRoot
	cfg.Concurrency.BatchWorkers = concurrency

	g, err := buildGate(cfg)
	if err != nil {
		return err
	}
	defer g.close()

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking %d files with %d workers (mode %s)\n\n", len(args), concurrency, cfg.Mode)
	}

	processor := worker.NewBatchProcessor(g.firewall, cfg.Concurrency.BatchWorkers, "batch")
	results := processor.Process(ctx, args)

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	blocked, failed := 0, 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Printf("? %s: %v\n", r.Path, r.Err)
		case r.Result.Allowed:
			fmt.Printf("✓ %s\n", r.Path)
		default:
			blocked++
			fmt.Printf("✗ %s: %s\n", r.Path, r.Result.Reason)
		}
	}

	fmt.Printf("\n%d checked, %d blocked, %d errored\n", len(results), blocked, failed)

	if blocked > 0 || failed > 0 {
		return fmt.Errorf("%d of %d files did not pass", blocked+failed, len(results))
	}
	return nil
}
