package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimgate/internal/model"
	"github.com/ppiankov/claimgate/internal/report"
)

var (
	checkMode    string
	checkAction  string
	checkAgent   string
	checkRoot    string
	checkTimeout time.Duration
	outJSON      string
	outMD        string
	noFooter     bool
	llmEnabled   bool
	llmProvider  string
	llmModel     string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Run the full verification gate over one file",
	Long: `Check extracts claims from a file and verifies each one against the
local sources: truthpack, package manifests, the filesystem, declaration
patterns, version control, type information, and the runtime environment.
The verdicts are aggregated, calibrated against historical accuracy, and
gated by policy.

The exit code is non-zero when the request is blocked, so check can serve
as a CI gate or a pre-commit hook.

Example:
  claimgate check src/app.ts
  claimgate check src/app.ts --mode observe
  claimgate check src/app.ts --json report.json --md report.md
  claimgate check src/app.ts --llm --llm-provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkMode, "mode", "", "firewall mode (observe, enforce, lockdown; default enforce)")
	checkCmd.Flags().StringVar(&checkAction, "action", "modify", "proposed action (read, write, modify, delete, execute)")
	checkCmd.Flags().StringVar(&checkAgent, "agent", "cli", "agent identifier recorded in the audit log")
	checkCmd.Flags().StringVar(&checkRoot, "root", ".", "project root the claims are verified against")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall check timeout")

	// Output flags
	checkCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	checkCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	checkCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// LLM flags
	checkCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable advisory LLM explanation of blocked results")
	checkCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	checkCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	cfg, err := loadConfig(checkMode)
	if err != nil {
		return err
	}
	cfg.ProjectRoot = checkRoot
	cfg.Output.IncludeFooter = !noFooter
	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel
		configureLLMFromEnv(cfg)
		if cfg.LLM.Provider == "openai" && cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		if (cfg.LLM.Provider == "anthropic" || cfg.LLM.Provider == "claude") && cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	}

	g, err := buildGate(cfg)
	if err != nil {
		return err
	}
	defer g.close()

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking: %s\n", path)
		fmt.Fprintf(os.Stderr, "Mode: %s\n", cfg.Mode)
		fmt.Fprintf(os.Stderr, "Project root: %s\n\n", cfg.ProjectRoot)
	}

	result, err := g.firewall.Evaluate(ctx, model.FirewallRequest{
		ID:      path,
		AgentID: checkAgent,
		Action:  model.Action(checkAction),
		Target:  path,
		Content: string(content),
	})
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	renderer := report.NewRenderer(cfg.Output.IncludeFooter)
	if outJSON != "" {
		if err := renderer.RenderJSON(result, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(result, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}
	renderer.RenderSummary(result, os.Stdout)

	if !result.Allowed {
		return fmt.Errorf("blocked: %s", result.Reason)
	}
	return nil
}
