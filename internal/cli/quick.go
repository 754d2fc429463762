package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimgate/internal/report"
)

// quickCmd represents the quick command
var quickCmd = &cobra.Command{
	Use:   "quick [file]",
	Short: "Run the cheap heuristic scan without full verification",
	Long: `Quick scans content against a fixed table of dangerous patterns
(dynamic evaluation, destructive shell commands, unparameterized SQL
deletes, and similar) and flags clusters of weakly-supported claims.
It reads from stdin when no file is given.

Quick is meant for editor integrations and pre-send hooks where the full
evidence pipeline is too slow; a clean quick result is not a verification.

Example:
  claimgate quick src/app.ts
  git diff | claimgate quick`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuick,
}

func init() {
	rootCmd.AddCommand(quickCmd)
}

func runQuick(cmd *cobra.Command, args []string) error {
	var content []byte
	var err error
	if len(args) == 1 {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
	} else {
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}

	cfg, err := loadConfig("")
	if err != nil {
		return err
	}

	g, err := buildGate(cfg)
	if err != nil {
		return err
	}
	defer g.close()

	result := g.firewall.QuickCheck(string(content))
	report.NewRenderer(false).RenderQuickCheck(result, os.Stdout)

	if !result.Safe {
		return fmt.Errorf("%d concern(s) found", len(result.Concerns))
	}
	return nil
}
