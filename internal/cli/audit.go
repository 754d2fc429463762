package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimgate/internal/audit"
	"github.com/ppiankov/claimgate/internal/model"
)

var (
	auditRecentN  int
	auditSince    time.Duration
	auditStatJSON bool
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the append-only decision log",
	Long: `Every firewall decision is recorded as one JSONL line in the audit
log. These commands query that log; rotation and cleanup are up to the
operator.`,
}

var auditRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the most recent decisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := audit.NewLog(model.DefaultConfig().Audit)
		entries, err := log.Recent(auditRecentN)
		if err != nil {
			return fmt.Errorf("reading audit log: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No audit entries recorded yet.")
			return nil
		}

		for _, e := range entries {
			badge := "✓"
			if !e.Allowed {
				badge = "✗"
			}
			fmt.Printf("%s %s  %-8s %-8s %s  %s\n",
				badge, e.Timestamp.Format("2006-01-02 15:04:05"), e.Mode, e.Action, e.Target, e.Reason)
		}
		return nil
	},
}

var auditStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate decisions since a point in time",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := audit.NewLog(model.DefaultConfig().Audit)
		stats, err := log.Stats(time.Now().Add(-auditSince))
		if err != nil {
			return fmt.Errorf("reading audit log: %w", err)
		}

		if auditStatJSON {
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Audit stats since %s\n\n", stats.Since.Format("2006-01-02 15:04:05"))
		fmt.Printf("Total decisions: %d (%d allowed, %d blocked)\n", stats.Total, stats.Allowed, stats.Blocked)

		if len(stats.ByMode) > 0 {
			fmt.Println("\nBy mode:")
			for mode, count := range stats.ByMode {
				fmt.Printf("  %-10s %d\n", mode, count)
			}
		}
		if len(stats.ByViolation) > 0 {
			fmt.Println("\nBy violation:")
			for rule, count := range stats.ByViolation {
				fmt.Printf("  %-24s %d\n", rule, count)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditRecentCmd)
	auditCmd.AddCommand(auditStatsCmd)

	auditRecentCmd.Flags().IntVarP(&auditRecentN, "n", "n", 20, "number of entries to show")
	auditStatsCmd.Flags().DurationVar(&auditSince, "since", 24*time.Hour, "aggregation window")
	auditStatsCmd.Flags().BoolVar(&auditStatJSON, "json", false, "print stats as JSON")
}
