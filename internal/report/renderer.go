// Package report renders firewall results for humans and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/claimgate/internal/model"
)

// Renderer writes firewall results as JSON, Markdown, or a stdout summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the full result as indented JSON
func (r *Renderer) RenderJSON(result *model.FirewallResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable Markdown report
func (r *Renderer) RenderMarkdown(result *model.FirewallResult, path string) error {
	var sb strings.Builder

	sb.WriteString("# Claimgate Report\n\n")
	fmt.Fprintf(&sb, "**Decision:** %s\n\n", decisionBadge(result.Allowed))
	fmt.Fprintf(&sb, "**Reason:** %s\n\n", result.Reason)
	fmt.Fprintf(&sb, "**Mode:** %s | **Confidence:** %.0f%% | **Duration:** %dms\n\n",
		result.Mode, result.Confidence*100, result.DurationMs)

	if len(result.Chains) > 0 {
		sb.WriteString("## Claims\n\n")
		sb.WriteString("| Type | Value | Verdict | Confidence |\n")
		sb.WriteString("|------|-------|---------|------------|\n")
		for _, chain := range result.Chains {
			fmt.Fprintf(&sb, "| %s | `%s` | %s | %.0f%% |\n",
				chain.ClaimType, escapePipes(chain.ClaimValue), chain.Verdict, chain.Confidence*100)
		}
		sb.WriteString("\n")
	}

	if len(result.Violations) > 0 {
		sb.WriteString("## Violations\n\n")
		for _, v := range result.Violations {
			fmt.Fprintf(&sb, "- **[%s]** %s: %s\n", v.Severity, v.Rule, v.Message)
		}
		sb.WriteString("\n")
	}

	if result.Unblock != nil {
		sb.WriteString("## How to unblock\n\n")
		fmt.Fprintf(&sb, "%s\n\n", result.Unblock.Summary)
		for i, step := range result.Unblock.Steps {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
		}
		sb.WriteString("\n")
	}

	if result.LLM != nil && result.LLM.Text != "" {
		sb.WriteString("## Explanation (advisory)\n\n")
		fmt.Fprintf(&sb, "> Generated by %s/%s. This text never affects the decision.\n\n", result.LLM.Provider, result.LLM.Model)
		fmt.Fprintf(&sb, "%s\n\n", result.LLM.Text)
	}

	if r.includeFooter {
		sb.WriteString("---\n\nGenerated by claimgate. Verdicts describe evidence support, not truth.\n")
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// RenderSummary prints a short decision summary
func (r *Renderer) RenderSummary(result *model.FirewallResult, w io.Writer) {
	fmt.Fprintf(w, "\nDecision: %s\n", decisionBadge(result.Allowed))
	fmt.Fprintf(w, "Reason:   %s\n", result.Reason)
	fmt.Fprintf(w, "Mode:     %s\n", result.Mode)
	fmt.Fprintf(w, "Claims:   %d checked, %d violation(s)\n", len(result.Claims), len(result.Violations))
	fmt.Fprintf(w, "Confidence: %.0f%%\n", result.Confidence*100)

	for _, chain := range result.Chains {
		if chain.Verdict == model.VerdictDismissed || chain.Verdict == model.VerdictUnlikely {
			fmt.Fprintf(w, "  ✗ %s %q: %s\n", chain.ClaimType, chain.ClaimValue, chain.Verdict)
		}
	}
	fmt.Fprintln(w)
}

// RenderQuickCheck prints a quick-check result
func (r *Renderer) RenderQuickCheck(result model.QuickCheckResult, w io.Writer) {
	if result.Safe {
		fmt.Fprintf(w, "✓ No concerns (%d claims checked, %dms)\n", result.ClaimsChecked, result.DurationMs)
		return
	}
	fmt.Fprintf(w, "✗ %d concern(s) (%d claims checked, %dms)\n", len(result.Concerns), result.ClaimsChecked, result.DurationMs)
	for _, c := range result.Concerns {
		if c.Line > 0 {
			fmt.Fprintf(w, "  [%s] %s (line %d): %s\n", c.Severity, c.Kind, c.Line, c.Description)
		} else {
			fmt.Fprintf(w, "  [%s] %s: %s\n", c.Severity, c.Kind, c.Description)
		}
	}
}

func decisionBadge(allowed bool) string {
	if allowed {
		return "✓ ALLOWED"
	}
	return "✗ BLOCKED"
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
