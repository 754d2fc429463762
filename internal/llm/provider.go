// Package llm generates optional prose explanations of firewall decisions.
// The explanation is advisory: it runs after the decision is final and can
// never change it.
package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/claimgate/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Explain generates a prose explanation of a firewall result
	Explain(ctx context.Context, req ExplainRequest) (*ExplainResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ExplainRequest contains the input for explanation generation
type ExplainRequest struct {
	// Result is the firewall decision to explain
	Result *model.FirewallResult

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ExplainResponse contains the LLM's explanation output
type ExplainResponse struct {
	// Text is the generated explanation
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictGrounding rejects explanations that cite external sources.
	// No web source participates in a decision, so a cited URL is a
	// hallucination (should always be true).
	StrictGrounding bool

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
		Provider:        "", // Disabled by default
		Model:           "",
		Timeout:         30,
		StrictGrounding: true, // CRITICAL: Always enforce
		MaxTokens:       800,
	}
}

const systemPrompt = "You are a code review assistant explaining why a change was blocked. " +
	"Describe only the evidence in the report; never invent sources or cite URLs."

// BuildPrompt constructs the default prompt for explaining a decision.
// The LLM only sees material that already shaped the decision.
func BuildPrompt(result *model.FirewallResult) string {
	prompt := fmt.Sprintf(`A code firewall evaluated a proposed change and decided: %s.

Reason: %s
Mode: %s
Overall confidence: %.0f%%
Claims checked: %d

CRITICAL RULES:
1. Explain ONLY the findings listed below. Do not speculate about code you cannot see.
2. Do not cite URLs or external sources.
3. Use plain language a developer can act on.

Findings:
`, decisionWord(result.Allowed), result.Reason, result.Mode, result.Confidence*100, len(result.Claims))

	for i, chain := range result.Chains {
		if i >= 10 {
			prompt += fmt.Sprintf("... and %d more claims\n", len(result.Chains)-10)
			break
		}
		prompt += fmt.Sprintf("- %s %q: %s (%.0f%%)\n", chain.ClaimType, chain.ClaimValue, chain.Verdict, chain.Confidence*100)
	}

	for _, v := range result.Violations {
		prompt += fmt.Sprintf("- violation [%s] %s: %s\n", v.Severity, v.Rule, v.Message)
	}

	prompt += "\nProvide a 2-4 sentence explanation of the decision and what the author should check."

	return prompt
}

func decisionWord(allowed bool) string {
	if allowed {
		return "ALLOWED"
	}
	return "BLOCKED"
}
