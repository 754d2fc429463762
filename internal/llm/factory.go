package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/claimgate/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - return nil (LLM disabled)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	config := DefaultConfig()
	config.Provider = modelConfig.Provider
	config.Model = modelConfig.Model
	config.APIKey = modelConfig.APIKey
	config.BaseURL = modelConfig.BaseURL
	if modelConfig.Timeout > 0 {
		config.Timeout = modelConfig.Timeout
	}
	if modelConfig.MaxTokens > 0 {
		config.MaxTokens = modelConfig.MaxTokens
	}
	return config
}

// Explainer adapts a Provider to the firewall's advisory explanation hook
type Explainer struct {
	provider Provider
}

// NewExplainer wraps a provider; returns nil when the provider is nil so a
// disabled LLM stays a nil explainer end to end.
func NewExplainer(provider Provider) *Explainer {
	if provider == nil {
		return nil
	}
	return &Explainer{provider: provider}
}

// Explain generates the advisory explanation for a firewall result
func (e *Explainer) Explain(ctx context.Context, result *model.FirewallResult) (*model.LLMExplanation, error) {
	resp, err := e.provider.Explain(ctx, ExplainRequest{Result: result})
	if err != nil {
		return nil, err
	}
	return &model.LLMExplanation{
		Enabled:  true,
		Provider: e.provider.Name(),
		Model:    resp.Model,
		Text:     resp.Text,
	}, nil
}
