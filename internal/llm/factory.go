package llm

import (
	"fmt"

	"docchat/internal/config"
)

// NewProviderFromConfig builds the provider selected by LLM_PROVIDER.
func NewProviderFromConfig(cfg *config.Config) (Provider, error) {
	switch cfg.LLMProvider {
	case "openai":
		return NewOpenAIProvider(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL, cfg.LLMTemperature), nil
	case "anthropic":
		return NewAnthropicProvider(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTemperature), nil
	case "compatible":
		model := cfg.LLMModel
		if model == "" {
			model = "gemini-2.0-flash"
		}
		return NewCompatibleProvider(cfg.LLMBaseURL, cfg.LLMAPIKey, model, cfg.LLMTemperature), nil
	case "mock":
		return EchoProvider{}, nil
	}
	return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
}
