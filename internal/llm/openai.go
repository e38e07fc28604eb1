package llm

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"docchat/internal/logger"
)

// OpenAIProvider uses the OpenAI chat completions API.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	log         zerolog.Logger
}

// NewOpenAIProvider creates a provider for apiKey. An empty model selects gpt-4o-mini;
// a non-empty baseURL points the client at a proxy.
func NewOpenAIProvider(apiKey, model, baseURL string, temperature float64) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: float32(temperature),
		log:         logger.WithComponent("llm-openai"),
	}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// Complete implements Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	const op = "Complete"

	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		Temperature: p.temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openAIRole(m.Role),
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Op: op, Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: p.Name(), Op: op, Err: ErrEmptyResponse}
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", &ProviderError{Provider: p.Name(), Op: op, Err: ErrContentFiltered}
	}
	if choice.Message.Content == "" {
		return "", &ProviderError{Provider: p.Name(), Op: op, Err: ErrEmptyResponse}
	}

	p.log.Debug().
		Str("model", p.model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("Chat completion finished")

	return choice.Message.Content, nil
}

func openAIRole(r Role) string {
	switch r {
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
