package llm

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"docchat/internal/logger"
)

// CompatibleProvider talks to any gateway exposing the OpenAI chat completions API,
// e.g. Gemini's OpenAI endpoint or a local model server.
type CompatibleProvider struct {
	client      openaisdk.Client
	model       string
	temperature float64
	log         zerolog.Logger
}

// NewCompatibleProvider creates a provider for the gateway at baseURL.
func NewCompatibleProvider(baseURL, apiKey, model string, temperature float64) *CompatibleProvider {
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &CompatibleProvider{
		client:      openaisdk.NewClient(opts...),
		model:       model,
		temperature: temperature,
		log:         logger.WithComponent("llm-compatible"),
	}
}

// Name implements Provider.
func (p *CompatibleProvider) Name() string { return "compatible" }

// Complete implements Provider.
func (p *CompatibleProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	const op = "Complete"

	msgs := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openaisdk.SystemMessage(m.Content))
		case RoleAssistant:
			msgs = append(msgs, openaisdk.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			msgs = append(msgs, openaisdk.UserMessage(m.Content))
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(p.model),
		Messages:    msgs,
		Temperature: openaisdk.Float(p.temperature),
	})
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Op: op, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: p.Name(), Op: op, Err: ErrEmptyResponse}
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", &ProviderError{Provider: p.Name(), Op: op, Err: ErrContentFiltered}
	}
	if choice.Message.Content == "" {
		return "", &ProviderError{Provider: p.Name(), Op: op, Err: ErrEmptyResponse}
	}

	p.log.Debug().
		Str("model", p.model).
		Int64("prompt_tokens", resp.Usage.PromptTokens).
		Int64("completion_tokens", resp.Usage.CompletionTokens).
		Msg("Chat completion finished")

	return choice.Message.Content, nil
}
