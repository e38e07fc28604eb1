package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"docchat/internal/logger"
)

const anthropicMaxTokens = 8192

// AnthropicProvider uses the Anthropic Messages API.
type AnthropicProvider struct {
	client      anthropic.Client
	model       anthropic.Model
	temperature float64
	log         zerolog.Logger
}

// NewAnthropicProvider creates a provider for apiKey. An empty model selects Claude Sonnet 4.
// Extra options are applied after the defaults.
func NewAnthropicProvider(apiKey, model string, temperature float64, opts ...option.RequestOption) *AnthropicProvider {
	m := anthropic.ModelClaudeSonnet4_0
	if model != "" {
		m = anthropic.Model(model)
	}
	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &AnthropicProvider{
		client:      anthropic.NewClient(clientOpts...),
		model:       m,
		temperature: temperature,
		log:         logger.WithComponent("llm-anthropic"),
	}
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Complete implements Provider. System messages become the system prompt; the rest are
// sent as alternating user and assistant turns.
func (p *AnthropicProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	const op = "Complete"

	params := anthropic.MessageNewParams{
		Model:       p.model,
		MaxTokens:   anthropicMaxTokens,
		Temperature: anthropic.Float(p.temperature),
	}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Op: op, Err: err}
	}

	if string(message.StopReason) == "refusal" {
		return "", &ProviderError{Provider: p.Name(), Op: op, Err: ErrContentFiltered}
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", &ProviderError{Provider: p.Name(), Op: op, Err: ErrEmptyResponse}
	}

	p.log.Debug().
		Str("model", string(p.model)).
		Int64("input_tokens", message.Usage.InputTokens).
		Int64("output_tokens", message.Usage.OutputTokens).
		Msg("Message finished")

	return text.String(), nil
}
