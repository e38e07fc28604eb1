package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Reply is one scripted answer of a ScriptedProvider.
type Reply struct {
	Text string
	Err  error
}

// ScriptedProvider answers with a fixed sequence of replies and records every call.
// Once the script runs out it keeps returning the last reply.
type ScriptedProvider struct {
	mu      sync.Mutex
	replies []Reply
	calls   [][]Message
}

// NewScriptedProvider creates a provider that plays back replies in order.
func NewScriptedProvider(replies ...Reply) *ScriptedProvider {
	return &ScriptedProvider{replies: replies}
}

// Name implements Provider.
func (p *ScriptedProvider) Name() string { return "scripted" }

// Complete implements Provider.
func (p *ScriptedProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	copied := make([]Message, len(messages))
	copy(copied, messages)
	p.calls = append(p.calls, copied)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(p.replies) == 0 {
		return "", ErrEmptyResponse
	}

	idx := len(p.calls) - 1
	if idx >= len(p.replies) {
		idx = len(p.replies) - 1
	}
	r := p.replies[idx]
	return r.Text, r.Err
}

// Calls returns the conversations the provider was asked to complete.
func (p *ScriptedProvider) Calls() [][]Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]Message, len(p.calls))
	copy(out, p.calls)
	return out
}

// EchoProvider is an offline stand-in that never changes the document.
// It answers in the EXPLANATION/HTML format with the most recent HTML it can find in
// the conversation: the last assistant HTML section, or else the last ```html block.
// Without any HTML to echo it returns ErrEmptyResponse, so callers take their
// no-model fallback.
type EchoProvider struct{}

// Name implements Provider.
func (EchoProvider) Name() string { return "mock" }

// Complete implements Provider.
func (EchoProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, ok := latestHTML(messages)
	if !ok {
		return "", ErrEmptyResponse
	}
	return fmt.Sprintf("EXPLANATION: The offline assistant cannot edit documents; the document is unchanged.\nHTML:\n%s", html), nil
}

func latestHTML(messages []Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		switch m.Role {
		case RoleAssistant:
			if _, after, found := strings.Cut(m.Content, "HTML:"); found {
				return StripCodeFence(after, "html"), true
			}
		case RoleUser:
			if _, after, found := strings.Cut(m.Content, "```html"); found {
				if body, _, closed := strings.Cut(after, "```"); closed {
					return strings.TrimSpace(body), true
				}
			}
		}
	}
	return "", false
}
