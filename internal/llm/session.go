package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("docchat/internal/llm")

// Session is a conversation that remembers every exchanged message.
//
// Revision and Seeded are bookkeeping for the owner: the document revision the
// conversation was built on, and whether the opening message was acknowledged.
// Session is not safe for concurrent use.
type Session struct {
	provider Provider
	history  []Message

	Revision uint64
	Seeded   bool
}

// NewSession starts a conversation. A non-empty system prompt becomes the first message.
func NewSession(provider Provider, system string, revision uint64) *Session {
	s := &Session{provider: provider, Revision: revision}
	if system != "" {
		s.history = append(s.history, Message{Role: RoleSystem, Content: system})
	}
	return s
}

// Send appends a user message, asks the provider for a reply and records it.
// On failure the user message is dropped so the history only holds completed turns.
func (s *Session) Send(ctx context.Context, content string) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.Complete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", s.provider.Name()),
			attribute.Int("llm.history_length", len(s.history)+1),
		),
	)
	defer span.End()

	s.history = append(s.history, Message{Role: RoleUser, Content: content})

	reply, err := s.provider.Complete(ctx, s.History())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.history = s.history[:len(s.history)-1]
		return "", err
	}

	s.history = append(s.history, Message{Role: RoleAssistant, Content: reply})
	return reply, nil
}

// History returns a copy of the conversation so far.
func (s *Session) History() []Message {
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of messages in the conversation.
func (s *Session) Len() int {
	return len(s.history)
}
