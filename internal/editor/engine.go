// Package editor lets a user rewrite the current document through a chat with an LLM.
//
// The Engine owns the document store and a single chat session. The session is opened
// with a seed message that carries the whole document and the reply format; every chat
// turn then sends the user's request and, when the reply follows the format, replaces
// the document with the HTML the model returned.
//
// Replies must contain an "EXPLANATION:" section followed by an "HTML:" section (see
// ParseResponse). Anything else is shown to the user verbatim and leaves the document
// untouched.
package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"docchat/internal/document"
	"docchat/internal/llm"
	"docchat/internal/logger"
	"docchat/pkg/models"
)

var tracer = otel.Tracer("docchat/internal/editor")

const seedTemplate = "You are an HTML editing assistant. The user has a document converted to HTML.\n" +
	"Current HTML:\n```html\n%s\n```\n\n" +
	"When the user asks for changes, respond with:\n" +
	"1. A brief explanation of what you'll change\n" +
	"2. The complete modified HTML\n\n" +
	"Format your response as:\n" +
	"EXPLANATION: <your explanation>\n" +
	"HTML: <complete modified html>"

// SeedPrompt returns the opening message for a session on html.
func SeedPrompt(html string) string {
	return fmt.Sprintf(seedTemplate, html)
}

// Engine serializes all access to the document and the chat session.
type Engine struct {
	mu       sync.Mutex
	store    *document.Store
	provider llm.Provider
	session  *llm.Session
	log      zerolog.Logger
}

// NewEngine creates an engine without a session. The first SetHTML or Chat opens one.
func NewEngine(store *document.Store, provider llm.Provider) *Engine {
	return &Engine{
		store:    store,
		provider: provider,
		log:      logger.WithComponent("editor"),
	}
}

// Store returns the document the engine edits.
func (e *Engine) Store() *document.Store {
	return e.store
}

// Seeded reports whether the current session received its seed message.
func (e *Engine) Seeded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session != nil && e.session.Seeded
}

// SetHTML installs html as the document and opens a fresh session seeded with it.
// A failed seed is logged; the next Chat retries it.
func (e *Engine) SetHTML(ctx context.Context, html string) {
	ctx, span := tracer.Start(ctx, "editor.SetHTML")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	revision := e.store.Set(html)
	span.SetAttributes(attribute.Int64("document.revision", int64(revision)))

	if err := e.seed(ctx, html, revision); err != nil {
		span.RecordError(err)
		e.log.Warn().
			Err(err).
			Uint64("revision", revision).
			Msg("Failed to seed chat session, will retry on next chat")
	}
}

// Chat sends message to the model and applies the returned HTML when the reply is well formed.
// It never fails: upstream errors come back as an explanation with the unchanged document.
func (e *Engine) Chat(ctx context.Context, message string) models.EditTurn {
	ctx, span := tracer.Start(ctx, "editor.Chat")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	current, revision := e.store.Snapshot()

	if e.session == nil || !e.session.Seeded || e.session.Revision != revision {
		e.log.Info().
			Uint64("revision", revision).
			Bool("had_session", e.session != nil).
			Msg("Re-seeding chat session with current document")
		if err := e.seed(ctx, current, revision); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return errorTurn(err, current)
		}
	}

	if ev := e.log.Debug(); ev.Enabled() {
		ev.Int("history", e.session.Len()).
			Int("prompt_tokens", llm.CountTokens(append(e.session.History(), llm.Message{Role: llm.RoleUser, Content: message}))).
			Msg("Sending chat message")
	}

	reply, err := e.session.Send(ctx, message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.log.Error().Err(err).Msg("Chat request failed")
		return errorTurn(err, current)
	}

	explanation, html, ok := ParseResponse(reply)
	if !ok {
		e.log.Info().
			Int("reply_length", len(reply)).
			Msg("Reply did not follow the EXPLANATION/HTML format, document unchanged")
		span.SetAttributes(attribute.Bool("editor.applied", false))
		return models.EditTurn{Explanation: reply, HTML: current}
	}

	// The model produced this revision, so the session already knows it.
	e.session.Revision = e.store.Set(html)

	e.log.Info().
		Uint64("revision", e.session.Revision).
		Int("html_length", len(html)).
		Msg("Applied edit")
	span.SetAttributes(
		attribute.Bool("editor.applied", true),
		attribute.Int64("document.revision", int64(e.session.Revision)),
	)

	return models.EditTurn{Explanation: explanation, HTML: html, Applied: true}
}

// seed replaces the session with a new one on html. Callers hold e.mu.
func (e *Engine) seed(ctx context.Context, html string, revision uint64) error {
	e.session = llm.NewSession(e.provider, "", revision)
	if _, err := e.session.Send(ctx, SeedPrompt(html)); err != nil {
		return err
	}
	e.session.Seeded = true
	return nil
}

// errorTurn is the reply shown when the model could not be reached.
func errorTurn(err error, current string) models.EditTurn {
	return models.EditTurn{
		Explanation: fmt.Sprintf("Error processing request: %v", err),
		HTML:        current,
	}
}
