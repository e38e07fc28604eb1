// Package llm talks to chat-completion models.
//
// Every vendor is hidden behind Provider, which takes the whole conversation and returns
// the assistant's text. Session keeps the conversation for multi-turn use.
//
// Clients are built without retries: a failed call surfaces immediately and the caller
// decides what to show the user.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Role is the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Provider completes a conversation.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// Complete returns the assistant reply to messages.
	Complete(ctx context.Context, messages []Message) (string, error)
}

var (
	// ErrEmptyResponse is returned when the model answered without any text.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrContentFiltered is returned when the vendor withheld the answer.
	ErrContentFiltered = errors.New("model response was blocked by a content filter")
)

// ProviderError tags an upstream failure with the provider and operation.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm: %s %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
