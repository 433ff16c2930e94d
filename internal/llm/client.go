// Package llm provides chat-completion clients for the generative model that
// produces translations. The model is opaque to the rest of the pipeline:
// prompt in, text out.
package llm

import "context"

// Message is one role-tagged turn of a structured conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Options control generation. The zero temperature default keeps repeated
// translations of the same sentence identical.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

const DefaultMaxTokens = 512

// Client is the external generative-model contract. Complete sends a single
// raw prompt; Chat sends an ordered conversation. Both return the generated
// text with leading role-label artifacts stripped. Failed calls are not
// retried here; errors propagate to the caller.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Chat(ctx context.Context, messages []Message) (string, error)
}
