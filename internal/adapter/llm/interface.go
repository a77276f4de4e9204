// Package llm provides clients for the text-generation backend.
package llm

import "context"

// ChatMessage is one role-tagged entry of a generation request.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// ChatClient sends an ordered list of role-tagged messages to a generation
// backend and returns the generated text.
//
// Backend-level failures (retry exhaustion, non-2xx responses, malformed
// payloads) are reported as clearly-marked strings with a nil error so a
// single participant's failure degrades to visible placeholder content
// instead of aborting a round. A non-nil error is returned only for context
// cancellation and request construction failures.
type ChatClient interface {
	Chat(ctx context.Context, messages []ChatMessage, maxTokens int) (string, error)
}

// Ensure both implementations satisfy the interface.
var (
	_ ChatClient = (*Client)(nil)
	_ ChatClient = (*MockClient)(nil)
)
