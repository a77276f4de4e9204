package llm

import (
	"context"
	"strings"
)

// MockClient is a canned responder used when no API key is configured and in
// tests. It keys off the prompt so a full session can run end to end without
// a backend.
type MockClient struct{}

// NewMockClient creates a new mock generation client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Chat returns a canned reply based on the last message content.
func (m *MockClient) Chat(ctx context.Context, messages []ChatMessage, maxTokens int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var last string
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	lower := strings.ToLower(last)

	switch {
	case strings.Contains(lower, "[summary]"):
		// Moderator prompt: keep the conversation going so the round
		// ceiling exercises the forced-summary path.
		return "[CONTINUE]\nGoal: Share something about your daily routine and what a good weekend looks like for you.", nil
	case strings.Contains(lower, "introduce"):
		return "Hello everyone, glad to be here. Looking forward to getting to know you all a bit better today.", nil
	default:
		return "That sounds interesting. I'd love to hear what the others think about it too.", nil
	}
}
