package engine

import (
	"context"
	"strings"

	"github.com/muyan2020/matchparty/internal/adapter/llm"
	"github.com/muyan2020/matchparty/internal/domain"
)

const partyMaxTokens = 400

// partyReply generates one participant's contribution for the current round.
// The result is trimmed; substituting placeholders for empty or failed
// output is the caller's concern.
func (e *Engine) partyReply(ctx context.Context, role domain.Role, profile *domain.Profile, goal string, history []string) (string, error) {
	messages := []llm.ChatMessage{
		{Role: "system", Content: partySystem(role, profile)},
		{Role: "user", Content: buildPartyPrompt(profile, goal, history)},
	}
	text, err := e.llm.Chat(ctx, messages, partyMaxTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
