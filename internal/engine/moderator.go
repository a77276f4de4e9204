package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/muyan2020/matchparty/internal/adapter/llm"
)

const (
	continueMarker = "[CONTINUE]"
	summaryMarker  = "[SUMMARY]"
	goalPrefix     = "Goal:"

	moderatorMaxTokens = 600

	// Fallback goals when the moderator's output misses the goal line or
	// matches neither marker. Defaulting to continue is deliberate: output
	// format cannot be perfectly enforced, and an unparseable response is
	// not an error.
	missingGoalFallback     = "Building on the exchange so far, talk about whatever is on your mind or ask the others a question."
	unparseableGoalFallback = "Briefly share your own view, or add anything you would like the others to know."
)

// Decision is the moderator's verdict for a round: continue with a new goal,
// or end the conversation with a summary.
type Decision struct {
	End     bool
	Goal    string
	Summary string
}

// decide asks the moderator whether to continue and with what goal, or to
// end with a summary. Only a failed generation call propagates as an error;
// unparseable output falls back to a continue decision.
func (e *Engine) decide(ctx context.Context, round, maxRounds int, history []string) (Decision, error) {
	messages := []llm.ChatMessage{
		{Role: "system", Content: moderatorSystem},
		{Role: "user", Content: buildModeratorPrompt(round, maxRounds, history)},
	}
	raw, err := e.llm.Chat(ctx, messages, moderatorMaxTokens)
	if err != nil {
		return Decision{}, fmt.Errorf("moderator generation: %w", err)
	}
	return parseDecision(raw), nil
}

// parseDecision locates the two expected section markers in the raw output.
func parseDecision(raw string) Decision {
	raw = strings.TrimSpace(raw)

	if idx := strings.Index(raw, summaryMarker); idx >= 0 {
		return Decision{
			End:     true,
			Summary: strings.TrimSpace(raw[idx+len(summaryMarker):]),
		}
	}

	if strings.Contains(raw, continueMarker) {
		goal := ""
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, goalPrefix) {
				goal = strings.TrimSpace(strings.TrimPrefix(line, goalPrefix))
				break
			}
		}
		if goal == "" {
			goal = missingGoalFallback
		}
		return Decision{Goal: goal}
	}

	return Decision{Goal: unparseableGoalFallback}
}
