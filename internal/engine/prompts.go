package engine

import (
	"fmt"
	"strings"

	"github.com/muyan2020/matchparty/internal/domain"
)

// History windows keep prompt cost bounded as sessions grow. The moderator
// sees a slightly wider slice than the parties.
const (
	partyHistoryWindow     = 24
	moderatorHistoryWindow = 30
)

const partySystemBase = `You are taking part in an online "meet the families" group chat between two potential partners and their parents. Your identity is fixed by the profile below.
Speak strictly in character: tone, wording and point of view must fit the profile.
Rules:
1. Keep replies short and natural, one or two short paragraphs at most.
2. You may greet the others, respond to what was said, or briefly share your own view.
3. Do not invent facts that are not in your profile; if the topic is not covered there, deflect briefly or say you have not thought it through yet.`

const principalEmphasis = `You are speaking for yourself. Be genuine about your own interests and what you are looking for.`

const parentEmphasis = `You are speaking as a parent. You care about your child's happiness; ask about or comment on the things a parent would notice, without being overbearing.`

const moderatorSystem = `You are the moderator of a "meet the families" group chat. The fixed participants are: Participant A, Participant B, Parent of A, Parent of B.
Your job:
1. Each round, give the group a short goal: one topic or prompt to keep the four of them talking (for example: tell the group about your work and everyday hobbies).
2. When the conversation has gone on long enough, or you feel it can wrap up, output a final summary and end it.
You must output exactly one of the following two shapes and nothing else:

[CONTINUE]
Goal: <one short topic or prompt>

[SUMMARY]
<a 2-5 sentence summary covering: how well the two sides match, and whether you suggest meeting up, chatting more, or holding off>`

// partySystem builds the system framing for one role, with distinct emphasis
// for principals and parents, followed by the serialized profile.
func partySystem(role domain.Role, profile *domain.Profile) string {
	emphasis := principalEmphasis
	if role.IsParent() {
		emphasis = parentEmphasis
	}
	return partySystemBase + "\n" + emphasis + "\n\n[Your profile]\n" + profile.PromptText()
}

// buildPartyPrompt builds the user prompt for one party's reply.
func buildPartyPrompt(profile *domain.Profile, goal string, history []string) string {
	lines := []string{
		"[This round's goal] " + goal,
		"",
		"[Conversation so far]",
	}
	lines = append(lines, tail(history, partyHistoryWindow)...)
	lines = append(lines, "",
		fmt.Sprintf("As %q, make one short contribution based on the conversation above. Output only what you would say, with no name prefix or labels.", profile.DisplayName))
	return strings.Join(lines, "\n")
}

// buildModeratorPrompt builds the user prompt for the moderator's decision.
func buildModeratorPrompt(round, maxRounds int, history []string) string {
	lines := []string{
		"[Current round]",
		fmt.Sprintf("Round %d of at most %d", round, maxRounds),
	}
	if maxRounds-round <= 1 {
		lines = append(lines, "The round limit is nearly reached; prefer wrapping up with a summary.")
	}
	lines = append(lines, "", "[Conversation so far]")
	lines = append(lines, tail(history, moderatorHistoryWindow)...)
	lines = append(lines, "",
		"Based on the conversation above, decide between [CONTINUE] and [SUMMARY], and follow the output format exactly.")
	return strings.Join(lines, "\n")
}

// historyForPrompt renders the session's message log as labeled lines.
func historyForPrompt(session *domain.Session) []string {
	out := make([]string, 0, len(session.Messages))
	for _, m := range session.Messages {
		out = append(out, fmt.Sprintf("[%s %s] %s", m.Role.DisplayName(), m.DisplayName, m.Content))
	}
	return out
}

func tail(entries []string, n int) []string {
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}
