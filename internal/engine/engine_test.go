package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/muyan2020/matchparty/internal/adapter/llm"
	"github.com/muyan2020/matchparty/internal/domain"
	"github.com/muyan2020/matchparty/internal/pubsub"
)

// stubClient scripts moderator and party responses. Chat must be safe for
// concurrent use: the engine issues four party calls at once.
type stubClient struct {
	mu           sync.Mutex
	moderatorFn  func(call int, prompt string) (string, error)
	partyFn      func(system, prompt string) (string, error)
	modCalls     int
	partyPrompts []string
}

func (s *stubClient) Chat(ctx context.Context, messages []llm.ChatMessage, maxTokens int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	system, user := messages[0].Content, messages[1].Content
	if strings.HasPrefix(system, "You are the moderator") {
		s.modCalls++
		if s.moderatorFn == nil {
			return "[CONTINUE]\nGoal: keep talking.", nil
		}
		return s.moderatorFn(s.modCalls, user)
	}

	s.partyPrompts = append(s.partyPrompts, user)
	if s.partyFn == nil {
		return "A perfectly ordinary reply.", nil
	}
	return s.partyFn(system, user)
}

func collectEvents(t *testing.T, broker *pubsub.Broker, sessionID string) *[]domain.Event {
	t.Helper()
	var mu sync.Mutex
	events := &[]domain.Event{}
	broker.Subscribe(sessionID, func(evt domain.Event) {
		mu.Lock()
		*events = append(*events, evt)
		mu.Unlock()
	})
	return events
}

func newTestEngine(client llm.ChatClient) (*Engine, *pubsub.Broker) {
	broker := pubsub.NewBroker()
	return New(client, broker, nil, 0), broker
}

func TestRunCompletedSessionIsIdempotent(t *testing.T) {
	eng, broker := newTestEngine(&stubClient{})
	session := domain.NewSession(nil, 6)
	session.State = domain.SessionStateCompleted
	session.Summary = "already done"

	events := collectEvents(t, broker, session.SessionID)

	got, err := eng.Run(context.Background(), session)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != session || got.Summary != "already done" {
		t.Fatalf("expected session returned unchanged")
	}
	if len(session.Messages) != 0 || len(*events) != 0 {
		t.Fatalf("expected no side effects, got %d messages, %d events", len(session.Messages), len(*events))
	}
}

func TestRunForcedSummaryAtCeiling(t *testing.T) {
	// The moderator always continues, so the ceiling forces the summary.
	client := &stubClient{
		moderatorFn: func(call int, prompt string) (string, error) {
			return "[CONTINUE]\nGoal: talk about hobbies.", nil
		},
	}
	eng, broker := newTestEngine(client)
	session := domain.NewSession(nil, 2)
	events := collectEvents(t, broker, session.SessionID)

	got, err := eng.Run(context.Background(), session)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got.State != domain.SessionStateCompleted {
		t.Fatalf("expected completed state, got %s", got.State)
	}
	if got.CurrentRound != 2 {
		t.Fatalf("expected 2 rounds, got %d", got.CurrentRound)
	}
	if len(got.Messages) != 8 {
		t.Fatalf("expected 8 messages (2 rounds x 4 roles), got %d", len(got.Messages))
	}
	if got.Summary != FallbackSummary {
		t.Fatalf("expected fallback summary, got %q", got.Summary)
	}
	if got.CompletedAt == nil {
		t.Fatal("expected completion timestamp")
	}

	// Per round, messages appear in the fixed role order and share the
	// round index.
	for round := 1; round <= 2; round++ {
		for i, role := range domain.AllRoles {
			msg := got.Messages[(round-1)*4+i]
			if msg.Role != role {
				t.Fatalf("round %d position %d: expected role %s, got %s", round, i, role, msg.Role)
			}
			if msg.RoundIndex != round {
				t.Fatalf("message %s: expected round %d, got %d", msg.MessageID, round, msg.RoundIndex)
			}
		}
	}

	// Event order: round_start, 4 messages, round_start, 4 messages, summary.
	wantTypes := []domain.EventType{
		domain.EventTypeRoundStart,
		domain.EventTypeMessage, domain.EventTypeMessage, domain.EventTypeMessage, domain.EventTypeMessage,
		domain.EventTypeRoundStart,
		domain.EventTypeMessage, domain.EventTypeMessage, domain.EventTypeMessage, domain.EventTypeMessage,
		domain.EventTypeSummary,
	}
	if len(*events) != len(wantTypes) {
		t.Fatalf("expected %d events, got %d", len(wantTypes), len(*events))
	}
	for i, want := range wantTypes {
		if (*events)[i].Type != want {
			t.Fatalf("event %d: expected %s, got %s", i, want, (*events)[i].Type)
		}
	}
}

func TestRunModeratorEndsEarly(t *testing.T) {
	// End after three full rounds: the moderator is consulted at the start
	// of each round past the first, so its third consultation (round 4)
	// signals the end.
	client := &stubClient{
		moderatorFn: func(call int, prompt string) (string, error) {
			if call == 3 {
				return "[SUMMARY]\nX", nil
			}
			return "[CONTINUE]\nGoal: next topic.", nil
		},
	}
	eng, _ := newTestEngine(client)
	session := domain.NewSession(nil, 6)

	got, err := eng.Run(context.Background(), session)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got.State != domain.SessionStateCompleted {
		t.Fatalf("expected completed state, got %s", got.State)
	}
	if got.Summary != "X" {
		t.Fatalf("expected summary X, got %q", got.Summary)
	}
	if len(got.Messages) != 12 {
		t.Fatalf("expected 12 messages (3 full rounds), got %d", len(got.Messages))
	}
	for _, msg := range got.Messages {
		if msg.RoundIndex >= 4 {
			t.Fatalf("unexpected message in round %d", msg.RoundIndex)
		}
	}
}

func TestRunOneRoleFailureIsIsolated(t *testing.T) {
	client := &stubClient{
		partyFn: func(system, prompt string) (string, error) {
			if strings.Contains(system, "Role: Parent of A") {
				return "", errors.New("backend exploded")
			}
			return "A fine reply.", nil
		},
	}
	eng, _ := newTestEngine(client)
	session := domain.NewSession(nil, 1)

	got, err := eng.Run(context.Background(), session)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(got.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(got.Messages))
	}
	for _, msg := range got.Messages {
		if msg.Role == domain.RoleParentA {
			if !strings.HasPrefix(msg.Content, GenerationFailurePrefix) {
				t.Fatalf("expected failure placeholder, got %q", msg.Content)
			}
		} else if msg.Content != "A fine reply." {
			t.Fatalf("role %s: expected normal reply, got %q", msg.Role, msg.Content)
		}
	}
	if got.State != domain.SessionStateCompleted {
		t.Fatalf("expected completed state, got %s", got.State)
	}
}

func TestRunEmptyReplyGetsPlaceholder(t *testing.T) {
	client := &stubClient{
		partyFn: func(system, prompt string) (string, error) { return "   ", nil },
	}
	eng, _ := newTestEngine(client)
	session := domain.NewSession(nil, 1)

	got, err := eng.Run(context.Background(), session)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, msg := range got.Messages {
		if msg.Content != EmptyReplyPlaceholder {
			t.Fatalf("expected empty-reply placeholder, got %q", msg.Content)
		}
	}
}

func TestRunGoalsFlowIntoPartyPrompts(t *testing.T) {
	client := &stubClient{
		moderatorFn: func(call int, prompt string) (string, error) {
			return fmt.Sprintf("[CONTINUE]\nGoal: moderator goal %d.", call), nil
		},
	}
	eng, _ := newTestEngine(client)
	session := domain.NewSession(nil, 2)

	if _, err := eng.Run(context.Background(), session); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(client.partyPrompts) != 8 {
		t.Fatalf("expected 8 party prompts, got %d", len(client.partyPrompts))
	}
	for _, prompt := range client.partyPrompts[:4] {
		if !strings.Contains(prompt, IceBreakerGoal) {
			t.Fatalf("round 1 prompt missing ice breaker goal: %q", prompt)
		}
	}
	for _, prompt := range client.partyPrompts[4:] {
		if !strings.Contains(prompt, "moderator goal 1.") {
			t.Fatalf("round 2 prompt missing moderator goal: %q", prompt)
		}
	}
}

func TestRunModeratorErrorPropagates(t *testing.T) {
	client := &stubClient{
		moderatorFn: func(call int, prompt string) (string, error) {
			return "", errors.New("moderator down")
		},
	}
	eng, _ := newTestEngine(client)
	session := domain.NewSession(nil, 3)

	_, err := eng.Run(context.Background(), session)
	if err == nil {
		t.Fatal("expected error from moderator failure")
	}
	// Round 1 ran before the round-2 decision failed; the session keeps
	// its last set state and stays retryable.
	if len(session.Messages) != 4 {
		t.Fatalf("expected round 1 messages to remain, got %d", len(session.Messages))
	}
	if session.State == domain.SessionStateCompleted {
		t.Fatal("session must not be completed after a moderator error")
	}
}
