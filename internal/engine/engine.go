// Package engine drives a four-party conversation session through bounded
// rounds until the moderator ends it with a summary.
package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/muyan2020/matchparty/internal/adapter/llm"
	"github.com/muyan2020/matchparty/internal/domain"
	"github.com/muyan2020/matchparty/internal/policy"
	"github.com/muyan2020/matchparty/internal/pubsub"
)

const (
	// IceBreakerGoal is the fixed goal of round 1.
	IceBreakerGoal = "Let's start with quick hellos — please introduce yourself briefly (your name and one or two things, like work or hobbies)."

	// FallbackSummary is used when a forced summary produces no text.
	FallbackSummary = "The group covered a lot of ground today. A follow-up chat, or meeting in person, would be a natural next step to get to know each other better."

	// MissingProfilePlaceholder stands in for a role with no profile.
	MissingProfilePlaceholder = "(no profile provided)"
	// EmptyReplyPlaceholder stands in for empty generation output.
	EmptyReplyPlaceholder = "(no reply)"
	// RedactedReplyPlaceholder stands in for content the policy rejected.
	RedactedReplyPlaceholder = "(reply withheld by content policy)"
	// GenerationFailurePrefix starts every failed-generation placeholder.
	GenerationFailurePrefix = "(reply generation failed"

	defaultMaxReplyLength = 4000
)

// Engine is the per-session round scheduler. It is the only writer of a
// session's state, round counter, message log and summary while a run is
// active.
type Engine struct {
	llm            llm.ChatClient
	broker         *pubsub.Broker
	policy         *policy.Engine
	pacing         time.Duration
	maxReplyLength int
}

// New creates an engine. The policy engine may be nil, in which case replies
// are appended unchecked. pacing is the delay inserted strictly between
// message emissions within a round.
func New(client llm.ChatClient, broker *pubsub.Broker, pol *policy.Engine, pacing time.Duration) *Engine {
	return &Engine{
		llm:            client,
		broker:         broker,
		policy:         pol,
		pacing:         pacing,
		maxReplyLength: defaultMaxReplyLength,
	}
}

// Run drives the session from its current state to completion, mutating it
// in place. Calling Run on a completed session returns it unchanged with no
// side effects. A moderator generation error propagates and leaves the
// session in its last set state; the caller decides whether to retry.
func (e *Engine) Run(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if session.State == domain.SessionStateCompleted {
		return session, nil
	}

	session.State = domain.SessionStateIceBreaking
	session.CurrentRound = 0
	goal := IceBreakerGoal

	for session.CurrentRound < session.MaxRounds {
		session.CurrentRound++
		if session.CurrentRound > 1 {
			session.State = domain.SessionStateChatting
		}

		e.publish(session.SessionID, domain.EventTypeRoundStart, domain.RoundStartPayload{
			Round: session.CurrentRound,
			Goal:  goal,
		})

		// Round 1 always uses the ice breaker; later rounds ask the
		// moderator first, and its end signal is the only early exit.
		if session.CurrentRound > 1 {
			decision, err := e.decide(ctx, session.CurrentRound, session.MaxRounds, historyForPrompt(session))
			if err != nil {
				return session, err
			}
			if decision.End {
				session.State = domain.SessionStateSummarizing
				e.complete(session, decision.Summary)
				return session, nil
			}
			goal = decision.Goal
		}

		replies := e.collectReplies(ctx, session, goal)
		for i, role := range domain.AllRoles {
			if i > 0 {
				e.pace(ctx)
			}
			content := e.applyPolicy(ctx, session, role, replies[i])
			profile := session.Profile(role)
			displayName := role.DisplayName()
			if profile != nil && profile.DisplayName != "" {
				displayName = profile.DisplayName
			}
			msg := session.AddMessage(role, displayName, content, session.CurrentRound)
			e.publish(session.SessionID, domain.EventTypeMessage, domain.MessagePayload{
				MessageID:   msg.MessageID,
				Role:        msg.Role,
				DisplayName: msg.DisplayName,
				Content:     msg.Content,
				RoundIndex:  msg.RoundIndex,
			})
		}
	}

	// The ceiling was reached without an end signal: force a summary. The
	// moderator's continue/end signal is ignored here; only its summary
	// text is used.
	session.State = domain.SessionStateSummarizing
	decision, err := e.decide(ctx, session.CurrentRound, session.MaxRounds, historyForPrompt(session))
	if err != nil {
		return session, err
	}
	summary := strings.TrimSpace(decision.Summary)
	if summary == "" {
		summary = FallbackSummary
	}
	e.complete(session, summary)
	return session, nil
}

// collectReplies invokes the party reply protocol for all four roles
// concurrently. Results are indexed by the fixed role order regardless of
// completion order; a failed generation becomes placeholder content and
// never fails the round.
func (e *Engine) collectReplies(ctx context.Context, session *domain.Session, goal string) []string {
	history := historyForPrompt(session)
	replies := make([]string, len(domain.AllRoles))

	g, gctx := errgroup.WithContext(ctx)
	for i, role := range domain.AllRoles {
		i, role := i, role
		g.Go(func() error {
			profile := session.Profile(role)
			if profile == nil {
				replies[i] = MissingProfilePlaceholder
				return nil
			}
			text, err := e.partyReply(gctx, role, profile, goal, history)
			switch {
			case err != nil:
				log.Printf("WARN: reply generation failed for %s in session %s: %v", role, session.SessionID, err)
				replies[i] = fmt.Sprintf("%s: %v)", GenerationFailurePrefix, err)
			case text == "":
				replies[i] = EmptyReplyPlaceholder
			default:
				replies[i] = text
			}
			return nil
		})
	}
	_ = g.Wait()
	return replies
}

// applyPolicy screens one reply through the content policy. Policy failures
// never abort a round; they are logged and treated as allow.
func (e *Engine) applyPolicy(ctx context.Context, session *domain.Session, role domain.Role, content string) string {
	if e.policy == nil {
		return content
	}
	decision, err := e.policy.Evaluate(ctx, policy.ReplyInput{
		Role:      string(role),
		Round:     session.CurrentRound,
		Length:    len(content),
		MaxLength: e.maxReplyLength,
		Content:   content,
	})
	if err != nil {
		log.Printf("WARN: content policy evaluation failed for %s in session %s: %v", role, session.SessionID, err)
		return content
	}
	if decision == policy.DecisionRedact {
		log.Printf("INFO: content policy redacted reply for %s in session %s", role, session.SessionID)
		return RedactedReplyPlaceholder
	}
	return content
}

// complete marks the session completed and emits the summary event. A
// session transitions to completed exactly once.
func (e *Engine) complete(session *domain.Session, summary string) {
	session.Summary = summary
	session.State = domain.SessionStateCompleted
	now := time.Now().UTC()
	session.CompletedAt = &now
	e.publish(session.SessionID, domain.EventTypeSummary, domain.SummaryPayload{Summary: summary})
}

// publish builds and fans out one event. Delivery problems are logged, never
// fatal: observers must not affect the session.
func (e *Engine) publish(sessionID string, eventType domain.EventType, payload any) {
	if e.broker == nil {
		return
	}
	evt, err := domain.NewEvent(sessionID, eventType, payload)
	if err != nil {
		log.Printf("ERROR: failed to build %s event for session %s: %v", eventType, sessionID, err)
		return
	}
	e.broker.Publish(sessionID, evt)
}

// pace inserts the turn-taking delay between message emissions.
func (e *Engine) pace(ctx context.Context) {
	if e.pacing <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(e.pacing):
	}
}
