package domain

import (
	"encoding/json"
	"time"
)

// EventType represents the type of a conversation event.
type EventType string

const (
	EventTypeRoundStart EventType = "round_start"
	EventTypeMessage    EventType = "message"
	EventTypeSummary    EventType = "summary"
	EventTypeHeartbeat  EventType = "heartbeat"
)

// Event is one record pushed to subscribers of a session.
type Event struct {
	EventID   string          `json:"event_id"`
	SessionID string          `json:"session_id"`
	Ts        int64           `json:"ts"` // Unix milliseconds
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// RoundStartPayload is the payload of a round_start event.
type RoundStartPayload struct {
	Round int    `json:"round"`
	Goal  string `json:"goal"`
}

// MessagePayload is the payload of a message event.
type MessagePayload struct {
	MessageID   string `json:"message_id"`
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name"`
	Content     string `json:"content"`
	RoundIndex  int    `json:"round_index"`
}

// SummaryPayload is the payload of a summary event.
type SummaryPayload struct {
	Summary string `json:"summary"`
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(sessionID string, eventType EventType, payload any) (Event, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		raw = data
	}
	return Event{
		EventID:   NewID("evt"),
		SessionID: sessionID,
		Ts:        time.Now().UnixMilli(),
		Type:      eventType,
		Payload:   raw,
	}, nil
}

// HeartbeatEvent builds a heartbeat event for idle streams.
func HeartbeatEvent(sessionID string) Event {
	return Event{
		EventID:   NewID("evt"),
		SessionID: sessionID,
		Ts:        time.Now().UnixMilli(),
		Type:      EventTypeHeartbeat,
	}
}
