package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID generates a short prefixed identifier.
func NewID(prefix string) string {
	uid := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	if prefix == "" {
		return uid
	}
	return prefix + "_" + uid
}

// Profile holds the attributes of one participant.
type Profile struct {
	Role          Role              `json:"role"`
	DisplayName   string            `json:"display_name"`
	AvatarURL     string            `json:"avatar_url,omitempty"`
	Age           int               `json:"age,omitempty"`
	Occupation    string            `json:"occupation,omitempty"`
	Education     string            `json:"education,omitempty"`
	Location      string            `json:"location,omitempty"`
	Hobbies       string            `json:"hobbies,omitempty"`
	FamilyOutlook string            `json:"family_outlook,omitempty"`
	Expectation   string            `json:"expectation,omitempty"`
	Extra         string            `json:"extra,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// PromptText renders the profile as the persona block of a generation prompt.
func (p *Profile) PromptText() string {
	parts := []string{
		"Role: " + p.Role.DisplayName(),
		"Name: " + p.DisplayName,
	}
	if p.Age > 0 {
		parts = append(parts, "Age: "+strconv.Itoa(p.Age))
	}
	if p.Occupation != "" {
		parts = append(parts, "Occupation: "+p.Occupation)
	}
	if p.Education != "" {
		parts = append(parts, "Education: "+p.Education)
	}
	if p.Location != "" {
		parts = append(parts, "Location: "+p.Location)
	}
	if p.Hobbies != "" {
		parts = append(parts, "Hobbies: "+p.Hobbies)
	}
	if p.FamilyOutlook != "" {
		parts = append(parts, "Family outlook: "+p.FamilyOutlook)
	}
	if p.Expectation != "" {
		parts = append(parts, "Expectations for a partner / for their child's partner: "+p.Expectation)
	}
	if p.Extra != "" {
		parts = append(parts, "Other notes: "+p.Extra)
	}
	return strings.Join(parts, "\n")
}

// Message is a single conversation message. Immutable after creation.
type Message struct {
	MessageID   string    `json:"message_id"`
	Role        Role      `json:"role"`
	DisplayName string    `json:"display_name"`
	Content     string    `json:"content"`
	RoundIndex  int       `json:"round_index"`
	CreatedAt   time.Time `json:"created_at"`
}

// Session is one four-party conversation. During an active run the engine is
// the only writer of State, CurrentRound, Messages and Summary.
type Session struct {
	SessionID    string            `json:"session_id"`
	Profiles     map[Role]*Profile `json:"profiles"`
	State        SessionState      `json:"state"`
	Messages     []Message         `json:"messages"`
	CurrentRound int               `json:"current_round"`
	MaxRounds    int               `json:"max_rounds"`
	Summary      string            `json:"summary,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// NewSession creates a session, filling any missing role with a placeholder
// profile so that exactly four profiles exist from creation on.
func NewSession(profiles map[Role]*Profile, maxRounds int) *Session {
	if profiles == nil {
		profiles = make(map[Role]*Profile)
	}
	for _, role := range AllRoles {
		if profiles[role] == nil {
			profiles[role] = &Profile{Role: role, DisplayName: role.DisplayName()}
		}
	}
	return &Session{
		SessionID: NewID("party"),
		Profiles:  profiles,
		State:     SessionStateCreated,
		MaxRounds: maxRounds,
		CreatedAt: time.Now().UTC(),
	}
}

// Profile returns the profile for the given role, or nil if absent.
func (s *Session) Profile(role Role) *Profile {
	return s.Profiles[role]
}

// AddMessage appends a message to the session log and returns it.
func (s *Session) AddMessage(role Role, displayName, content string, roundIndex int) Message {
	msg := Message{
		MessageID:   NewID("msg"),
		Role:        role,
		DisplayName: displayName,
		Content:     content,
		RoundIndex:  roundIndex,
		CreatedAt:   time.Now().UTC(),
	}
	s.Messages = append(s.Messages, msg)
	return msg
}
