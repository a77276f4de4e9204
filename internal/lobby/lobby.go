// Package lobby holds the in-memory participant catalog: canned NPC
// personas plus users added at runtime.
package lobby

import (
	"math/rand"
	"sync"

	"github.com/muyan2020/matchparty/internal/domain"
)

// NPCMeta carries NPC fields that are not part of the profile itself, such
// as the persona of the accompanying parent.
type NPCMeta struct {
	ID          string
	ParentName  string
	ParentStyle string
}

type entry struct {
	profile *domain.Profile
	npc     *NPCMeta
}

// Lobby is the catalog. Safe for concurrent use.
type Lobby struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// Summary is one catalog row for rendering.
type Summary struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Age         int         `json:"age,omitempty"`
	Occupation  string      `json:"occupation,omitempty"`
	AvatarURL   string      `json:"avatar_url,omitempty"`
	Role        domain.Role `json:"role"`
	Hobbies     string      `json:"hobbies,omitempty"`
	Expectation string      `json:"expectation,omitempty"`
	NPC         bool        `json:"npc"`
}

// New creates a lobby seeded with the NPC pool.
func New() *Lobby {
	l := &Lobby{entries: make(map[string]entry)}
	for _, npc := range npcPool {
		meta := npc.meta
		l.entries[meta.ID] = entry{profile: npc.profile, npc: &meta}
	}
	return l
}

// Add puts a user profile into the lobby.
func (l *Lobby) Add(id string, profile *domain.Profile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[id] = entry{profile: profile}
}

// Get returns a profile by id, or nil if absent.
func (l *Lobby) Get(id string) *domain.Profile {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if e, ok := l.entries[id]; ok {
		return e.profile
	}
	return nil
}

// NPCMeta returns the NPC metadata for an id, or nil for users.
func (l *Lobby) NPCMeta(id string) *NPCMeta {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if e, ok := l.entries[id]; ok {
		return e.npc
	}
	return nil
}

// List returns all catalog rows.
func (l *Lobby) List() []Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Summary, 0, len(l.entries))
	for id, e := range l.entries {
		out = append(out, Summary{
			ID:          id,
			DisplayName: e.profile.DisplayName,
			Age:         e.profile.Age,
			Occupation:  e.profile.Occupation,
			AvatarURL:   e.profile.AvatarURL,
			Role:        e.profile.Role,
			Hobbies:     e.profile.Hobbies,
			Expectation: e.profile.Expectation,
			NPC:         e.npc != nil,
		})
	}
	return out
}

// RandomMatch picks a random NPC, excluding the given ids and optionally
// restricted to one role. Returns false when no candidate remains.
func (l *Lobby) RandomMatch(excludeIDs []string, preferRole domain.Role) (string, *domain.Profile, bool) {
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var ids []string
	for id, e := range l.entries {
		if e.npc == nil || excluded[id] {
			continue
		}
		if preferRole != "" && e.profile.Role != preferRole {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return "", nil, false
	}
	id := ids[rand.Intn(len(ids))]
	return id, l.entries[id].profile, true
}
