// Package domain defines the core domain models for matchparty.
package domain

// Role identifies one of the four fixed conversation participants.
type Role string

const (
	RolePrincipalA Role = "principal_a"
	RolePrincipalB Role = "principal_b"
	RoleParentA    Role = "parent_a"
	RoleParentB    Role = "parent_b"
)

// AllRoles is the fixed speaking order used for message appends and event
// emission within a round.
var AllRoles = []Role{RolePrincipalA, RolePrincipalB, RoleParentA, RoleParentB}

// RoleDisplayNames maps each role to its default display label.
var RoleDisplayNames = map[Role]string{
	RolePrincipalA: "Participant A",
	RolePrincipalB: "Participant B",
	RoleParentA:    "Parent of A",
	RoleParentB:    "Parent of B",
}

// IsParent reports whether the role is one of the two parent roles.
func (r Role) IsParent() bool {
	return r == RoleParentA || r == RoleParentB
}

// DisplayName returns the default display label for the role.
func (r Role) DisplayName() string {
	if name, ok := RoleDisplayNames[r]; ok {
		return name
	}
	return string(r)
}

// SessionState represents the lifecycle state of a session.
type SessionState string

const (
	SessionStateCreated     SessionState = "created"
	SessionStateIceBreaking SessionState = "ice_breaking"
	SessionStateChatting    SessionState = "chatting"
	SessionStateSummarizing SessionState = "summarizing"
	SessionStateCompleted   SessionState = "completed"
)
