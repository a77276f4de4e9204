package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/muyan2020/matchparty/internal/domain"
	"github.com/muyan2020/matchparty/internal/service"
)

// ProfileInput is the wire form of a participant profile.
type ProfileInput struct {
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

func (in *ProfileInput) toProfile(role domain.Role) *domain.Profile {
	return &domain.Profile{
		Role:          role,
		DisplayName:   in.DisplayName,
		AvatarURL:     in.AvatarURL,
		Age:           in.Age,
		Occupation:    in.Occupation,
		Education:     in.Education,
		Location:      in.Location,
		Hobbies:       in.Hobbies,
		FamilyOutlook: in.FamilyOutlook,
		Expectation:   in.Expectation,
		Extra:         in.Extra,
		Metadata:      in.Metadata,
	}
}

type createSessionRequest struct {
	PrincipalA *ProfileInput `json:"principal_a,omitempty"`
	PrincipalB *ProfileInput `json:"principal_b,omitempty"`
	ParentA    *ProfileInput `json:"parent_a,omitempty"`
	ParentB    *ProfileInput `json:"parent_b,omitempty"`

	// Either side may instead reference a lobby entry. An NPC entry also
	// brings its canned parent along when no parent profile was supplied.
	PrincipalALobbyID string `json:"principal_a_lobby_id,omitempty"`
	PrincipalBLobbyID string `json:"principal_b_lobby_id,omitempty"`

	MaxRounds int `json:"max_rounds,omitempty"`
}

// CreateSession creates a new conversation session.
// POST /api/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	profiles := make(map[domain.Role]*domain.Profile)
	if err := h.resolveSide(profiles, domain.RolePrincipalA, domain.RoleParentA, req.PrincipalA, req.ParentA, req.PrincipalALobbyID); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := h.resolveSide(profiles, domain.RolePrincipalB, domain.RoleParentB, req.PrincipalB, req.ParentB, req.PrincipalBLobbyID); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	session := h.service.CreateSession(profiles, req.MaxRounds)
	return c.JSON(http.StatusCreated, session)
}

// resolveSide fills the principal and parent profiles for one side of the
// session, either from inline inputs or from a lobby reference.
func (h *Handler) resolveSide(profiles map[domain.Role]*domain.Profile, principalRole, parentRole domain.Role, principal, parent *ProfileInput, lobbyID string) error {
	if lobbyID != "" {
		found := h.service.Lobby().Get(lobbyID)
		if found == nil {
			return errors.New("unknown lobby id: " + lobbyID)
		}
		copied := *found
		copied.Role = principalRole
		profiles[principalRole] = &copied

		if parent == nil {
			if meta := h.service.Lobby().NPCMeta(lobbyID); meta != nil {
				profiles[parentRole] = &domain.Profile{
					Role:        parentRole,
					DisplayName: meta.ParentName,
					Extra:       meta.ParentStyle,
				}
			}
		}
	} else if principal != nil {
		profiles[principalRole] = principal.toProfile(principalRole)
	}

	if parent != nil {
		profiles[parentRole] = parent.toProfile(parentRole)
	}
	return nil
}

// GetSession returns a live or archived session with its full transcript.
// GET /api/sessions/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	sessionID := c.Param("session_id")

	session, err := h.service.GetSession(c.Request().Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, session)
}

// ListSessions returns recently archived sessions, newest first.
// GET /api/sessions?limit=50
func (h *Handler) ListSessions(c echo.Context) error {
	limit := intQueryParam(c, "limit", 50)

	sessions, err := h.service.ListArchivedSessions(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if sessions == nil {
		sessions = []*domain.Session{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// StartConversation starts the conversation run for a session.
// POST /api/sessions/:session_id/start
func (h *Handler) StartConversation(c echo.Context) error {
	sessionID := c.Param("session_id")

	status, err := h.service.StartConversation(sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"session_id": sessionID,
		"status":     status,
	})
}
