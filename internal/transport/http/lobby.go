package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/muyan2020/matchparty/internal/domain"
)

// ListLobby returns the participant catalog.
// GET /api/lobby
func (h *Handler) ListLobby(c echo.Context) error {
	entries := h.service.Lobby().List()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

type matchRequest struct {
	ExcludeIDs []string    `json:"exclude_ids,omitempty"`
	PreferRole domain.Role `json:"prefer_role,omitempty"`
}

// MatchLobby picks a random NPC candidate from the lobby.
// POST /api/lobby/match
func (h *Handler) MatchLobby(c echo.Context) error {
	var req matchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	id, profile, ok := h.service.Lobby().RandomMatch(req.ExcludeIDs, req.PreferRole)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no matching candidate in lobby"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":      id,
		"profile": profile,
	})
}
