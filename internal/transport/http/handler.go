package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/muyan2020/matchparty/internal/config"
	"github.com/muyan2020/matchparty/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	config  *config.Config
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service, cfg *config.Config) *Handler {
	return &Handler{service: svc, config: cfg}
}

// RegisterRoutes registers the API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Session API
	e.POST("/api/sessions", h.CreateSession)
	e.GET("/api/sessions", h.ListSessions)
	e.GET("/api/sessions/:session_id", h.GetSession)
	e.POST("/api/sessions/:session_id/start", h.StartConversation)
	e.GET("/api/sessions/:session_id/events", h.StreamEvents)

	// Lobby API
	e.GET("/api/lobby", h.ListLobby)
	e.POST("/api/lobby/match", h.MatchLobby)

	e.GET("/health", h.Health)
}

// Health returns health status.
// GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "matchparty",
	})
}

func intQueryParam(c echo.Context, name string, defaultVal int) int {
	if v := c.QueryParam(name); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return defaultVal
}
