// Package http provides the HTTP transport for matchparty.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/muyan2020/matchparty/internal/config"
	"github.com/muyan2020/matchparty/internal/service"
	"github.com/muyan2020/matchparty/internal/transport/ws"
)

// NewServer creates and configures the HTTP server: the REST API, the SSE
// event stream and the websocket feed.
func NewServer(svc *service.Service, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	h := NewHandler(svc, cfg)
	wsHandler := ws.NewHandler(svc)

	// Register Routes
	h.RegisterRoutes(e)
	wsHandler.RegisterRoutes(e)

	return e
}
