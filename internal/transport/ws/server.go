// Package ws provides a WebSocket feed of session events.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/muyan2020/matchparty/internal/domain"
	"github.com/muyan2020/matchparty/internal/pubsub"
	"github.com/muyan2020/matchparty/internal/service"
)

const (
	writeTimeout   = 10 * time.Second
	readTimeout    = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Handler handles WebSocket connections. The feed is one-way: clients
// receive the same events the SSE stream carries and send nothing but pongs.
type Handler struct {
	service  *service.Service
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		service: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers the WebSocket route with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/sessions/:session_id", h.HandleSession)
}

// HandleSession upgrades the connection and streams events for one session
// until the summary event or the client goes away.
func (h *Handler) HandleSession(c echo.Context) error {
	sessionID := c.Param("session_id")

	if _, err := h.service.GetSession(c.Request().Context(), sessionID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("WARN: websocket upgrade failed for session %s: %v", sessionID, err)
		return err
	}
	conn.SetReadLimit(maxMessageSize)

	events := make(chan domain.Event, sendBuffer)
	sub := h.service.Broker().Subscribe(sessionID, func(evt domain.Event) {
		select {
		case events <- evt:
		default:
			log.Printf("WARN: dropping event for slow websocket client on session %s", sessionID)
		}
	})

	closed := make(chan struct{})
	go h.readPump(conn, closed)
	go h.writePump(conn, sessionID, sub, events, closed)

	return nil
}

// readPump discards inbound frames; its job is pong handling and noticing
// the peer closing the connection.
func (h *Handler) readPump(conn *websocket.Conn, closed chan struct{}) {
	defer close(closed)

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WARN: websocket read error: %v", err)
			}
			return
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, sessionID string, sub *pubsub.Subscription, events chan domain.Event, closed chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		h.service.Broker().Unsubscribe(sub)
		conn.Close()
	}()

	for {
		select {
		case <-closed:
			return
		case evt := <-events:
			data, err := json.Marshal(evt)
			if err != nil {
				log.Printf("ERROR: failed to marshal event %s: %v", evt.EventID, err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("WARN: websocket write failed for session %s: %v", sessionID, err)
				return
			}
			if evt.Type == domain.EventTypeSummary {
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "conversation completed"))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
