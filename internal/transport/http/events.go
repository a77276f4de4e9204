package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/muyan2020/matchparty/internal/domain"
	"github.com/muyan2020/matchparty/internal/service"
)

// eventBuffer is the channel depth per SSE subscriber. A client that falls
// further behind than this loses events.
const eventBuffer = 64

// StreamEvents streams session events via SSE until the summary event.
// GET /api/sessions/:session_id/events
func (h *Handler) StreamEvents(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	session, err := h.service.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	// Set SSE headers
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return errors.New("streaming not supported")
	}
	flusher.Flush()

	// A completed session publishes nothing further; send its summary and
	// close so the client does not hang on a silent stream.
	if session.State == domain.SessionStateCompleted {
		evt, err := domain.NewEvent(sessionID, domain.EventTypeSummary, domain.SummaryPayload{Summary: session.Summary})
		if err == nil {
			writeSSE(c, flusher, evt)
		}
		return nil
	}

	events := make(chan domain.Event, eventBuffer)
	sub := h.service.Broker().Subscribe(sessionID, func(evt domain.Event) {
		select {
		case events <- evt:
		default:
			log.Printf("WARN: dropping event for slow SSE client on session %s", sessionID)
		}
	})
	defer h.service.Broker().Unsubscribe(sub)

	idle := time.NewTimer(h.config.StreamIdleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt := <-events:
			if err := writeSSE(c, flusher, evt); err != nil {
				return nil
			}
			if evt.Type == domain.EventTypeSummary {
				return nil
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(h.config.StreamIdleTimeout)
		case <-idle.C:
			// Keep idle proxies from closing the connection.
			if err := writeSSE(c, flusher, domain.HeartbeatEvent(sessionID)); err != nil {
				return nil
			}
			idle.Reset(h.config.StreamIdleTimeout)
		}
	}
}

func writeSSE(c echo.Context, flusher http.Flusher, evt domain.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response().Writer, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
