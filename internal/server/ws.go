package server

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/litescript/ls-exoplanets/internal/export"
)

const writeWait = 10 * time.Second

// websocket streams a figure on connect and again whenever the state
// version moves. The version is polled every PushInterval.
func (s *Server) websocket(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already answered the client.
		s.log.Warn("websocket upgrade: %v", err)
		return nil
	}
	defer conn.Close()

	s.metrics.ClientConnected(1)
	defer s.metrics.ClientConnected(-1)

	// Drain reads so close frames are processed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := c.Request().Context()
	ticker := time.NewTicker(s.cfg.PushInterval)
	defer ticker.Stop()

	var last uint64
	sent := false
	for {
		if v := s.state.Version(); !sent || v != last {
			snap := s.state.Snapshot()
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(export.FromSnapshot(snap)); err != nil {
				s.log.Debug("websocket write: %v", err)
				return nil
			}
			last = snap.Version
			sent = true
		}

		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, closeMessage("server shutting down"), time.Now().Add(writeWait))
			return nil
		case <-closed:
			return nil
		case <-ticker.C:
		}
	}
}

// closeMessage is sent before the server drops a client.
func closeMessage(reason string) []byte {
	return websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
}
