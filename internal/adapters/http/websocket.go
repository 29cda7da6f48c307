package http

import (
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/geopick/internal/pkg/logging"
)

// WebSocketHandler attaches an upgraded connection to the session's renderer
// bridge. Commands queued before the browser connected are flushed first;
// map events (ready, click, confirm) flow back until the socket drops.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		sessionID := c.Params("id")
		log := logging.Component("ws").With("session_id", sessionID)

		if _, ok := deps.Sessions.Get(sessionID); !ok {
			log.Warn("ws connect for unknown session")
			return
		}
		bridge, ok := deps.Bridges.Get(sessionID)
		if !ok {
			log.Warn("ws connect without renderer bridge")
			return
		}

		log.Info("surface connected", "remote", c.RemoteAddr().String())
		bridge.Attach(c) // blocks until the connection drops
		log.Info("surface disconnected")
	}
}
