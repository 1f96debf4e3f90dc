package ws

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/vedran77/taskmate/internal/transport/http/middleware"
	"nhooyr.io/websocket"
)

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// The session is authenticated with the same token cookie as the REST routes
// and may only join its own identity's group.
func ServeWS(hub *Hub, verifier middleware.IdentityVerifier, origins []string, logger *slog.Logger) http.HandlerFunc {
	patterns := originPatterns(origins)

	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := middleware.IdentityFromRequest(r, verifier)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: patterns,
		})
		if err != nil {
			logger.Warn("ws: accept error", "error", err)
			return
		}

		client := NewClient(hub, conn, identity, logger)
		if !hub.Register(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		ctx := r.Context()
		go client.WritePump(ctx)
		client.ReadPump(ctx)
	}
}

// originPatterns converts allowed CORS origins into host patterns.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			return []string{"*"}
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			patterns = append(patterns, origin)
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}
