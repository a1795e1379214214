package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// Authorizer decides whether the request's user may watch the feed of the
// owner identified by a public share id.
type Authorizer func(r *http.Request, owner string) bool

// Identity returns the public id of the request's authenticated user. It
// names the connection's starting feed and lets the hub target this client
// when a grant it depends on is revoked.
type Identity func(r *http.Request) string

// HandleWebSocket returns an HTTP handler that upgrades connections to
// WebSocket and runs them as Hub clients. originPatterns restricts which
// browser origins may open a feed; cookie auth alone does not stop a
// cross-site page from opening one.
func HandleWebSocket(hub *Hub, identity Identity, authorize Authorizer, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Error("websocket accept", "error", err)
			return
		}

		user := identity(r)
		client := NewClient(hub, conn, user, func(owner string) bool {
			return authorize(r, owner)
		})
		client.Run(r.Context(), Scope{Owner: user})
	}
}
