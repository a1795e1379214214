package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Scope identifies which change feed a client is watching: one owner's
// list, optionally narrowed to a single category. A client has exactly one
// scope at a time; subscribing again replaces it.
type Scope struct {
	Owner    string `json:"owner"`
	Category string `json:"category"`
}

// Matches reports whether an event published under the given scope should
// reach a client subscribed to s. An empty category on either side means
// "every category for this owner".
func (s Scope) Matches(event Scope) bool {
	if s.Owner == "" || s.Owner != event.Owner {
		return false
	}
	return s.Category == "" || event.Category == "" || s.Category == event.Category
}

// Message represents a real-time sync notification delivered to clients
// watching the matching scope.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub maintains the set of active WebSocket clients and their scopes, and
// routes messages to the clients whose scope matches.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]Scope
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]Scope),
		logger:  logger,
	}
}

// Register adds a client to the hub with the given initial scope.
func (h *Hub) Register(c *Client, scope Scope) {
	h.mu.Lock()
	h.clients[c] = scope
	h.mu.Unlock()
}

// SetScope replaces the client's scope. The previous subscription is gone
// the moment this returns; events for the old scope are no longer delivered.
func (h *Hub) SetScope(c *Client, scope Scope) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		h.clients[c] = scope
	}
	h.mu.Unlock()
}

// ScopeOf returns the client's current scope.
func (h *Hub) ScopeOf(c *Client) (Scope, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	scope, ok := h.clients[c]
	return scope, ok
}

// ResetScopes drops every subscription the given viewer holds on the given
// owner's feed, returning those clients to their own feed. Revoking a grant
// calls this so an established connection does not outlive the grant. The
// affected clients are told their subscription was reset.
func (h *Hub) ResetScopes(owner, viewer string) {
	if owner == "" || viewer == "" || owner == viewer {
		return
	}

	data, err := json.Marshal(NewMessage("subscription", "reset", 0, map[string]any{"owner": owner}))
	if err != nil {
		h.logger.Error("marshal scope reset", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c, scope := range h.clients {
		if c.user != viewer || scope.Owner != owner {
			continue
		}
		h.clients[c] = Scope{Owner: c.user}
		select {
		case c.send <- data:
		default:
		}
	}
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to every client whose scope matches the event scope.
func (h *Hub) Broadcast(event Scope, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c, scope := range h.clients {
		if !scope.Matches(event) {
			continue
		}
		select {
		case c.send <- data:
		default:
			// client buffer full, drop rather than block the hub
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
