package websocket

import (
	"context"
	"encoding/json"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// Client represents a single WebSocket connection. user is the public id
// of the authenticated caller; authorize decides whether this connection
// may watch a given owner's feed.
type Client struct {
	hub       *Hub
	conn      *ws.Conn
	user      string
	send      chan []byte
	authorize func(owner string) bool
}

// NewClient creates a Client tied to the given hub and connection.
func NewClient(hub *Hub, conn *ws.Conn, user string, authorize func(owner string) bool) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		user:      user,
		send:      make(chan []byte, sendBufferSize),
		authorize: authorize,
	}
}

// Run registers the client under the initial scope, starts the write pump,
// and runs the read pump. It blocks until the connection is closed, then
// unregisters.
func (c *Client) Run(ctx context.Context, initial Scope) {
	c.hub.Register(c, initial)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// subscribeFrame is the only inbound message clients send: a request to
// switch the watched scope.
type subscribeFrame struct {
	Action   string `json:"action"`
	Owner    string `json:"owner"`
	Category string `json:"category"`
}

// readPump reads inbound frames and applies subscribe requests. Anything
// unparseable is ignored. It returns on error (connection close), which
// triggers cleanup.
func (c *Client) readPump(ctx context.Context) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}

		var frame subscribeFrame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Action != "subscribe" {
			continue
		}
		if c.authorize != nil && !c.authorize(frame.Owner) {
			c.reply(Message{Type: "subscribe_denied", Entity: "subscription", Action: "denied"})
			continue
		}
		c.hub.SetScope(c, Scope{Owner: frame.Owner, Category: frame.Category})
		c.reply(Message{Type: "subscribe_ok", Entity: "subscription", Action: "replaced"})
	}
}

// reply queues a message for this client only, dropping it if the buffer
// is full.
func (c *Client) reply(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				// hub closed the channel
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
