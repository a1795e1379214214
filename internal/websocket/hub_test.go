package websocket

import (
	"encoding/json"
	"log/slog"
	"testing"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		conn: nil,
		send: make(chan []byte, sendBufferSize),
	}
}

func receive(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case data := <-c.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return &got
	default:
		return nil
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub)
	c2 := mockClient(hub)

	hub.Register(c1, Scope{Owner: "ana"})
	hub.Register(c2, Scope{Owner: "bia"})

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub)
	hub.Register(c, Scope{Owner: "ana"})
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcastScopedToOwner(t *testing.T) {
	hub := NewHub(slog.Default())

	mine := mockClient(hub)
	other := mockClient(hub)
	hub.Register(mine, Scope{Owner: "ana", Category: "Mercado"})
	hub.Register(other, Scope{Owner: "bia", Category: "Mercado"})

	hub.Broadcast(Scope{Owner: "ana", Category: "Mercado"}, NewMessage("item", "created", 42, nil))

	got := receive(t, mine)
	if got == nil {
		t.Fatal("expected subscribed client to receive the event")
	}
	if got.Type != "item_created" || got.ID != 42 {
		t.Errorf("got %+v", got)
	}

	if leaked := receive(t, other); leaked != nil {
		t.Errorf("client watching another owner received %+v", leaked)
	}
}

func TestBroadcastScopedToCategory(t *testing.T) {
	hub := NewHub(slog.Default())

	mercado := mockClient(hub)
	presentes := mockClient(hub)
	allCats := mockClient(hub)
	hub.Register(mercado, Scope{Owner: "ana", Category: "Mercado"})
	hub.Register(presentes, Scope{Owner: "ana", Category: "Presentes"})
	hub.Register(allCats, Scope{Owner: "ana"})

	hub.Broadcast(Scope{Owner: "ana", Category: "Mercado"}, NewMessage("item", "created", 1, nil))

	if got := receive(t, mercado); got == nil {
		t.Error("matching category should receive the event")
	}
	if got := receive(t, presentes); got != nil {
		t.Errorf("other category received %+v", got)
	}
	if got := receive(t, allCats); got == nil {
		t.Error("category-less scope should receive all of the owner's events")
	}
}

func TestBroadcastCategorylessEvent(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub)
	hub.Register(c, Scope{Owner: "ana", Category: "Mercado"})

	// Group and share events carry no category and reach every watcher
	hub.Broadcast(Scope{Owner: "ana"}, NewMessage("share", "revoked", 0, nil))

	if got := receive(t, c); got == nil || got.Type != "share_revoked" {
		t.Errorf("got %+v, want share_revoked", got)
	}
}

func TestSetScopeReplacesSubscription(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub)
	hub.Register(c, Scope{Owner: "ana", Category: "Mercado"})

	hub.SetScope(c, Scope{Owner: "bia", Category: "Presentes"})

	// Events for the old scope no longer arrive
	hub.Broadcast(Scope{Owner: "ana", Category: "Mercado"}, NewMessage("item", "created", 1, nil))
	if got := receive(t, c); got != nil {
		t.Errorf("old scope delivered %+v after switch", got)
	}

	// Events for the new scope do
	hub.Broadcast(Scope{Owner: "bia", Category: "Presentes"}, NewMessage("item", "created", 2, nil))
	if got := receive(t, c); got == nil || got.ID != 2 {
		t.Errorf("new scope got %+v", got)
	}

	scope, ok := hub.ScopeOf(c)
	if !ok || scope.Owner != "bia" {
		t.Errorf("scope = %+v, want owner bia", scope)
	}
}

func TestResetScopesCutsRevokedViewer(t *testing.T) {
	hub := NewHub(slog.Default())

	bob := mockClient(hub)
	bob.user = "bob"
	hub.Register(bob, Scope{Owner: "ana", Category: "Mercado"})

	hub.ResetScopes("ana", "bob")

	// The client is told its subscription was reset
	if got := receive(t, bob); got == nil || got.Type != "subscription_reset" {
		t.Errorf("got %+v, want subscription_reset", got)
	}

	// It is back on its own feed
	if scope, _ := hub.ScopeOf(bob); scope.Owner != "bob" {
		t.Errorf("scope = %+v, want owner bob", scope)
	}

	// The owner's events no longer arrive
	hub.Broadcast(Scope{Owner: "ana", Category: "Mercado"}, NewMessage("item", "created", 1, nil))
	if got := receive(t, bob); got != nil {
		t.Errorf("revoked viewer still received %+v", got)
	}

	// Its own do
	hub.Broadcast(Scope{Owner: "bob"}, NewMessage("item", "created", 2, nil))
	if got := receive(t, bob); got == nil || got.ID != 2 {
		t.Errorf("own feed got %+v", got)
	}
}

func TestResetScopesLeavesOthersWatching(t *testing.T) {
	hub := NewHub(slog.Default())

	bob := mockClient(hub)
	bob.user = "bob"
	carla := mockClient(hub)
	carla.user = "carla"
	owner := mockClient(hub)
	owner.user = "ana"
	hub.Register(bob, Scope{Owner: "ana"})
	hub.Register(carla, Scope{Owner: "ana"})
	hub.Register(owner, Scope{Owner: "ana"})

	hub.ResetScopes("ana", "bob")

	hub.Broadcast(Scope{Owner: "ana"}, NewMessage("item", "created", 1, nil))

	if got := receive(t, carla); got == nil || got.Type != "item_created" {
		t.Errorf("unaffected viewer got %+v", got)
	}
	if got := receive(t, owner); got == nil || got.Type != "item_created" {
		t.Errorf("owner got %+v", got)
	}
	if got := receive(t, bob); got == nil || got.Type != "subscription_reset" {
		t.Errorf("revoked viewer got %+v, want subscription_reset", got)
	}
	if got := receive(t, bob); got != nil {
		t.Errorf("revoked viewer still received %+v", got)
	}
}

func TestResetScopesOwnFeedUntouched(t *testing.T) {
	hub := NewHub(slog.Default())

	ana := mockClient(hub)
	ana.user = "ana"
	hub.Register(ana, Scope{Owner: "ana"})

	// A degenerate owner==viewer reset must not disturb the owner's own feed
	hub.ResetScopes("ana", "ana")

	hub.Broadcast(Scope{Owner: "ana"}, NewMessage("item", "created", 1, nil))
	if got := receive(t, ana); got == nil || got.Type != "item_created" {
		t.Errorf("owner got %+v", got)
	}
}

func TestUnscopedClientReceivesNothing(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub)
	hub.Register(c, Scope{})

	hub.Broadcast(Scope{Owner: "ana"}, NewMessage("item", "created", 1, nil))
	if got := receive(t, c); got != nil {
		t.Errorf("unscoped client received %+v", got)
	}
}

func TestBroadcastFullBufferDrops(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub)
	hub.Register(c, Scope{Owner: "ana"})

	// Fill the buffer; further broadcasts must not block
	for i := 0; i < sendBufferSize+5; i++ {
		hub.Broadcast(Scope{Owner: "ana"}, NewMessage("item", "created", int64(i), nil))
	}

	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected client to stay registered, got %d", got)
	}
}
