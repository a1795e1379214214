package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sort"

	"github.com/pmoura/listinha/internal/auth"
	"github.com/pmoura/listinha/internal/model"
	"github.com/pmoura/listinha/internal/snapshot"
	"github.com/pmoura/listinha/internal/store"
	"github.com/pmoura/listinha/internal/websocket"
)

// SnapshotHandler serves the stateless share-link path: exporting one
// category as a signed token and importing such a token into the caller's
// own lists. Unlike live grants, an import is a one-shot copy.
type SnapshotHandler struct {
	itemStore  *store.ItemStore
	groupStore *store.GroupStore
	codec      *snapshot.Codec
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewSnapshotHandler(is *store.ItemStore, gs *store.GroupStore, codec *snapshot.Codec, hub *websocket.Hub, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		itemStore:  is,
		groupStore: gs,
		codec:      codec,
		hub:        hub,
		logger:     logger,
	}
}

// Export encodes the caller's group names and one category's items into a
// shareable token.
func (h *SnapshotHandler) Export(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category is required"})
		return
	}

	userID := auth.UserID(r.Context())
	groups, err := h.groupStore.ListByUser(userID)
	if err != nil {
		h.logger.Error("export groups", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to export list"})
		return
	}
	items, err := h.itemStore.ListByCategory(userID, category)
	if err != nil {
		h.logger.Error("export items", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to export list"})
		return
	}

	payload := snapshot.Payload{Category: category}
	for _, g := range groups {
		payload.Groups = append(payload.Groups, g.Name)
	}
	for _, item := range items {
		payload.Items = append(payload.Items, snapshot.Item{
			Name:     item.Name,
			Checked:  item.Checked,
			Value:    item.Value,
			Link:     item.Link,
			Position: item.Position,
		})
	}

	token, err := h.codec.Encode(payload)
	if err != nil {
		h.logger.Error("encode snapshot", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to export list"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Import decodes a snapshot token and copies its groups and items into the
// caller's own storage. A malformed token changes nothing.
func (h *SnapshotHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	payload, err := h.codec.Decode(req.Token)
	if err != nil {
		if errors.Is(err, snapshot.ErrInvalidPayload) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid share payload"})
			return
		}
		h.logger.Error("decode snapshot", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to import list"})
		return
	}

	ac, _ := auth.FromContext(r.Context())

	newGroups := 0
	names := append([]string(nil), payload.Groups...)
	if !slices.Contains(names, payload.Category) {
		names = append(names, payload.Category)
	}
	for _, name := range names {
		if _, err := h.groupStore.Create(ac.UserID, name); err != nil {
			if errors.Is(err, store.ErrGroupExists) {
				continue
			}
			h.logger.Error("import group", "error", err, "name", name)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to import list"})
			return
		}
		newGroups++
	}

	items := make([]model.Item, 0, len(payload.Items))
	sort.SliceStable(payload.Items, func(i, j int) bool {
		return payload.Items[i].Position < payload.Items[j].Position
	})
	for _, it := range payload.Items {
		items = append(items, model.Item{
			Name:    it.Name,
			Checked: it.Checked,
			Value:   it.Value,
			Link:    it.Link,
		})
	}

	imported, err := h.itemStore.Import(ac.UserID, payload.Category, items)
	if err != nil {
		h.logger.Error("import items", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to import list"})
		return
	}

	if h.hub != nil && (imported > 0 || newGroups > 0) {
		h.hub.Broadcast(
			websocket.Scope{Owner: ac.PublicID, Category: payload.Category},
			websocket.NewMessage("category", "imported", 0, map[string]any{"category": payload.Category}),
		)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"category":        payload.Category,
		"imported_items":  imported,
		"imported_groups": newGroups,
	})
}
