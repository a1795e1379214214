package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pmoura/listinha/internal/auth"
	"github.com/pmoura/listinha/internal/model"
	"github.com/pmoura/listinha/internal/store"
	"github.com/pmoura/listinha/internal/websocket"
)

type ItemHandler struct {
	itemStore *store.ItemStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewItemHandler(is *store.ItemStore, hub *websocket.Hub, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{itemStore: is, hub: hub, logger: logger}
}

func (h *ItemHandler) broadcast(scope websocket.Scope, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(scope, msg)
	}
}

type itemRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Value    string `json:"value"`
	Link     string `json:"link"`
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category is required"})
		return
	}

	items, err := h.itemStore.ListByCategory(auth.UserID(r.Context()), category)
	if err != nil {
		h.logger.Error("list items", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list items"})
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.Category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category is required"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	item, err := h.itemStore.Create(ac.UserID, req.Category, req.Name, req.Value, req.Link)
	if err != nil {
		h.logger.Error("create item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create item"})
		return
	}

	h.broadcast(
		websocket.Scope{Owner: ac.PublicID, Category: item.Category},
		websocket.NewMessage("item", "created", item.ID, map[string]any{"item": item}),
	)

	writeJSON(w, http.StatusCreated, item)
}

// Toggle flips an item's checked state. The store repartitions the whole
// category, so clients are told to re-read positions.
func (h *ItemHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	item, ok := h.ownedItem(w, r)
	if !ok {
		return
	}

	toggled, err := h.itemStore.Toggle(item.ID)
	if err != nil {
		h.logger.Error("toggle item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to toggle item"})
		return
	}
	if toggled == nil {
		// Deleted between the ownership check and the toggle.
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	h.broadcast(
		websocket.Scope{Owner: ac.PublicID, Category: toggled.Category},
		websocket.NewMessage("item", "toggled", toggled.ID, map[string]any{
			"item":          toggled,
			"repartitioned": true,
		}),
	)

	writeJSON(w, http.StatusOK, toggled)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	item, ok := h.ownedItem(w, r)
	if !ok {
		return
	}

	if err := h.itemStore.Delete(item.ID); err != nil {
		h.logger.Error("delete item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete item"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	h.broadcast(
		websocket.Scope{Owner: ac.PublicID, Category: item.Category},
		websocket.NewMessage("item", "deleted", item.ID, map[string]any{"category": item.Category}),
	)

	w.WriteHeader(http.StatusNoContent)
}

// Reset deletes every item in a category. An already-empty category is a
// true no-op: nothing is broadcast and the response says so.
func (h *ItemHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category is required"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	count, err := h.itemStore.ResetCategory(ac.UserID, req.Category)
	if err != nil {
		h.logger.Error("reset category", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to reset list"})
		return
	}

	if count > 0 {
		h.broadcast(
			websocket.Scope{Owner: ac.PublicID, Category: req.Category},
			websocket.NewMessage("category", "reset", 0, map[string]any{"category": req.Category}),
		)
	}

	writeJSON(w, http.StatusOK, map[string]int64{"cleared": count})
}

// Reorder persists a completed drag gesture: the request carries the full
// reordered id sequence for one category.
func (h *ItemHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string  `json:"category"`
		IDs      []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category is required"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if err := h.itemStore.Reorder(ac.UserID, req.Category, req.IDs); err != nil {
		h.logger.Error("reorder items", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to reorder items"})
		return
	}

	h.broadcast(
		websocket.Scope{Owner: ac.PublicID, Category: req.Category},
		websocket.NewMessage("category", "reordered", 0, map[string]any{"category": req.Category}),
	)

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ownedItem loads the path item and enforces that it belongs to the caller.
// Shared viewers hold read-only access; any mutation on another user's
// item is rejected without touching it.
func (h *ItemHandler) ownedItem(w http.ResponseWriter, r *http.Request) (*model.Item, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return nil, false
	}

	item, err := h.itemStore.GetByID(id)
	if err != nil {
		h.logger.Error("get item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get item"})
		return nil, false
	}
	if item == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return nil, false
	}
	if item.UserID != auth.UserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "list is read-only"})
		return nil, false
	}
	return item, true
}
