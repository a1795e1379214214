package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pmoura/listinha/internal/auth"
	"github.com/pmoura/listinha/internal/model"
	"github.com/pmoura/listinha/internal/store"
	"github.com/pmoura/listinha/internal/websocket"
)

type ShareHandler struct {
	shareStore *store.ShareStore
	userStore  *store.UserStore
	groupStore *store.GroupStore
	itemStore  *store.ItemStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewShareHandler(ss *store.ShareStore, us *store.UserStore, gs *store.GroupStore, is *store.ItemStore, hub *websocket.Hub, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		shareStore: ss,
		userStore:  us,
		groupStore: gs,
		itemStore:  is,
		hub:        hub,
		logger:     logger,
	}
}

func (h *ShareHandler) broadcast(owner string, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.Scope{Owner: owner}, msg)
	}
}

// ListViewers returns the users the caller has granted read access to.
func (h *ShareHandler) ListViewers(w http.ResponseWriter, r *http.Request) {
	links, err := h.shareStore.ListViewers(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list viewers", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list shared users"})
		return
	}
	if links == nil {
		links = []model.ShareLink{}
	}
	writeJSON(w, http.StatusOK, links)
}

// ListReceived returns the owners who granted the caller access to their lists.
func (h *ShareHandler) ListReceived(w http.ResponseWriter, r *http.Request) {
	links, err := h.shareStore.ListOwners(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list received shares", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list shared lists"})
		return
	}
	if links == nil {
		links = []model.ShareLink{}
	}
	writeJSON(w, http.StatusOK, links)
}

// Grant gives another user read access to the caller's lists. A self-grant
// is rejected before any lookup or write.
func (h *ShareHandler) Grant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if req.UserID == ac.PublicID {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot share a list with yourself"})
		return
	}

	target, err := h.userStore.GetByPublicID(req.UserID)
	if err != nil {
		h.logger.Error("resolve share target", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to grant access"})
		return
	}
	if target == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	if err := h.shareStore.Grant(ac.UserID, target.ID); err != nil {
		switch {
		case errors.Is(err, store.ErrSelfShare):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot share a list with yourself"})
		case errors.Is(err, store.ErrAlreadyShared):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "access already granted"})
		default:
			h.logger.Error("grant access", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to grant access"})
		}
		return
	}

	h.broadcast(ac.PublicID, websocket.NewMessage("share", "granted", 0, map[string]any{"viewer": target.PublicID}))

	writeJSON(w, http.StatusCreated, model.ShareLink{UserPublicID: target.PublicID})
}

// Revoke removes a grant. Viewers currently watching the owner's feed get
// a share_revoked event and their live subscriptions are reset, so an open
// connection does not keep receiving the owner's changes.
func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	publicID := r.PathValue("user_id")
	ac, _ := auth.FromContext(r.Context())

	target, err := h.userStore.GetByPublicID(publicID)
	if err != nil {
		h.logger.Error("resolve revoke target", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to revoke access"})
		return
	}
	if target == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	existed, err := h.shareStore.Revoke(ac.UserID, target.ID)
	if err != nil {
		h.logger.Error("revoke access", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to revoke access"})
		return
	}
	if !existed {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no access granted to that user"})
		return
	}

	h.broadcast(ac.PublicID, websocket.NewMessage("share", "revoked", 0, map[string]any{"viewer": target.PublicID}))

	// Kick the revoked viewer's live subscriptions off this owner's feed.
	// The broadcast above still reaches them first.
	if h.hub != nil {
		h.hub.ResetScopes(ac.PublicID, target.PublicID)
	}

	w.WriteHeader(http.StatusNoContent)
}

// SharedGroups mirrors another owner's groups for a shared viewer.
// An unknown public id, a missing grant, and an empty group list are three
// distinct responses.
func (h *ShareHandler) SharedGroups(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.authorizeView(w, r)
	if !ok {
		return
	}

	groups, err := h.groupStore.ListByUser(owner.ID)
	if err != nil {
		h.logger.Error("list shared groups", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load shared groups"})
		return
	}
	if groups == nil {
		groups = []model.Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// SharedItems mirrors one category of another owner's items for a shared viewer.
func (h *ShareHandler) SharedItems(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.authorizeView(w, r)
	if !ok {
		return
	}

	category := r.URL.Query().Get("category")
	if category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category is required"})
		return
	}

	items, err := h.itemStore.ListByCategory(owner.ID, category)
	if err != nil {
		h.logger.Error("list shared items", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load shared items"})
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

// authorizeView resolves the {user_id} path owner and checks the caller
// holds a grant. 404 when the id resolves to nothing, 403 without a grant.
func (h *ShareHandler) authorizeView(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	owner, err := h.userStore.GetByPublicID(r.PathValue("user_id"))
	if err != nil {
		h.logger.Error("resolve shared owner", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load shared list"})
		return nil, false
	}
	if owner == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return nil, false
	}

	granted, err := h.shareStore.Exists(owner.ID, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("check grant", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load shared list"})
		return nil, false
	}
	if !granted {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "access not granted"})
		return nil, false
	}
	return owner, true
}
