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

type GroupHandler struct {
	groupStore *store.GroupStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewGroupHandler(gs *store.GroupStore, hub *websocket.Hub, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{groupStore: gs, hub: hub, logger: logger}
}

func (h *GroupHandler) broadcast(owner string, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.Scope{Owner: owner}, msg)
	}
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupStore.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list groups", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list groups"})
		return
	}
	if groups == nil {
		groups = []model.Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	group, err := h.groupStore.Create(ac.UserID, req.Name)
	if err != nil {
		if errors.Is(err, store.ErrGroupExists) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "group already exists"})
			return
		}
		h.logger.Error("create group", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create group"})
		return
	}

	h.broadcast(ac.PublicID, websocket.NewMessage("group", "created", group.ID, map[string]any{"name": group.Name}))

	writeJSON(w, http.StatusCreated, group)
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	ac, _ := auth.FromContext(r.Context())

	existing, err := h.groupStore.GetByName(ac.UserID, name)
	if err != nil {
		h.logger.Error("get group", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete group"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "group not found"})
		return
	}

	if err := h.groupStore.Delete(ac.UserID, name); err != nil {
		if errors.Is(err, store.ErrLastGroup) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "cannot delete the last group"})
			return
		}
		h.logger.Error("delete group", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete group"})
		return
	}

	h.broadcast(ac.PublicID, websocket.NewMessage("group", "deleted", existing.ID, map[string]any{"name": name}))

	w.WriteHeader(http.StatusNoContent)
}
