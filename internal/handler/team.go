package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
	"github.com/dukerupert/chorechart/internal/websocket"
)

type TeamHandler struct {
	publisher
	store  *store.TeamStore
	logger *slog.Logger
}

func NewTeamHandler(s *store.TeamStore, hub *websocket.Hub, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{
		publisher: publisher{hub: hub},
		store:     s,
		logger:    componentLogger(logger, "team"),
	}
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "failed to list team members")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeMessage(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Color != "" && !hexColorRegexp.MatchString(req.Color) {
		writeMessage(w, http.StatusBadRequest, "color must be a hex color (e.g. #FF0000)")
		return
	}

	member, err := h.store.Create(r.Context(), req.Name, req.Color)
	if err != nil {
		writeError(w, h.logger, err, "failed to create team member")
		return
	}

	h.publish(websocket.EntityTeam, websocket.ActionCreated, member.ID, nil)
	writeJSON(w, http.StatusCreated, member)
}

func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.TeamMemberPatch
	if !decodeJSON(w, r, maxBodyBytes, &patch) {
		return
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			writeMessage(w, http.StatusBadRequest, "name is required")
			return
		}
		patch.Name = &name
	}
	if patch.Color != nil && !hexColorRegexp.MatchString(*patch.Color) {
		writeMessage(w, http.StatusBadRequest, "color must be a hex color (e.g. #FF0000)")
		return
	}

	id := r.PathValue("id")
	member, err := h.store.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, h.logger, err, "failed to update team member")
		return
	}
	if member == nil {
		writeMessage(w, http.StatusNotFound, "team member not found")
		return
	}

	h.publish(websocket.EntityTeam, websocket.ActionUpdated, id, nil)
	writeJSON(w, http.StatusOK, member)
}

// Delete removes the member only. Chores and completions that reference it
// keep the dangling id and display as "Unknown".
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, err := h.store.Delete(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err, "failed to delete team member")
		return
	}
	if !removed {
		writeMessage(w, http.StatusNotFound, "team member not found")
		return
	}

	h.publish(websocket.EntityTeam, websocket.ActionDeleted, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// checkAssignee reports whether an assignee id refers to an existing member.
// A nil or empty id is always accepted.
func checkAssignee(ctx context.Context, team *store.TeamStore, id *string) (bool, error) {
	if id == nil || *id == "" {
		return true, nil
	}
	m, err := team.GetByID(ctx, *id)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}
