package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/chorechart/internal/chore"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/recurrence"
	"github.com/dukerupert/chorechart/internal/store"
	"github.com/dukerupert/chorechart/internal/websocket"
)

// ChoreHandler serves one-time chores and their conversion to recurring
// chores.
type ChoreHandler struct {
	publisher
	chores  *store.ChoreStore
	team    *store.TeamStore
	service *chore.Service
	builder *recurrence.Builder
	logger  *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, ts *store.TeamStore, svc *chore.Service, b *recurrence.Builder, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{
		publisher: publisher{hub: hub},
		chores:    cs,
		team:      ts,
		service:   svc,
		builder:   b,
		logger:    componentLogger(logger, "chore"),
	}
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	chores, err := h.chores.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "failed to list chores")
		return
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.chores.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err, "failed to get chore")
		return
	}
	if c == nil {
		writeMessage(w, http.StatusNotFound, "chore not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		AssignedTo  *string    `json:"assigned_to"`
		DueDate     *time.Time `json:"due_date"`
	}
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeMessage(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.DueDate == nil {
		writeMessage(w, http.StatusBadRequest, "due_date is required")
		return
	}
	if !h.assigneeOK(w, r, req.AssignedTo) {
		return
	}

	c, err := h.chores.Create(r.Context(), req.Title, req.Description, normalizeAssignee(req.AssignedTo), *req.DueDate)
	if err != nil {
		writeError(w, h.logger, err, "failed to create chore")
		return
	}

	h.publish(websocket.EntityChore, websocket.ActionCreated, c.ID, nil)
	writeJSON(w, http.StatusCreated, c)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.ChorePatch
	if !decodeJSON(w, r, maxBodyBytes, &patch) {
		return
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			writeMessage(w, http.StatusBadRequest, "title is required")
			return
		}
		patch.Title = &title
	}
	if !h.assigneeOK(w, r, patch.AssignedTo) {
		return
	}

	id := r.PathValue("id")
	c, err := h.chores.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, h.logger, err, "failed to update chore")
		return
	}
	if c == nil {
		writeMessage(w, http.StatusNotFound, "chore not found")
		return
	}

	h.publish(websocket.EntityChore, websocket.ActionUpdated, id, nil)
	writeJSON(w, http.StatusOK, c)
}

// Delete removes the chore. Its completion records stay in history.
func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, err := h.chores.Delete(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err, "failed to delete chore")
		return
	}
	if !removed {
		writeMessage(w, http.StatusNotFound, "chore not found")
		return
	}

	h.publish(websocket.EntityChore, websocket.ActionDeleted, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Convert turns a one-time chore into a recurring chore with the rule in
// the request body.
func (h *ChoreHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	rule, msg := req.build(h.builder, time.Now())
	if msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}

	id := r.PathValue("id")
	rc, err := h.service.ConvertToRecurring(r.Context(), id, rule)
	if errors.Is(err, chore.ErrChoreNotFound) {
		writeMessage(w, http.StatusNotFound, "chore not found")
		return
	}
	if err != nil {
		writeError(w, h.logger, err, "failed to convert chore")
		return
	}

	h.publish(websocket.EntityChore, websocket.ActionConverted, id, map[string]any{"new_id": rc.ID, "to": websocket.EntityRecurring})
	writeJSON(w, http.StatusCreated, rc)
}

func (h *ChoreHandler) assigneeOK(w http.ResponseWriter, r *http.Request, id *string) bool {
	ok, err := checkAssignee(r.Context(), h.team, id)
	if err != nil {
		writeError(w, h.logger, err, "failed to check team member")
		return false
	}
	if !ok {
		writeMessage(w, http.StatusBadRequest, "team member not found")
		return false
	}
	return true
}

func normalizeAssignee(id *string) *string {
	if id == nil {
		return nil
	}
	return model.Assignee(*id)
}
