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

type RecurringHandler struct {
	publisher
	recurring *store.RecurringStore
	team      *store.TeamStore
	service   *chore.Service
	builder   *recurrence.Builder
	logger    *slog.Logger
}

func NewRecurringHandler(rs *store.RecurringStore, ts *store.TeamStore, svc *chore.Service, b *recurrence.Builder, hub *websocket.Hub, logger *slog.Logger) *RecurringHandler {
	return &RecurringHandler{
		publisher: publisher{hub: hub},
		recurring: rs,
		team:      ts,
		service:   svc,
		builder:   b,
		logger:    componentLogger(logger, "recurring"),
	}
}

func (h *RecurringHandler) List(w http.ResponseWriter, r *http.Request) {
	chores, err := h.recurring.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "failed to list recurring chores")
		return
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *RecurringHandler) Get(w http.ResponseWriter, r *http.Request) {
	rc, err := h.recurring.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err, "failed to get recurring chore")
		return
	}
	if rc == nil {
		writeMessage(w, http.StatusNotFound, "recurring chore not found")
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

type recurringRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	AssignedTo  *string      `json:"assigned_to"`
	Recurrence  *ruleRequest `json:"recurrence"`
}

func (h *RecurringHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}

	title := ""
	if req.Title != nil {
		title = strings.TrimSpace(*req.Title)
	}
	if title == "" {
		writeMessage(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Recurrence == nil {
		writeMessage(w, http.StatusBadRequest, "recurrence is required")
		return
	}
	rule, msg := req.Recurrence.build(h.builder, time.Now())
	if msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}
	if !h.assigneeOK(w, r, req.AssignedTo) {
		return
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}

	rc, err := h.recurring.Create(r.Context(), title, description, normalizeAssignee(req.AssignedTo), rule)
	if err != nil {
		writeError(w, h.logger, err, "failed to create recurring chore")
		return
	}

	h.publish(websocket.EntityRecurring, websocket.ActionCreated, rc.ID, nil)
	writeJSON(w, http.StatusCreated, rc)
}

// Update applies the fields present in the body. A recurrence block
// replaces the whole rule.
func (h *RecurringHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}

	patch := model.RecurringChorePatch{
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			writeMessage(w, http.StatusBadRequest, "title is required")
			return
		}
		patch.Title = &title
	}
	if req.Recurrence != nil {
		rule, msg := req.Recurrence.build(h.builder, time.Now())
		if msg != "" {
			writeMessage(w, http.StatusBadRequest, msg)
			return
		}
		patch.RecurrenceRule = &rule
	}
	if !h.assigneeOK(w, r, req.AssignedTo) {
		return
	}

	id := r.PathValue("id")
	rc, err := h.recurring.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, h.logger, err, "failed to update recurring chore")
		return
	}
	if rc == nil {
		writeMessage(w, http.StatusNotFound, "recurring chore not found")
		return
	}

	h.publish(websocket.EntityRecurring, websocket.ActionUpdated, id, nil)
	writeJSON(w, http.StatusOK, rc)
}

func (h *RecurringHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, err := h.recurring.Delete(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err, "failed to delete recurring chore")
		return
	}
	if !removed {
		writeMessage(w, http.StatusNotFound, "recurring chore not found")
		return
	}

	h.publish(websocket.EntityRecurring, websocket.ActionDeleted, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Convert turns a recurring chore into a one-time chore due at due_date.
func (h *RecurringHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DueDate *time.Time `json:"due_date"`
	}
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if req.DueDate == nil {
		writeMessage(w, http.StatusBadRequest, "due_date is required")
		return
	}

	id := r.PathValue("id")
	c, err := h.service.ConvertToOneTime(r.Context(), id, *req.DueDate)
	if errors.Is(err, chore.ErrChoreNotFound) {
		writeMessage(w, http.StatusNotFound, "recurring chore not found")
		return
	}
	if err != nil {
		writeError(w, h.logger, err, "failed to convert recurring chore")
		return
	}

	h.publish(websocket.EntityRecurring, websocket.ActionConverted, id, map[string]any{"new_id": c.ID, "to": websocket.EntityChore})
	writeJSON(w, http.StatusCreated, c)
}

func (h *RecurringHandler) assigneeOK(w http.ResponseWriter, r *http.Request, id *string) bool {
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
