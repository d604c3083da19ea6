package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorechart/internal/chore"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
	"github.com/dukerupert/chorechart/internal/websocket"
)

// AgendaHandler serves the merged views: the week grid, the list view,
// completions and the persisted UI state.
type AgendaHandler struct {
	publisher
	service     *chore.Service
	completions *store.CompletionStore
	state       *store.StateStore
	logger      *slog.Logger
}

func NewAgendaHandler(svc *chore.Service, cs *store.CompletionStore, ss *store.StateStore, hub *websocket.Hub, logger *slog.Logger) *AgendaHandler {
	return &AgendaHandler{
		publisher:   publisher{hub: hub},
		service:     svc,
		completions: cs,
		state:       ss,
		logger:      componentLogger(logger, "agenda"),
	}
}

// Week returns the week containing ?start=YYYY-MM-DD, or the current week.
func (h *AgendaHandler) Week(w http.ResponseWriter, r *http.Request) {
	start, err := parseDate(r.URL.Query().Get("start"), h.service.Now())
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}
	week, err := h.service.Week(r.Context(), start)
	if err != nil {
		writeError(w, h.logger, err, "failed to load week")
		return
	}
	writeJSON(w, http.StatusOK, week)
}

func (h *AgendaHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := chore.ListOptions{
		Assignee: q.Get("assignee"),
		Status:   chore.Status(q.Get("status")),
	}
	switch opts.Status {
	case "", chore.StatusPending, chore.StatusCompleted, chore.StatusOverdue:
	default:
		writeMessage(w, http.StatusBadRequest, "status must be pending, completed or overdue")
		return
	}

	chores, err := h.service.List(r.Context(), opts)
	if err != nil {
		writeError(w, h.logger, err, "failed to list chores")
		return
	}
	writeJSON(w, http.StatusOK, chores)
}

// History lists every completion, newest first.
func (h *AgendaHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.History(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Complete records a completion for one occurrence. A second completion of
// the same occurrence is refused with 409.
func (h *AgendaHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChoreID     string     `json:"chore_id"`
		DueDate     *time.Time `json:"due_date"`
		CompletedBy *string    `json:"completed_by"`
		Notes       string     `json:"notes"`
	}
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if req.ChoreID == "" {
		writeMessage(w, http.StatusBadRequest, "chore_id is required")
		return
	}
	if req.DueDate == nil {
		writeMessage(w, http.StatusBadRequest, "due_date is required")
		return
	}

	done, err := h.completions.IsCompleted(r.Context(), req.ChoreID, *req.DueDate)
	if err != nil {
		writeError(w, h.logger, err, "failed to check completion")
		return
	}
	if done {
		writeMessage(w, http.StatusConflict, "chore already completed for this date")
		return
	}

	c, err := h.service.Complete(r.Context(), chore.CompleteInput{
		ChoreID:     req.ChoreID,
		DueDate:     *req.DueDate,
		CompletedBy: req.CompletedBy,
		Notes:       req.Notes,
	})
	if errors.Is(err, chore.ErrChoreNotFound) {
		writeMessage(w, http.StatusNotFound, "chore not found")
		return
	}
	if err != nil {
		writeError(w, h.logger, err, "failed to complete chore")
		return
	}

	h.publish(websocket.EntityCompletion, websocket.ActionCreated, c.ID, map[string]any{"chore_id": c.ChoreID})
	writeJSON(w, http.StatusCreated, c)
}

// CompletionStatus answers ?chore_id=&due_date=<RFC 3339>.
func (h *AgendaHandler) CompletionStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	choreID := q.Get("chore_id")
	if choreID == "" {
		writeMessage(w, http.StatusBadRequest, "chore_id is required")
		return
	}
	due, err := time.Parse(time.RFC3339, q.Get("due_date"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "due_date must be an RFC 3339 timestamp")
		return
	}

	done, err := h.completions.IsCompleted(r.Context(), choreID, due)
	if err != nil {
		writeError(w, h.logger, err, "failed to check completion")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chore_id":  choreID,
		"due_date":  due,
		"completed": done,
	})
}

func (h *AgendaHandler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.state.Get(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "failed to get state")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *AgendaHandler) UpdateState(w http.ResponseWriter, r *http.Request) {
	var patch model.StatePatch
	if !decodeJSON(w, r, maxBodyBytes, &patch) {
		return
	}
	if patch.ViewMode != nil {
		switch *patch.ViewMode {
		case model.ViewCalendar, model.ViewList, model.ViewTeam, model.ViewHistory:
		default:
			writeMessage(w, http.StatusBadRequest, "viewMode must be calendar, list, team or history")
			return
		}
	}

	state, err := h.state.Update(r.Context(), patch)
	if err != nil {
		writeError(w, h.logger, err, "failed to update state")
		return
	}

	h.publish(websocket.EntityState, websocket.ActionUpdated, "", nil)
	writeJSON(w, http.StatusOK, state)
}
