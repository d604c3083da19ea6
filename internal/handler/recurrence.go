package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/recurrence"
)

const maxPreviewCount = 50

// ruleRequest is the form a recurrence rule is submitted in: a preset, a
// time of day and a reference date whose weekday or day of month seeds the
// weekly and monthly presets.
type ruleRequest struct {
	Preset string `json:"preset"`
	Time   string `json:"time"`
	Date   string `json:"date"`
	Cron   string `json:"cron"`
}

// build validates req and derives the rule. The returned string is a client
// error message when the request is unusable.
func (req ruleRequest) build(b *recurrence.Builder, now time.Time) (model.RecurrenceRule, string) {
	preset := recurrence.Preset(req.Preset)
	if preset == "" {
		return model.RecurrenceRule{}, "preset is required"
	}
	if !knownPreset(preset) {
		return model.RecurrenceRule{}, "unknown preset: " + req.Preset
	}
	if preset == recurrence.PresetCustom {
		if _, ok := recurrence.ParseExpr(req.Cron); !ok {
			return model.RecurrenceRule{}, "cron must have five fields"
		}
	}
	ref, err := parseDate(req.Date, now)
	if err != nil {
		return model.RecurrenceRule{}, "date must be YYYY-MM-DD"
	}
	return b.CreateRule(preset, req.Time, ref, req.Cron), ""
}

func knownPreset(p recurrence.Preset) bool {
	for _, info := range recurrence.Presets {
		if info.ID == p {
			return true
		}
	}
	return false
}

type RecurrenceHandler struct {
	builder *recurrence.Builder
	logger  *slog.Logger
}

func NewRecurrenceHandler(b *recurrence.Builder, logger *slog.Logger) *RecurrenceHandler {
	return &RecurrenceHandler{builder: b, logger: componentLogger(logger, "recurrence")}
}

func (h *RecurrenceHandler) Presets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, recurrence.Presets)
}

// Preview builds a rule from the request and lists its next occurrences
// without storing anything.
func (h *RecurrenceHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ruleRequest
		Count int `json:"count"`
	}
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if req.Count < 0 || req.Count > maxPreviewCount {
		writeMessage(w, http.StatusBadRequest, "count must be at most 50")
		return
	}

	rule, msg := req.build(h.builder, time.Now())
	if msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}

	occurrences := h.builder.Preview(rule, req.Count)
	if occurrences == nil {
		occurrences = []time.Time{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rule":        rule,
		"occurrences": occurrences,
	})
}
