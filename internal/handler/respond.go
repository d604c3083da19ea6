package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/dukerupert/chorechart/internal/store"
	"github.com/dukerupert/chorechart/internal/websocket"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 10 << 20
	dateLayout     = "2006-01-02"
)

const storageFullMessage = "Storage is full. Please export and clear some data."

var hexColorRegexp = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError answers a failed store call. A full database gets 507 with a
// hint to export; anything else is logged and reported as msg.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error, msg string) {
	if errors.Is(err, store.ErrStorageFull) {
		writeMessage(w, http.StatusInsufficientStorage, storageFullMessage)
		return
	}
	logger.Error(msg, "error", err)
	writeMessage(w, http.StatusInternalServerError, msg)
}

// decodeJSON reads a request body of at most limit bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeMessage(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	return data, true
}

// parseDate reads a YYYY-MM-DD value as local midnight. An empty value
// yields fallback.
func parseDate(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseInLocation(dateLayout, s, time.Local)
}

// publisher is embedded by handlers that announce changes on the hub.
type publisher struct {
	hub *websocket.Hub
}

func (p publisher) publish(entity, action, id string, extra map[string]any) {
	if p.hub != nil {
		p.hub.Publish(entity, action, id, extra)
	}
}

func componentLogger(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", name)
}
