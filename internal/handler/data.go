package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/chorechart/internal/backup"
	"github.com/dukerupert/chorechart/internal/store"
	"github.com/dukerupert/chorechart/internal/websocket"
)

const defaultBackupListLimit = 20

// DataHandler moves the whole dataset: JSON export and import, reset, and
// encrypted backups to object storage.
type DataHandler struct {
	publisher
	transfer   *store.TransferStore
	backups    *backup.Manager
	passphrase string
	retention  int
	logger     *slog.Logger
	now        func() time.Time
}

// NewDataHandler wires the transfer endpoints. passphrase is used for
// backups when a request does not carry one. retention is the default
// cleanup age in days.
func NewDataHandler(ts *store.TransferStore, mgr *backup.Manager, passphrase string, retention int, hub *websocket.Hub, logger *slog.Logger) *DataHandler {
	return &DataHandler{
		publisher:  publisher{hub: hub},
		transfer:   ts,
		backups:    mgr,
		passphrase: passphrase,
		retention:  retention,
		logger:     componentLogger(logger, "data"),
		now:        time.Now,
	}
}

func (h *DataHandler) Export(w http.ResponseWriter, r *http.Request) {
	snap, err := h.transfer.Export(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "failed to export data")
		return
	}
	data, err := store.MarshalSnapshot(snap)
	if err != nil {
		writeError(w, h.logger, err, "failed to export data")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+store.ExportFilename(h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Import replaces the collections present in the uploaded snapshot.
func (h *DataHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r, maxImportBytes)
	if !ok {
		return
	}

	applied, err := h.transfer.Import(r.Context(), data)
	if errors.Is(err, store.ErrInvalidSnapshot) {
		writeMessage(w, http.StatusBadRequest, "Invalid backup file")
		return
	}
	if err != nil {
		writeError(w, h.logger, err, "failed to import data")
		return
	}

	h.publish(websocket.EntityData, websocket.ActionImported, "", map[string]any{"collections": applied})
	writeJSON(w, http.StatusOK, map[string]any{"imported": applied})
}

// Reset clears every collection and seeds the defaults again.
func (h *DataHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.transfer.Reset(r.Context()); err != nil {
		writeError(w, h.logger, err, "failed to reset data")
		return
	}
	h.publish(websocket.EntityData, websocket.ActionReset, "", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *DataHandler) BackupStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.backups.Status())
}

// Backup uploads an encrypted snapshot now.
func (h *DataHandler) Backup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}

	record, err := h.backups.RunNow(r.Context(), h.passphraseOr(req.Passphrase))
	if err != nil {
		h.backupError(w, err, "backup failed")
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *DataHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	limit := defaultBackupListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeMessage(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.backups.List(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err, "failed to list backups")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Restore downloads and imports a backup named by record id or object key.
func (h *DataHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ref        string `json:"ref"`
		Passphrase string `json:"passphrase"`
	}
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if req.Ref == "" {
		writeMessage(w, http.StatusBadRequest, "ref is required")
		return
	}

	applied, err := h.backups.Restore(r.Context(), req.Ref, h.passphraseOr(req.Passphrase))
	if err != nil {
		h.backupError(w, err, "restore failed")
		return
	}

	h.publish(websocket.EntityData, websocket.ActionImported, "", map[string]any{"collections": applied, "backup": req.Ref})
	writeJSON(w, http.StatusOK, map[string]any{"imported": applied})
}

// Cleanup prunes backups older than retention_days, or the configured
// default.
func (h *DataHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RetentionDays int `json:"retention_days"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	days := req.RetentionDays
	if days == 0 {
		days = h.retention
	}
	if days < 1 {
		writeMessage(w, http.StatusBadRequest, "retention_days must be positive")
		return
	}

	removed, err := h.backups.Cleanup(r.Context(), days)
	if err != nil {
		h.backupError(w, err, "cleanup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (h *DataHandler) passphraseOr(p string) string {
	if p != "" {
		return p
	}
	return h.passphrase
}

func (h *DataHandler) backupError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, backup.ErrNotConfigured):
		writeMessage(w, http.StatusServiceUnavailable, "backups are not configured")
	case errors.Is(err, backup.ErrPassphraseRequired):
		writeMessage(w, http.StatusBadRequest, "passphrase is required")
	case errors.Is(err, backup.ErrDecrypt):
		writeMessage(w, http.StatusBadRequest, "wrong passphrase or corrupt backup")
	case errors.Is(err, store.ErrInvalidSnapshot):
		writeMessage(w, http.StatusBadRequest, "Invalid backup file")
	default:
		writeError(w, h.logger, err, msg)
	}
}
