// Package app assembles the storage, domain services and change feed shared
// by the HTTP server and the command-line tools.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukerupert/chorechart/internal/backup"
	"github.com/dukerupert/chorechart/internal/chore"
	"github.com/dukerupert/chorechart/internal/config"
	"github.com/dukerupert/chorechart/internal/database"
	"github.com/dukerupert/chorechart/internal/recurrence"
	"github.com/dukerupert/chorechart/internal/store"
	ws "github.com/dukerupert/chorechart/internal/websocket"
)

type App struct {
	DB          *sql.DB
	KV          *store.KV
	Team        *store.TeamStore
	Chores      *store.ChoreStore
	Recurring   *store.RecurringStore
	Completions *store.CompletionStore
	State       *store.StateStore
	Transfer    *store.TransferStore
	Backups     *store.BackupStore

	Service *chore.Service
	Builder *recurrence.Builder
	Hub     *ws.Hub
	Backup  *backup.Manager
	Config  *config.Config
	Logger  *slog.Logger
}

// Open opens the database at cfg.DBPath, seeds any missing documents and
// builds the services on top of it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a, err := New(ctx, db, cfg, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// New builds the services over an already opened database.
func New(ctx context.Context, db *sql.DB, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	kv := store.NewKV(db, logger)
	if err := kv.Init(ctx); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	a := &App{
		DB:          db,
		KV:          kv,
		Team:        store.NewTeamStore(kv),
		Chores:      store.NewChoreStore(kv),
		Recurring:   store.NewRecurringStore(kv),
		Completions: store.NewCompletionStore(kv),
		State:       store.NewStateStore(kv),
		Transfer:    store.NewTransferStore(kv),
		Backups:     store.NewBackupStore(db),
		Hub:         ws.NewHub(logger),
		Config:      cfg,
		Logger:      logger,
	}

	a.Service = chore.NewService(a.Team, a.Chores, a.Recurring, a.Completions, logger)

	var describer recurrence.Describer
	if d, err := recurrence.NewCronDescriber(); err != nil {
		logger.Warn("cron descriptions unavailable, showing raw expressions", "error", err)
	} else {
		describer = d
	}
	a.Builder = recurrence.NewBuilder(describer)

	a.Backup = backup.NewManager(cfg.Backup, a.Transfer, a.Backups, logger, func(s backup.Status) {
		a.Hub.Publish(ws.EntityBackup, ws.ActionStatus, "", map[string]any{
			"state":       s.State,
			"in_progress": s.InProgress,
			"error":       s.Error,
		})
	})

	return a, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
