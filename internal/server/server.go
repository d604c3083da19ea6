package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorechart/internal/app"
	"github.com/dukerupert/chorechart/internal/handler"
	"github.com/dukerupert/chorechart/internal/middleware"
	ws "github.com/dukerupert/chorechart/internal/websocket"
)

const (
	transferRateLimit  = 10
	transferRatePeriod = time.Minute
)

type Server struct {
	app         *app.App
	teamH       *handler.TeamHandler
	choreH      *handler.ChoreHandler
	recurringH  *handler.RecurringHandler
	recurrenceH *handler.RecurrenceHandler
	agendaH     *handler.AgendaHandler
	dataH       *handler.DataHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(a *app.App, logger *slog.Logger) *Server {
	if logger == nil {
		logger = a.Logger
	}
	cfg := a.Config
	return &Server{
		app:         a,
		teamH:       handler.NewTeamHandler(a.Team, a.Hub, logger),
		choreH:      handler.NewChoreHandler(a.Chores, a.Team, a.Service, a.Builder, a.Hub, logger),
		recurringH:  handler.NewRecurringHandler(a.Recurring, a.Team, a.Service, a.Builder, a.Hub, logger),
		recurrenceH: handler.NewRecurrenceHandler(a.Builder, logger),
		agendaH:     handler.NewAgendaHandler(a.Service, a.Completions, a.State, a.Hub, logger),
		dataH:       handler.NewDataHandler(a.Transfer, a.Backup, cfg.BackupPassphrase, cfg.BackupRetention, a.Hub, logger),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Hub() *ws.Hub {
	return s.app.Hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.app.Hub, s.app.Config.AllowedOrigins))

	// Team
	mux.HandleFunc("GET /api/team", s.teamH.List)
	mux.HandleFunc("POST /api/team", s.teamH.Create)
	mux.HandleFunc("PUT /api/team/{id}", s.teamH.Update)
	mux.HandleFunc("DELETE /api/team/{id}", s.teamH.Delete)

	// One-time chores
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.HandleFunc("PUT /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("DELETE /api/chores/{id}", s.choreH.Delete)
	mux.HandleFunc("POST /api/chores/{id}/convert", s.choreH.Convert)

	// Recurring chores
	mux.HandleFunc("GET /api/recurring", s.recurringH.List)
	mux.HandleFunc("POST /api/recurring", s.recurringH.Create)
	mux.HandleFunc("GET /api/recurring/{id}", s.recurringH.Get)
	mux.HandleFunc("PUT /api/recurring/{id}", s.recurringH.Update)
	mux.HandleFunc("DELETE /api/recurring/{id}", s.recurringH.Delete)
	mux.HandleFunc("POST /api/recurring/{id}/convert", s.recurringH.Convert)

	mux.HandleFunc("GET /api/recurrence/presets", s.recurrenceH.Presets)
	mux.HandleFunc("POST /api/recurrence/preview", s.recurrenceH.Preview)

	// Views
	mux.HandleFunc("GET /api/week", s.agendaH.Week)
	mux.HandleFunc("GET /api/list", s.agendaH.List)
	mux.HandleFunc("GET /api/completions", s.agendaH.History)
	mux.HandleFunc("POST /api/completions", s.agendaH.Complete)
	mux.HandleFunc("GET /api/completions/status", s.agendaH.CompletionStatus)
	mux.HandleFunc("GET /api/state", s.agendaH.GetState)
	mux.HandleFunc("PUT /api/state", s.agendaH.UpdateState)

	// Data transfer and backups
	mux.HandleFunc("GET /api/export", s.dataH.Export)
	mux.HandleFunc("POST /api/import", s.rateLimited(s.dataH.Import))
	mux.HandleFunc("POST /api/reset", s.rateLimited(s.dataH.Reset))
	mux.HandleFunc("GET /api/backup", s.dataH.BackupStatus)
	mux.HandleFunc("POST /api/backup", s.rateLimited(s.dataH.Backup))
	mux.HandleFunc("GET /api/backups", s.dataH.ListBackups)
	mux.HandleFunc("POST /api/backups/restore", s.rateLimited(s.dataH.Restore))
	mux.HandleFunc("POST /api/backups/cleanup", s.rateLimited(s.dataH.Cleanup))

	httpLogger := s.logger.With("component", "http")
	return middleware.RequestLogger(httpLogger)(middleware.Recover(httpLogger)(mux))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.app.DB.PingContext(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"status":  status,
		"clients": s.app.Hub.ClientCount(),
	})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, transferRateLimit, transferRatePeriod)
	return rl(h).ServeHTTP
}
