// Package api serves the daemon's status surface: health, last report,
// checklists, recent logs and a manual run trigger. Everything except
// health requires the configured Bearer key.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/berthwatch-io/berthwatch/internal/agent"
	"github.com/berthwatch-io/berthwatch/internal/logbuf"
	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// RunService is what the server needs from the agent runner.
type RunService interface {
	Run(ctx context.Context) error
	LastReport() (*protocol.Report, time.Time)
}

// ChecklistSource reads the persisted checklists. Satisfied by *store.Store.
type ChecklistSource interface {
	LoadChecklists() map[string]*protocol.Checklist
}

// LogSource reads recent log records. Satisfied by *logbuf.Buffer.
type LogSource interface {
	Recent(minLevel slog.Level, limit int) []logbuf.Record
}

// Config holds API server configuration.
type Config struct {
	Host string
	Port int
	Key  string // Bearer auth; empty disables auth
}

// Server is the berthwatch status API.
type Server struct {
	runner     RunService
	checklists ChecklistSource
	logs       LogSource
	cfg        Config
	logger     *slog.Logger
	srv        *http.Server
}

// NewServer builds the API server. logs may be nil.
func NewServer(runner RunService, checklists ChecklistSource, logs LogSource, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		runner:     runner,
		checklists: checklists,
		logs:       logs,
		cfg:        cfg,
		logger:     logger,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.requireAuth(s.handleStatus))
	mux.HandleFunc("GET /api/report", s.requireAuth(s.handleReport))
	mux.HandleFunc("GET /api/checklists", s.requireAuth(s.handleListChecklists))
	mux.HandleFunc("GET /api/checklists/{vessel}", s.requireAuth(s.handleGetChecklist))
	mux.HandleFunc("POST /api/run", s.requireAuth(s.handleRun))
	mux.HandleFunc("GET /api/logs", s.requireAuth(s.handleLogs))

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start begins listening. Blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutCtx)
	}()

	s.logger.Info("api server starting", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Handler exposes the routing for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Key == "" {
			next(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.cfg.Key {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	rep, at := s.runner.LastReport()
	status := map[string]any{
		"last_run": nil,
	}
	if rep != nil {
		status["last_run"] = at
		status["emails"] = len(rep.Emails)
		status["urgent"] = rep.UrgentCount
		status["schedule_count"] = rep.ScheduleCount
		status["conflicts"] = len(rep.Conflicts)
		status["checklists"] = rep.Checklists.Total
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	rep, _ := s.runner.LastReport()
	if rep == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report yet"})
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleListChecklists(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.checklists.LoadChecklists())
}

func (s *Server) handleGetChecklist(w http.ResponseWriter, r *http.Request) {
	vessel := strings.ToUpper(r.PathValue("vessel"))
	ck, ok := s.checklists.LoadChecklists()[vessel]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no checklist for " + vessel})
		return
	}
	writeJSON(w, http.StatusOK, ck)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	err := s.runner.Run(r.Context())
	switch {
	case errors.Is(err, agent.ErrRunInProgress):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "run already in progress"})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		rep, at := s.runner.LastReport()
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "completed", "at": at, "emails": len(rep.Emails),
		})
	}
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.logs == nil {
		writeJSON(w, http.StatusOK, []logbuf.Record{})
		return
	}

	limit := 200
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	minLevel := slog.LevelDebug
	if lvl := r.URL.Query().Get("level"); lvl != "" {
		switch strings.ToLower(lvl) {
		case "info":
			minLevel = slog.LevelInfo
		case "warn":
			minLevel = slog.LevelWarn
		case "error":
			minLevel = slog.LevelError
		}
	}

	records := s.logs.Recent(minLevel, limit)
	if records == nil {
		records = []logbuf.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
