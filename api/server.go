// Package api provides the HTTP server for BrandPulse serve mode.
//
// It exposes the latest report, lets operators trigger a run, reports
// credential status, and streams run progress over WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/brandpulse/brandpulse/internal/config"
	"github.com/brandpulse/brandpulse/internal/monitor"
	"github.com/brandpulse/brandpulse/internal/store"
	"github.com/brandpulse/brandpulse/pkg/models"
)

// maxRunWindowHours bounds the window an API caller can request.
const maxRunWindowHours = 168

// RunStarter executes one monitoring run.
type RunStarter interface {
	Run(ctx context.Context, opts monitor.Options) (models.Report, error)
}

// ReportSource serves the most recent persisted report.
type ReportSource interface {
	Latest() (models.Report, error)
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	runner  RunStarter
	reports ReportSource
	wsHub   *WSHub
	log     *logrus.Logger
	version string

	runMu     sync.Mutex
	runActive bool
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, runner RunStarter, reports ReportSource, version string, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	srv := &Server{
		cfg:     cfg,
		runner:  runner,
		reports: reports,
		wsHub:   NewWSHub(),
		log:     log,
		version: version,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// EventSink returns a progress sink that broadcasts run events to every
// connected WebSocket client.
func (s *Server) EventSink() monitor.Sink {
	return func(e monitor.Event) {
		s.wsHub.Broadcast(WSMessage{Type: "run_progress", Data: e})
	}
}

// ListenAndServe starts the HTTP server with graceful shutdown on SIGINT
// and SIGTERM.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
	}
	s.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/report/latest", s.handleLatestReport)
		r.Post("/run", s.handleTriggerRun)
		r.Get("/config/keys", s.handleConfigKeys)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RunRequest is the body for POST /api/v1/run.
type RunRequest struct {
	Hours  int  `json:"hours,omitempty"`   // time window, default 24
	DryRun bool `json:"dry_run,omitempty"` // render but do not deliver
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "ok",
			"version": s.version,
			"brand":   s.cfg.Brand.Name,
			"time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.reports.Latest()
	if err != nil {
		if errors.Is(err, store.ErrNoReports) {
			writeError(w, http.StatusNotFound, "no reports yet")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    report,
	})
}

// handleTriggerRun starts a monitoring run in the background. Only one run
// may be in flight at a time; a second trigger gets 409.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.Hours < 0 || req.Hours > maxRunWindowHours {
		writeError(w, http.StatusBadRequest, "hours must be between 0 and 168")
		return
	}

	s.runMu.Lock()
	if s.runActive {
		s.runMu.Unlock()
		writeError(w, http.StatusConflict, "a run is already in progress")
		return
	}
	s.runActive = true
	s.runMu.Unlock()

	go func() {
		defer func() {
			s.runMu.Lock()
			s.runActive = false
			s.runMu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		report, err := s.runner.Run(ctx, monitor.Options{Hours: req.Hours, DryRun: req.DryRun})
		if err != nil {
			s.log.WithError(err).Error("triggered run failed")
			s.wsHub.Broadcast(WSMessage{Type: "run_failed", Data: map[string]string{"error": err.Error()}})
			return
		}
		s.wsHub.Broadcast(WSMessage{Type: "run_finished", Data: map[string]interface{}{
			"run_id": report.RunID,
			"posts":  report.TotalCount,
			"score":  report.SentimentScore,
		}})
	}()

	writeJSON(w, http.StatusAccepted, APIResponse{
		Success: true,
		Data:    map[string]string{"status": "started"},
	})
}

// handleConfigKeys returns the status of all configured credentials,
// masked for display.
func (s *Server) handleConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckCredentials(s.cfg),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
