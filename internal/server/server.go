// Package server provides the HTTP bridge between UI clients and the
// recognition app.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/signroute/internal/app"
	"github.com/ayusman/signroute/internal/server/api"
	"github.com/ayusman/signroute/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
	Logger    *slog.Logger
	// ResultTimeout bounds how long a request waits for its frame result.
	ResultTimeout time.Duration
}

// Server represents the HTTP server for the SignRoute application.
type Server struct {
	config Config
	logger *slog.Logger
	mux    *http.ServeMux
	start  time.Time
	http   *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.ResultTimeout <= 0 {
		config.ResultTimeout = 5 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: config,
		logger: logger,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// History endpoints need the store
	if s.config.Store != nil {
		s.mux.Handle("/api/decisions", api.NewDecisionsHandler(s.config.Store))
		s.mux.Handle("/api/transcripts", api.NewTranscriptsHandler(s.config.Store))
	}

	// Recognition endpoints need the app
	if s.config.App != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)
		s.mux.HandleFunc("/api/labels", s.handleLabels)
		s.mux.HandleFunc("/api/frame", s.handleFrame)
		s.mux.HandleFunc("/api/landmarks", s.handleLandmarks)
		s.mux.HandleFunc("/api/reset", s.handleReset)
		s.mux.HandleFunc("/api/enabled", s.handleEnabled)
		s.mux.HandleFunc("/api/speech/start", s.handleSpeechStart)
		s.mux.HandleFunc("/api/speech/stop", s.handleSpeechStop)
		s.mux.Handle("/api/events", NewEventsHandler(s.config.App.Hub(), s.logger))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.App != nil {
		response["running"] = s.config.App.IsRunning()
	}

	api.WriteJSON(w, http.StatusOK, response)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
