// Package server provides the HTTP control API: trigger batches, list
// batch records, and proxy queue statistics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aman/scriptline/internal/queue"
	"github.com/aman/scriptline/internal/scheduler"
	"github.com/aman/scriptline/internal/store"
)

// BatchRunner starts channel batches on demand.
type BatchRunner interface {
	RunChannel(ctx context.Context, channelCode string, count int) (*scheduler.ChannelReport, error)
}

// QueueReader exposes the queue host's observable state.
type QueueReader interface {
	ListJobs(ctx context.Context, status string) ([]queue.JobStatus, error)
	GetStats(ctx context.Context) (*queue.Stats, error)
}

// Server is the HTTP control surface.
type Server struct {
	httpServer *http.Server
	runner     BatchRunner
	store      store.Store
	queue      QueueReader
	apiKey     string
}

// Config holds server configuration.
type Config struct {
	Addr   string
	APIKey string
}

// New creates a server over the given collaborators.
func New(cfg Config, runner BatchRunner, st store.Store, q QueueReader) *Server {
	s := &Server{
		runner: runner,
		store:  st,
		queue:  q,
		apiKey: cfg.APIKey,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /process", s.handleProcess)
	mux.HandleFunc("GET /batches", s.handleListBatches)
	mux.HandleFunc("GET /queue/jobs", s.handleQueueJobs)
	mux.HandleFunc("GET /queue/stats", s.handleQueueStats)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.withLogging(s.withAPIKey(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening and blocks until an interrupt, then shuts down
// gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// withAPIKey rejects requests without the configured X-API-Key. The
// health endpoint stays open for probes. An empty configured key
// disables the check.
func (s *Server) withAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.URL.Path != "/health" && r.Header.Get("X-API-Key") != s.apiKey {
			s.errorResponse(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
