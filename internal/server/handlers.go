package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
)

// processRequest triggers a batch for one channel.
type processRequest struct {
	Channel string `json:"channel"`
	Count   int    `json:"count"`
}

// handleProcess starts a batch in the background and returns 202
// immediately. Batch progress is visible through GET /batches; a
// request that waited for the whole batch would outlive any sane
// client timeout.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Channel == "" {
		s.errorResponse(w, http.StatusBadRequest, "channel is required")
		return
	}
	if req.Count < 0 {
		s.errorResponse(w, http.StatusBadRequest, "count must be non-negative")
		return
	}

	go func() {
		report, err := s.runner.RunChannel(context.Background(), req.Channel, req.Count)
		if err != nil {
			log.Printf("batch for channel %s finished with error: %v", req.Channel, err)
			return
		}
		log.Printf("batch for channel %s: %d processed, %d skipped, %d failed",
			req.Channel, report.Processed, report.Skipped, report.Failed)
	}()

	s.jsonResponse(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"channel": req.Channel,
	})
}

// handleListBatches returns batch records, optionally filtered by
// ?status=running|completed|interrupted.
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	batches, err := s.store.ListBatches(r.Context(), status)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to list batches")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"batches": batches})
}

// handleQueueJobs proxies the queue host's job listing.
func (s *Server) handleQueueJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.queue.ListJobs(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.errorResponse(w, http.StatusBadGateway, "queue host unavailable")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// handleQueueStats proxies the queue host's aggregate counters.
func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.queue.GetStats(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusBadGateway, "queue host unavailable")
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}
