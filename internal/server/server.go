// internal/server/server.go

// Package server exposes the engine over HTTP: recommendation feeds,
// match summaries, and interaction ingestion, plus health and metrics.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"skillmatch-engine/internal/common/logger"
	"skillmatch-engine/internal/recommend"
	"skillmatch-engine/internal/store"
)

// Server routes HTTP requests to the recommendation service.
type Server struct {
	svc    *recommend.Service
	logger logger.Logger
}

// New builds a server over the service facade.
func New(svc *recommend.Service, log logger.Logger) *Server {
	return &Server{
		svc:    svc,
		logger: log.WithFields(map[string]interface{}{"component": "http"}),
	}
}

// Routes returns the request mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /recommendations/jobs", s.handleRecommendJobs)
	mux.HandleFunc("GET /recommendations/jobs/all", s.handleRecommendAllJobs)
	mux.HandleFunc("GET /recommendations/candidates", s.handleRecommendCandidates)
	mux.HandleFunc("GET /recommendations/connections", s.handleRecommendConnections)
	mux.HandleFunc("GET /matches/top", s.handleTopMatches)
	mux.HandleFunc("POST /interactions", s.handleRecordInteraction)

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return mux
}

func (s *Server) handleRecommendJobs(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}
	feed, err := s.svc.RecommendJobs(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) handleRecommendAllJobs(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}
	feed, err := s.svc.RecommendAllJobsRanked(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) handleRecommendCandidates(w http.ResponseWriter, r *http.Request) {
	jobID, ok := queryID(w, r, "jobId")
	if !ok {
		return
	}
	feed, err := s.svc.RecommendCandidates(r.Context(), jobID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) handleRecommendConnections(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}
	feed, err := s.svc.RecommendConnections(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) handleTopMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}
	summaries, err := s.svc.GetTopMatches(r.Context(), userID, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"matches": summaries})
}

type interactionRequest struct {
	UserID          int64  `json:"userId"`
	JobID           int64  `json:"jobId"`
	InteractionType string `json:"interactionType"`
}

func (s *Server) handleRecordInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.UserID <= 0 || req.JobID <= 0 || req.InteractionType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "userId, jobId and interactionType are required"})
		return
	}

	if err := s.svc.RecordInteraction(r.Context(), req.UserID, req.JobID, req.InteractionType); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUserNotFound), errors.Is(err, store.ErrJobNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		s.logger.Error("request failed", map[string]interface{}{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func queryID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.URL.Query().Get(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
