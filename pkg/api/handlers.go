package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shouc/distfuzz/pkg/logging"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(s.startTime).String(),
		Time:   time.Now(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	plans, err := s.coordinator.Partitions(s.worldSize)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	seen := s.coordinator.WorkerSeen()

	workers := make([]WorkerStatusView, 0, len(plans))
	for i, plan := range plans {
		rank := i + 1
		var lastSeen int64
		if t, ok := seen[rank]; ok {
			lastSeen = t.Unix()
		}
		workers = append(workers, WorkerStatusView{
			Rank:         rank,
			LastSeenUnix: lastSeen,
			EdgeCount:    len(plan.Plan),
			Weight:       plan.Weight,
		})
	}

	s.respondJSON(w, http.StatusOK, StatusResponse{
		RunID:     s.coordinator.RunID().String(),
		NodeCount: s.coordinator.Master().NodeCount(),
		Workers:   workers,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode json response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
