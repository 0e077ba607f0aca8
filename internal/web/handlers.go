package web

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/lucasnoah/scapagent/internal/content"
	"github.com/lucasnoah/scapagent/internal/scan"
)

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

type scanResponse struct {
	Status     string       `json:"status"`
	ScanID     string       `json:"scan_id"`
	Profile    string       `json:"profile,omitempty"`
	Datastream string       `json:"datastream,omitempty"`
	Results    *scan.Result `json:"results"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "stopped"
	if s.agent != nil && s.agent.Running() {
		status = "healthy"
	}
	render.JSON(w, r, healthResponse{
		Status:    status,
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
		Version:   s.version,
	})
}

// handleScan runs a scan with the agent's reporting. Every returned result,
// including a failed one, is a 200.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if !s.requireAgent(w, r) {
		return
	}
	res := s.agent.PerformScan(r.Context(), r.URL.Query().Get("profile"))
	render.JSON(w, r, scanResponse{
		Status:  "completed",
		ScanID:  res.ScanID,
		Results: res,
	})
}

// handleOSCAPScan runs a scan directly without reporting it. Datastreams are
// looked up by file name in the configured roots only.
func (s *Server) handleOSCAPScan(w http.ResponseWriter, r *http.Request) {
	if !s.requireAgent(w, r) {
		return
	}
	q := r.URL.Query()
	profile := q.Get("profile")
	if profile == "" {
		profile = scan.DefaultOSCAPProfile
	}
	datastream := q.Get("datastream")
	if datastream != "" && !content.IsFileName(datastream) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Detail: "datastream must be a file name"})
		return
	}

	res := s.agent.Scan(r.Context(), scan.Request{Profile: profile, Datastream: datastream})

	shown := datastream
	if shown == "" {
		shown = "auto-detected"
	}
	render.JSON(w, r, scanResponse{
		Status:     "completed",
		ScanID:     res.ScanID,
		Profile:    profile,
		Datastream: shown,
		Results:    res,
	})
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string][]scan.Profile{"profiles": scan.KnownProfiles()})
}

func (s *Server) requireAgent(w http.ResponseWriter, r *http.Request) bool {
	if s.agent != nil {
		return true
	}
	render.Status(r, http.StatusServiceUnavailable)
	render.JSON(w, r, errorResponse{Detail: "Agent not initialized"})
	return false
}
