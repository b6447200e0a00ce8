package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"portmon/internal/history"
	"portmon/internal/metrics"
	"portmon/internal/models"
	"portmon/internal/monitor"
	"portmon/internal/registry"
	"portmon/internal/storage"
)

// Server exposes the monitor and registry state over HTTP.
type Server struct {
	httpServer   *http.Server
	monitor      *monitor.Monitor
	registry     *registry.Registry
	samples      *storage.SampleLog
	events       *storage.EventLog
	ports        []models.PortSpec
	historyLimit int
}

// StatusSnapshot is the payload served by /api/status and the websocket feed.
type StatusSnapshot struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Target      models.Target       `json:"target"`
	Online      bool                `json:"online"`
	Failures    int                 `json:"failures"`
	Latest      *models.CheckSample `json:"latest,omitempty"`
	Listeners   []models.PortSpec   `json:"listeners"`
	Configured  []models.PortSpec   `json:"configured"`
}

// New creates a configured HTTP server for the port monitor.
func New(addr string, mon *monitor.Monitor, reg *registry.Registry, samples *storage.SampleLog, events *storage.EventLog, ports []models.PortSpec) *Server {
	mux := http.NewServeMux()
	s := &Server{
		httpServer:   &http.Server{Addr: addr, Handler: mux},
		monitor:      mon,
		registry:     reg,
		samples:      samples,
		events:       events,
		ports:        ports,
		historyLimit: 200,
	}
	s.registerRoutes(mux)
	return s
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/checks", s.handleChecks)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/uptime", s.handleUptime)
	mux.HandleFunc("/api/timeline", s.handleTimeline)
	mux.HandleFunc("/ws/status", s.handleStatusWS)
}

func (s *Server) statusSnapshot() StatusSnapshot {
	snapshot := StatusSnapshot{
		GeneratedAt: time.Now().UTC(),
		Listeners:   s.registry.Listeners(),
		Configured:  s.ports,
	}
	sort.Slice(snapshot.Listeners, func(i, j int) bool {
		return snapshot.Listeners[i].Port < snapshot.Listeners[j].Port
	})
	if s.monitor != nil {
		snapshot.Target = s.monitor.Target()
		snapshot.Online = s.monitor.Online()
		snapshot.Failures = s.monitor.Failures()
		if latest, ok := s.monitor.Latest(); ok {
			snapshot.Latest = &latest
		}
	}
	return snapshot
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.statusSnapshot())
}

func (s *Server) handleChecks(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, s.historyLimit)
	writeJSON(w, http.StatusOK, s.samples.SamplesN(limit))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, s.historyLimit)
	writeJSON(w, http.StatusOK, s.events.EventsN(limit))
}

func (s *Server) handleUptime(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, s.historyLimit)
	writeJSON(w, http.StatusOK, metrics.ComputeAvailability(s.samples.SamplesN(limit)))
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, s.historyLimit)
	writeJSON(w, http.StatusOK, history.CollapseSegments(s.samples.SamplesN(limit)))
}

func parseLimit(r *http.Request, fallback int) int {
	if fallback <= 0 {
		return fallback
	}
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > fallback {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
