// Package debugserver exposes the plugin's introspection HTTP surface:
// health, Prometheus metrics, and a read-only view into the sketch bank.
// It adapts the host framework's own Server interface shape (a start/stop
// lifecycle plus an AddDebugHttpEndpoint extension point) to a small
// gorilla/mux router instead of gRPC.
package debugserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FedeDP/plugins/src/profile"
	"github.com/FedeDP/plugins/src/sketchbank"
)

// Server is the plugin's debug HTTP surface.
type Server struct {
	router   *mux.Router
	registry *prometheus.Registry
	bank     *sketchbank.Bank

	mu        sync.RWMutex
	healthy   bool
	http      *http.Server
}

// New builds a Server routing /healthcheck, /metrics, /sketches and
// /sketches/{i}/estimate against bank and registry. It does not start
// listening until Start is called.
func New(addr string, registry *prometheus.Registry, bank *sketchbank.Bank) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		registry: registry,
		bank:     bank,
		healthy:  true,
	}
	s.router.HandleFunc("/healthcheck", s.handleHealthcheck)
	s.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	s.router.HandleFunc("/sketches", s.handleSketches)
	s.router.HandleFunc("/sketches/{i}/estimate", s.handleEstimate).Queries("fp", "{fp}")
	s.http = &http.Server{Addr: addr, Handler: s.router}
	return s
}

// AddDebugHttpEndpoint registers an additional handler, mirroring the host
// framework's own extension point for debug routes.
func (s *Server) AddDebugHttpEndpoint(path string, handler http.HandlerFunc) {
	s.router.HandleFunc(path, handler)
}

// Start begins serving in the background. Errors after startup (including a
// clean Stop) are not surfaced; this matches the fire-and-forget debug
// server lifecycle of the framework it is modeled on.
func (s *Server) Start() {
	go func() {
		_ = s.http.ListenAndServe()
	}()
}

// Stop shuts the HTTP listener down.
func (s *Server) Stop() {
	_ = s.http.Close()
}

// HealthCheckFail marks the server unhealthy; subsequent /healthcheck calls
// return 503.
func (s *Server) HealthCheckFail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = false
}

// HealthCheckOK marks the server healthy again.
func (s *Server) HealthCheckOK() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = true
}

func (s *Server) handleHealthcheck(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	healthy := s.healthy
	s.mu.RUnlock()
	if !healthy {
		http.Error(w, "UNHEALTHY", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("OK"))
}

type sketchSummary struct {
	Index       int    `json:"index"`
	Depth       int    `json:"depth"`
	Width       int    `json:"width"`
	SizeBytes   int    `json:"size_bytes"`
	ResetPeriod string `json:"reset_period"`
	State       string `json:"state"`
	Profile     string `json:"profile"`
}

func (s *Server) handleSketches(w http.ResponseWriter, _ *http.Request) {
	var entries []*sketchbank.Entry
	if s.bank != nil {
		entries = s.bank.All()
	}
	out := make([]sketchSummary, 0, len(entries))
	for i, e := range entries {
		state := "idle"
		if e.State() == sketchbank.Periodic {
			state = "periodic"
		}
		out = append(out, sketchSummary{
			Index:       i,
			Depth:       e.Sketch.Depth(),
			Width:       e.Sketch.Width(),
			SizeBytes:   e.Sketch.SizeBytes(),
			ResetPeriod: e.ResetPeriod.String(),
			State:       state,
			Profile:     profile.Join(e.Profile),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	idx, err := strconv.Atoi(vars["i"])
	if err != nil {
		http.Error(w, "bad sketch index", http.StatusBadRequest)
		return
	}
	if s.bank == nil {
		http.Error(w, "count_min_sketch is disabled", http.StatusNotFound)
		return
	}
	entry, err := s.bank.Get(idx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	fp := vars["fp"]
	estimate := entry.Sketch.Estimate([]byte(fp))
	fmt.Fprintf(w, "%d\n", estimate)
}
