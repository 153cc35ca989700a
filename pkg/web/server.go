package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ritzau/pangenome/pkg/analysis"
	"github.com/ritzau/pangenome/pkg/logging"
	"github.com/ritzau/pangenome/pkg/metrics"
	"github.com/ritzau/pangenome/pkg/model"
	"github.com/ritzau/pangenome/pkg/pubsub"
	"github.com/ritzau/pangenome/pkg/summary"
)

var log = logging.New("web")

// ClusterView is a cluster together with its table row
type ClusterView struct {
	*model.Cluster
	Label   model.Label    `json:"label"`
	Genomes []model.Genome `json:"genomes"`
}

// SummaryResponse describes the latest run
type SummaryResponse struct {
	RunID      string         `json:"run_id"`
	Started    time.Time      `json:"started"`
	DurationMs int64          `json:"duration_ms"`
	Edges      int            `json:"edges"`
	Genes      int            `json:"genes"`
	Genomes    []model.Genome `json:"genomes"`
	Clusters   int            `json:"clusters"`
	Core       int            `json:"core"`
	Accessory  int            `json:"accessory"`
	Unique     int            `json:"unique"`
}

// VennResponse carries the seven Venn regions of a three-genome run
type VennResponse struct {
	Genomes [3]model.Genome `json:"genomes"`
	Labels  [7]string       `json:"labels"`  // Region names in Regions order
	Regions [7]int          `json:"regions"` // X, Y, Z, XY, XZ, YZ, XYZ
	Subsets [7]int          `json:"subsets"` // Plotting order: Abc, aBc, ABc, abC, AbC, aBC, ABC
	Total   int             `json:"total"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	publisher pubsub.Publisher

	mu     sync.RWMutex
	result *analysis.Result
}

// NewServer creates a new web server
func NewServer() *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// Late subscribers only need the current state
	ssePublisher.ConfigureTopic(pubsub.TopicStatus, pubsub.TopicConfig{BufferSize: 10})
	ssePublisher.ConfigureTopic(pubsub.TopicResult, pubsub.TopicConfig{BufferSize: 1})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: ssePublisher,
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler with request logging applied
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

// SetResult replaces the result served by the API and announces it
func (s *Server) SetResult(res *analysis.Result) {
	s.mu.Lock()
	s.result = res
	s.mu.Unlock()

	if res == nil {
		return
	}
	summary := pubsub.RunSummary{
		RunID:     res.RunID,
		Genomes:   res.Universe.Len(),
		Clusters:  len(res.Clusters),
		Core:      res.Bars.Core,
		Accessory: res.Bars.Accessory,
		Unique:    res.Bars.Unique,
	}
	if err := s.publisher.Publish(pubsub.TopicResult, "complete", summary); err != nil {
		log.Warn("failed to publish result", "error", err)
	}
}

// Result returns the result currently served
func (s *Server) Result() *analysis.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// PublishStatus publishes a pipeline status event
func (s *Server) PublishStatus(state, message string, step, total int) error {
	status := pubsub.Status{
		State:   state,
		Message: message,
		Step:    step,
		Total:   total,
	}
	return s.publisher.Publish(pubsub.TopicStatus, state, status)
}

// Close ends all event streams
func (s *Server) Close() error {
	return s.publisher.Close()
}

func (s *Server) setupRoutes() {
	s.router.Use(countRequests)

	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/{topic:status|result}", s.handleSubscribe).Methods("GET")

	// API routes
	s.router.HandleFunc("/api/summary", s.withResult(s.handleSummary)).Methods("GET")
	s.router.HandleFunc("/api/table", s.withResult(s.handleTable)).Methods("GET")
	s.router.HandleFunc("/api/bars", s.withResult(s.handleBars)).Methods("GET")
	s.router.HandleFunc("/api/upset", s.withResult(s.handleUpSet)).Methods("GET")
	s.router.HandleFunc("/api/venn", s.withResult(s.handleVenn)).Methods("GET")
	s.router.HandleFunc("/api/clusters/{id}", s.withResult(s.handleCluster)).Methods("GET")
	s.router.HandleFunc("/api/clusters/{id}/graph", s.withResult(s.handleClusterGraph)).Methods("GET")

	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// countRequests records every routed request by its route template
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tmpl, err := cr.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

type resultHandler func(w http.ResponseWriter, r *http.Request, res *analysis.Result)

// withResult answers 503 until the first run has finished
func (s *Server) withResult(h resultHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := s.Result()
		if res == nil {
			writeError(w, http.StatusServiceUnavailable, errors.New("analysis not ready"))
			return
		}
		h(w, r, res)
	}
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}

	// Initial comment establishes the stream before the first event
	fmt.Fprintf(w, ": connected\n\n")
	flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				log.Debug("client stream closed", "topic", topic, "error", err)
				return
			}
			flush()
		}
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	writeJSON(w, http.StatusOK, SummaryResponse{
		RunID:      res.RunID,
		Started:    res.Started,
		DurationMs: res.Duration.Milliseconds(),
		Edges:      res.Edges,
		Genes:      res.Genes,
		Genomes:    res.Universe.Genomes(),
		Clusters:   len(res.Clusters),
		Core:       res.Bars.Core,
		Accessory:  res.Bars.Accessory,
		Unique:     res.Bars.Unique,
	})
}

// handleTable serves the classification table, optionally filtered by ?label=
// and rendered in ?format= (json by default)
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	table := res.Table
	if label := r.URL.Query().Get("label"); label != "" {
		if !isLabel(model.Label(label)) {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown label %q", label))
			return
		}
		table = &summary.Table{Genomes: table.Genomes, Rows: table.Filter(model.Label(label))}
	}

	format := summary.FormatJSON
	if f := r.URL.Query().Get("format"); f != "" {
		var err error
		if format, err = summary.ParseFormat(f); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	switch format {
	case summary.FormatCSV:
		w.Header().Set("Content-Type", "text/csv")
	case summary.FormatYAML:
		w.Header().Set("Content-Type", "application/yaml")
	default:
		w.Header().Set("Content-Type", "application/json")
	}
	if err := table.Write(w, format); err != nil {
		log.Warn("failed to write table", "format", format, "error", err)
	}
}

func (s *Server) handleBars(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	writeJSON(w, http.StatusOK, res.Bars)
}

func (s *Server) handleUpSet(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	writeJSON(w, http.StatusOK, res.UpSet)
}

func (s *Server) handleVenn(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	if res.Venn == nil {
		var unsupported *model.UnsupportedGenomeCountError
		if errors.As(res.VennErr, &unsupported) {
			writeError(w, http.StatusUnprocessableEntity, unsupported)
			return
		}
		writeError(w, http.StatusInternalServerError, errors.New("venn decomposition unavailable"))
		return
	}

	writeJSON(w, http.StatusOK, VennResponse{
		Genomes: res.Venn.Genomes,
		Labels:  res.Venn.RegionLabels(),
		Regions: res.Venn.Regions(),
		Subsets: res.Venn.Subsets(),
		Total:   res.Venn.Total(),
	})
}

func (s *Server) handleCluster(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	id := mux.Vars(r)["id"]
	c, ok := res.FindCluster(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("cluster %s not found", id))
		return
	}
	row, _ := res.Table.Find(id)
	writeJSON(w, http.StatusOK, ClusterView{Cluster: c, Label: row.Label, Genomes: row.Genomes})
}

func (s *Server) handleClusterGraph(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	id := mux.Vars(r)["id"]
	c, ok := res.FindCluster(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("cluster %s not found", id))
		return
	}
	if res.Graph == nil {
		writeError(w, http.StatusNotFound, errors.New("ortholog graph was not kept for this run"))
		return
	}
	writeJSON(w, http.StatusOK, res.Graph.Subgraph(c))
}

func isLabel(l model.Label) bool {
	for _, known := range model.Labels {
		if l == known {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// shutdownTimeout bounds how long in-flight requests may take to finish
const shutdownTimeout = 5 * time.Second

// Start listens on the port and serves until ctx is cancelled
func (s *Server) Start(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	log.Info("Starting web server", "url", fmt.Sprintf("http://localhost%s", addr))
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully:
// SSE streams are ended first so that Shutdown does not wait on them.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down web server")
	if err := s.Close(); err != nil {
		log.Warn("failed to close publisher", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down web server: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
