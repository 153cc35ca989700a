package web

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ritzau/pangenome/pkg/analysis"
	"github.com/ritzau/pangenome/pkg/combinatorics"
	"github.com/ritzau/pangenome/pkg/model"
)

func ref(genome, gene string) model.GeneRef {
	return model.GeneRef{Genome: model.Genome(genome), Gene: gene}
}

func result(t *testing.T, genomes ...model.Genome) *analysis.Result {
	t.Helper()
	edges := []model.OrthologEdge{
		{A: ref("G1", "a"), B: ref("G2", "x"), Score: 0.7},
		{A: ref("G2", "x"), B: ref("G3", "q"), Score: 0.8},
		{A: ref("G1", "b"), B: ref("G2", "y"), Score: 0.9},
	}
	var genes []model.GeneRef
	if len(genomes) == 3 {
		genes = append(genes, ref("G3", "r"))
	}
	res, err := analysis.Analyze(context.Background(), edges, genes, analysis.Options{Genomes: genomes, KeepGraph: true}, nil)
	if err != nil {
		t.Fatalf("Analyze() unexpected error: %v", err)
	}
	return res
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
}

func TestNotReady(t *testing.T) {
	s := NewServer()
	defer s.Close()

	rec := get(t, s.Handler(), "/api/summary")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 before the first run", rec.Code)
	}
}

func TestSummaryAndBars(t *testing.T) {
	s := NewServer()
	defer s.Close()
	s.SetResult(result(t, "G1", "G2", "G3"))
	h := s.Handler()

	rec := get(t, h, "/api/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var summary SummaryResponse
	decode(t, rec, &summary)
	if summary.Clusters != 3 || summary.Core != 1 || summary.Accessory != 1 || summary.Unique != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if len(summary.Genomes) != 3 || summary.RunID != "" {
		t.Errorf("unexpected summary %+v", summary)
	}

	var bars combinatorics.BarSummary
	decode(t, get(t, h, "/api/bars"), &bars)
	if bars.Total() != 3 || len(bars.UniquePerGenome) != 3 || bars.UniquePerGenome[2].Count != 1 {
		t.Errorf("unexpected bars %+v", bars)
	}

	var upset []combinatorics.PatternCount
	decode(t, get(t, h, "/api/upset"), &upset)
	if len(upset) != 3 {
		t.Errorf("unexpected upset %+v", upset)
	}
}

func TestVenn(t *testing.T) {
	s := NewServer()
	defer s.Close()
	s.SetResult(result(t, "G1", "G2", "G3"))

	rec := get(t, s.Handler(), "/api/venn")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var venn VennResponse
	decode(t, rec, &venn)
	if venn.Regions != [7]int{0, 0, 1, 1, 0, 0, 1} || venn.Total != 3 {
		t.Errorf("unexpected venn %+v", venn)
	}
	if venn.Labels[6] != "G1∩G2∩G3" {
		t.Errorf("unexpected labels %v", venn.Labels)
	}
}

func TestVennUnsupportedGenomeCount(t *testing.T) {
	s := NewServer()
	defer s.Close()
	s.SetResult(result(t, "G1", "G2", "G3", "G4"))

	rec := get(t, s.Handler(), "/api/venn")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "exactly 3 genomes") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestClusterRoutes(t *testing.T) {
	s := NewServer()
	defer s.Close()
	s.SetResult(result(t, "G1", "G2", "G3"))
	h := s.Handler()

	rec := get(t, h, "/api/clusters/OG0000001")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var view struct {
		ID      string          `json:"id"`
		Members []model.GeneRef `json:"members"`
		Label   model.Label     `json:"label"`
	}
	decode(t, rec, &view)
	if view.ID != "OG0000001" || view.Label != model.LabelCore || len(view.Members) != 3 {
		t.Errorf("unexpected cluster %+v", view)
	}

	var graph model.Graph
	decode(t, get(t, h, "/api/clusters/OG0000001/graph"), &graph)
	if len(graph.Nodes) != 3 || len(graph.Edges) != 2 {
		t.Errorf("unexpected graph: %d nodes, %d edges", len(graph.Nodes), len(graph.Edges))
	}

	if rec := get(t, h, "/api/clusters/OG0000099"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for an unknown cluster", rec.Code)
	}
}

func TestTable(t *testing.T) {
	s := NewServer()
	defer s.Close()
	s.SetResult(result(t, "G1", "G2", "G3"))
	h := s.Handler()

	rec := get(t, h, "/api/table?format=csv&label=Unique")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	want := "cluster_id,label,genomes,size\nOG0000003,Unique,G3,1\n"
	if rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}

	if rec := get(t, h, "/api/table?label=Rare"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for an unknown label", rec.Code)
	}
	if rec := get(t, h, "/api/table?format=xml"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for an unknown format", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	s := NewServer()
	defer s.Close()
	h := s.Handler()

	get(t, h, "/api/summary")
	rec := get(t, h, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `pangenome_http_requests_total{method="GET",route="/api/summary",status="503"}`) {
		t.Error("request counter missing from /metrics")
	}
}

func TestSubscribeStatus(t *testing.T) {
	s := NewServer()
	defer s.Close()

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Published before subscribing: replayed as the current state
	if err := s.PublishStatus("clustering", "Building ortholog clusters...", 2, 5); err != nil {
		t.Fatalf("PublishStatus() error: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/subscribe/status", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	data := nextData(t, reader)
	if !strings.Contains(data, `"state":"clustering"`) || !strings.Contains(data, `"step":2`) {
		t.Errorf("unexpected first event %s", data)
	}

	if err := s.PublishStatus("ready", "Analysis complete", 5, 5); err != nil {
		t.Fatalf("PublishStatus() error: %v", err)
	}
	if data := nextData(t, reader); !strings.Contains(data, `"state":"ready"`) {
		t.Errorf("unexpected live event %s", data)
	}
}

// nextData returns the payload of the next "data:" line of an SSE stream
func nextData(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err == io.EOF {
			t.Fatal("stream ended")
		}
		if err != nil {
			t.Fatalf("reading stream: %v", err)
		}
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			return data
		}
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := NewServer()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx, ln) }()

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer reqCancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, "http://"+ln.Addr().String()+"/api/subscribe/status", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	if line, err := reader.ReadString('\n'); err != nil || !strings.HasPrefix(line, ": connected") {
		t.Fatalf("expected the stream preamble, got %q, %v", line, err)
	}

	cancel()

	select {
	case err := <-served:
		if err != nil {
			t.Errorf("Serve() unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	// The open stream ends instead of being cut off by the timeout
	if _, err := io.ReadAll(reader); err != nil {
		t.Errorf("stream ended with error: %v", err)
	}
}
