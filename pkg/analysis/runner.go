package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ritzau/pangenome/pkg/classify"
	"github.com/ritzau/pangenome/pkg/cluster"
	"github.com/ritzau/pangenome/pkg/combinatorics"
	"github.com/ritzau/pangenome/pkg/graph"
	"github.com/ritzau/pangenome/pkg/inventory"
	"github.com/ritzau/pangenome/pkg/logging"
	"github.com/ritzau/pangenome/pkg/metrics"
	"github.com/ritzau/pangenome/pkg/model"
	"github.com/ritzau/pangenome/pkg/orthologs"
	"github.com/ritzau/pangenome/pkg/presence"
	"github.com/ritzau/pangenome/pkg/summary"
)

const totalSteps = 5

// EdgeLoader provides the ortholog edges of a run
type EdgeLoader interface {
	Load(ctx context.Context, path string) ([]model.OrthologEdge, error)
}

// GeneLoader provides genes listed per genome, including ones without orthologs
type GeneLoader interface {
	LoadAll(specs []inventory.Spec, opts inventory.Options) ([]model.GeneRef, error)
}

type inventoryLoader struct{}

func (inventoryLoader) LoadAll(specs []inventory.Spec, opts inventory.Options) ([]model.GeneRef, error) {
	return inventory.LoadAll(specs, opts)
}

// StatusPublisher receives progress updates; the web server implements it
type StatusPublisher interface {
	PublishStatus(state, message string, step, total int) error
}

// Options configures one run. Everything a run reads is named here.
type Options struct {
	Orthologs string            // Ortholog table path
	Genomes   []model.Genome    // Declared universe; derived from the input when empty
	GeneLists []inventory.Spec  // Optional per-genome gene lists
	Inventory inventory.Options // Gene list parsing options
	Workers   int               // Presence matrix parallelism
	KeepGraph bool              // Also build the gonum ortholog graph (for cluster views)
	Reason    string            // e.g. "initial analysis", "input changed"
}

// Result is everything one run derives from its inputs
type Result struct {
	RunID          string
	Started        time.Time
	Duration       time.Duration
	Edges          int
	Genes          int
	Universe       *presence.Universe
	Clusters       []*model.Cluster
	Matrix         *presence.Matrix
	Classification *classify.Classification
	Bars           combinatorics.BarSummary
	UpSet          []combinatorics.PatternCount
	Venn           *combinatorics.Venn3 // nil unless the universe has exactly 3 genomes
	VennErr        error                // Why Venn is nil; never fatal
	Table          *summary.Table
	Graph          *graph.OrthologGraph // nil unless Options.KeepGraph
}

// FindCluster returns a cluster by ID
func (r *Result) FindCluster(id string) (*model.Cluster, bool) {
	for _, c := range r.Clusters {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Runner orchestrates the pipeline: load, cluster, presence, classify, report
type Runner struct {
	edges  EdgeLoader
	genes  GeneLoader
	status StatusPublisher
	mu     sync.Mutex // Prevent concurrent runs
}

// NewRunner creates a runner reading from the local filesystem.
// status may be nil.
func NewRunner(status StatusPublisher) *Runner {
	return &Runner{
		edges:  orthologs.NewSource(),
		genes:  inventoryLoader{},
		status: status,
	}
}

func (r *Runner) publish(state, message string, step int) {
	if r.status == nil {
		return
	}
	if err := r.status.PublishStatus(state, message, step, totalSteps); err != nil {
		logging.Warn("failed to publish status", "state", state, "error", err)
	}
}

// Run executes the whole pipeline from scratch
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runID := uuid.New().String()
	ctx = logging.WithRunID(ctx, runID)
	started := time.Now()

	logging.InfoContext(ctx, "starting analysis", "reason", opts.Reason, "orthologs", opts.Orthologs)

	res, err := r.run(ctx, opts)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		r.publish("error", err.Error(), 0)
		logging.ErrorContext(ctx, "analysis failed", "error", err)
		return nil, err
	}

	res.RunID = runID
	res.Started = started
	res.Duration = time.Since(started)
	metrics.RunsTotal.WithLabelValues("ok").Inc()
	r.publish("ready", "Analysis complete", totalSteps)
	logging.InfoContext(ctx, "analysis complete",
		"clusters", len(res.Clusters),
		"core", res.Bars.Core,
		"accessory", res.Bars.Accessory,
		"unique", res.Bars.Unique,
		"durationMs", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (r *Runner) run(ctx context.Context, opts Options) (*Result, error) {
	// Phase 1: inputs
	r.publish("loading", "Loading ortholog table...", 1)
	logging.InfoContext(ctx, "[1/5] Loading inputs...")
	done := stage("load")
	edges, err := r.edges.Load(ctx, opts.Orthologs)
	if err != nil {
		return nil, fmt.Errorf("loading orthologs: %w", err)
	}
	var genes []model.GeneRef
	if len(opts.GeneLists) > 0 {
		genes, err = r.genes.LoadAll(opts.GeneLists, opts.Inventory)
		if err != nil {
			return nil, fmt.Errorf("loading gene lists: %w", err)
		}
		logging.InfoContext(ctx, "[1/5] Loaded gene lists", "lists", len(opts.GeneLists), "genes", len(genes))
	}
	done()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Analyze(ctx, edges, genes, opts, r.publish)
}

// Analyze runs the pure part of the pipeline on already loaded inputs.
// publish may be nil.
func Analyze(ctx context.Context, edges []model.OrthologEdge, genes []model.GeneRef, opts Options, publish func(state, message string, step int)) (*Result, error) {
	if publish == nil {
		publish = func(string, string, int) {}
	}

	universe, err := resolveUniverse(edges, genes, opts.Genomes)
	if err != nil {
		return nil, err
	}
	if universe.Len() == 0 {
		return nil, errors.New("no genomes: the ortholog table and gene lists are empty")
	}

	// Phase 2: clustering
	publish("clustering", "Building ortholog clusters...", 2)
	logging.InfoContext(ctx, "[2/5] Clustering", "edges", len(edges), "genes", len(genes))
	done := stage("cluster")
	builder := cluster.NewBuilder()
	for _, g := range genes {
		builder.AddGene(g)
	}
	for _, e := range edges {
		builder.AddEdge(e)
	}
	clusters := builder.Build()
	done()
	logging.InfoContext(ctx, "[2/5] Built clusters", "clusters", len(clusters), "genes", builder.Genes())

	var og *graph.OrthologGraph
	if opts.KeepGraph {
		og = graph.BuildOrthologGraph(edges, genes...)
		logging.DebugContext(ctx, "[2/5] Built ortholog graph", "genes", og.GeneCount(), "pairs", og.EdgeCount())
		if logging.DebugEnabled(ctx) {
			if err := og.CheckClusters(clusters); err != nil {
				return nil, fmt.Errorf("clusters disagree with graph components: %w", err)
			}
		}
	}

	// Phase 3: presence
	publish("presence", "Computing presence vectors...", 3)
	logging.InfoContext(ctx, "[3/5] Computing presence", "genomes", universe.Len())
	done = stage("presence")
	matrix, err := presence.Build(ctx, universe, clusters, presence.Options{Workers: opts.Workers})
	done()
	if err != nil {
		return nil, fmt.Errorf("building presence matrix: %w", err)
	}

	// Phase 4: classification and combinatorics
	publish("classifying", "Classifying clusters...", 4)
	done = stage("classify")
	classification, err := classify.Classify(matrix)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Edges:          len(edges),
		Genes:          builder.Genes(),
		Universe:       universe,
		Clusters:       clusters,
		Matrix:         matrix,
		Classification: classification,
		Bars:           combinatorics.Bars(classification),
		UpSet:          combinatorics.UpSet(matrix),
		Graph:          og,
	}
	if venn, err := combinatorics.Venn(matrix); err != nil {
		res.VennErr = err
		logging.DebugContext(ctx, "[4/5] Venn decomposition skipped", "reason", err)
	} else {
		res.Venn = &venn
	}
	done()
	logging.InfoContext(ctx, "[4/5] Classified clusters",
		"core", res.Bars.Core, "accessory", res.Bars.Accessory, "unique", res.Bars.Unique,
		"patterns", len(res.UpSet))

	// Phase 5: summary table
	publish("summarizing", "Building summary table...", 5)
	done = stage("summary")
	res.Table = summary.Build(classification)
	done()

	recordGauges(res)
	return res, nil
}

func resolveUniverse(edges []model.OrthologEdge, genes []model.GeneRef, declared []model.Genome) (*presence.Universe, error) {
	if len(declared) > 0 {
		u, err := presence.NewUniverse(declared)
		if err != nil {
			return nil, fmt.Errorf("declared genomes: %w", err)
		}
		return u, nil
	}
	return presence.DeriveUniverse(edges, genes), nil
}

func stage(name string) func() {
	start := time.Now()
	return func() {
		metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}

func recordGauges(res *Result) {
	metrics.Edges.Set(float64(res.Edges))
	metrics.Genes.Set(float64(res.Genes))
	metrics.Genomes.Set(float64(res.Universe.Len()))
	metrics.Clusters.WithLabelValues(string(model.LabelCore)).Set(float64(res.Bars.Core))
	metrics.Clusters.WithLabelValues(string(model.LabelAccessory)).Set(float64(res.Bars.Accessory))
	metrics.Clusters.WithLabelValues(string(model.LabelUnique)).Set(float64(res.Bars.Unique))
}
