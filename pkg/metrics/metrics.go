package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registered on the default registry through promauto; served by the web mode on /metrics.
var (
	// Pipeline runs, labeled by outcome ("ok" or "error")
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pangenome_runs_total",
			Help: "Total number of classification runs",
		},
		[]string{"outcome"},
	)

	// Wall time of each pipeline stage
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pangenome_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 120},
		},
		[]string{"stage"},
	)

	// Clusters of the latest run, by label
	Clusters = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pangenome_clusters",
			Help: "Number of ortholog clusters in the latest run",
		},
		[]string{"label"},
	)

	// Size of the latest input
	Edges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pangenome_ortholog_edges",
		Help: "Number of ortholog edges loaded in the latest run",
	})
	Genes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pangenome_genes",
		Help: "Number of distinct genes clustered in the latest run",
	})
	Genomes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pangenome_genomes",
		Help: "Number of genomes in the latest run",
	})

	// HTTP requests served by the web mode
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pangenome_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)
)
