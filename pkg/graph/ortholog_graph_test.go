package graph

import (
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/ritzau/pangenome/pkg/cluster"
	"github.com/ritzau/pangenome/pkg/model"
)

func ref(genome, gene string) model.GeneRef {
	return model.GeneRef{Genome: model.Genome(genome), Gene: gene}
}

func TestOrthologGraph_ParallelEdgesKeepBestScore(t *testing.T) {
	og := BuildOrthologGraph([]model.OrthologEdge{
		{A: ref("G1", "a"), B: ref("G2", "x"), Score: 0.4},
		{A: ref("G2", "x"), B: ref("G1", "a"), Score: 0.9},
		{A: ref("G1", "a"), B: ref("G2", "x"), Score: 0.1},
		{A: ref("G1", "a"), B: ref("G1", "a"), Score: 1},
	})

	if og.EdgeCount() != 1 {
		t.Fatalf("EdgeCount() = %d, want 1", og.EdgeCount())
	}

	c := &model.Cluster{ID: "OG0000001", Members: []model.GeneRef{ref("G1", "a"), ref("G2", "x")}}
	sub := og.Subgraph(c)
	if len(sub.Nodes) != 2 {
		t.Errorf("Expected 2 nodes, got %d", len(sub.Nodes))
	}
	if len(sub.Edges) != 1 {
		t.Fatalf("Expected 1 edge, got %d", len(sub.Edges))
	}
	e := sub.Edges[0]
	if e.Source != "G1|a" || e.Target != "G2|x" || e.Score != 0.9 {
		t.Errorf("Unexpected edge %+v", *e)
	}
	if n := sub.Nodes["G2|x"]; n == nil || n.Genome != "G2" || n.Label != "x" {
		t.Errorf("Unexpected node %+v", n)
	}
}

func TestOrthologGraph_Orthologs(t *testing.T) {
	og := BuildOrthologGraph([]model.OrthologEdge{
		{A: ref("G1", "a"), B: ref("G3", "q"), Score: 1},
		{A: ref("G1", "a"), B: ref("G2", "x"), Score: 1},
	}, ref("G1", "b"))

	got := og.Orthologs(ref("G1", "a"))
	want := []model.GeneRef{ref("G2", "x"), ref("G3", "q")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Orthologs() = %v, want %v", got, want)
	}
	if og.Orthologs(ref("G1", "b")) != nil {
		t.Error("isolated gene should have no orthologs")
	}
	if !og.HasGene(ref("G1", "b")) || og.HasGene(ref("G9", "b")) {
		t.Error("HasGene mismatch")
	}
	if og.GeneCount() != 4 {
		t.Errorf("GeneCount() = %d, want 4", og.GeneCount())
	}
}

func TestComponentsMatchClusters(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	genomes := []string{"G1", "G2", "G3"}

	var edges []model.OrthologEdge
	for i := 0; i < 300; i++ {
		edges = append(edges, model.OrthologEdge{
			A:     ref(genomes[rng.IntN(3)], string(rune('a'+rng.IntN(40)))),
			B:     ref(genomes[rng.IntN(3)], string(rune('a'+rng.IntN(40)))),
			Score: rng.Float64(),
		})
	}
	isolated := []model.GeneRef{ref("G1", "~solo"), ref("G3", "~solo")}

	og := BuildOrthologGraph(edges, isolated...)
	components := og.Components()
	clusters := cluster.Build(edges, isolated...)

	if len(components) != len(clusters) {
		t.Fatalf("gonum found %d components, union-find %d clusters", len(components), len(clusters))
	}
	for i, c := range clusters {
		if !reflect.DeepEqual(components[i], c.Members) {
			t.Errorf("component %d = %v, cluster %s = %v", i, components[i], c.ID, c.Members)
		}
	}
	if err := og.CheckClusters(clusters); err != nil {
		t.Errorf("CheckClusters() unexpected error: %v", err)
	}
}

func TestCheckClustersDetectsMismatch(t *testing.T) {
	edges := []model.OrthologEdge{
		{A: ref("G1", "a"), B: ref("G2", "x"), Score: 1},
		{A: ref("G2", "x"), B: ref("G3", "q"), Score: 1},
	}
	og := BuildOrthologGraph(edges, ref("G1", "b"))

	tests := []struct {
		name     string
		clusters []*model.Cluster
	}{
		{
			name: "split component",
			clusters: []*model.Cluster{
				{ID: "OG0000001", Members: []model.GeneRef{ref("G1", "a"), ref("G2", "x")}},
				{ID: "OG0000002", Members: []model.GeneRef{ref("G1", "b")}},
			},
		},
		{
			name: "unknown member",
			clusters: []*model.Cluster{
				{ID: "OG0000001", Members: []model.GeneRef{ref("G1", "a"), ref("G2", "x"), ref("G3", "q")}},
				{ID: "OG0000002", Members: []model.GeneRef{ref("G9", "b")}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := og.CheckClusters(tt.clusters); err == nil {
				t.Error("CheckClusters() expected an error")
			}
		})
	}

	if err := og.CheckClusters(cluster.Build(edges, ref("G1", "b"))); err != nil {
		t.Errorf("CheckClusters() unexpected error: %v", err)
	}
}
