package presence

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/ritzau/pangenome/pkg/model"
)

func ref(genome, gene string) model.GeneRef {
	return model.GeneRef{Genome: model.Genome(genome), Gene: gene}
}

func universe(t *testing.T, genomes ...model.Genome) *Universe {
	t.Helper()
	u, err := NewUniverse(genomes)
	if err != nil {
		t.Fatalf("NewUniverse() unexpected error: %v", err)
	}
	return u
}

func TestNewUniverse(t *testing.T) {
	u := universe(t, "G3", "G1", "G2")
	if got := u.Genomes(); !reflect.DeepEqual(got, []model.Genome{"G3", "G1", "G2"}) {
		t.Errorf("declared order not kept: %v", got)
	}
	if i, ok := u.Index("G1"); !ok || i != 1 {
		t.Errorf("Index(G1) = %d %v, want 1 true", i, ok)
	}
	if u.Contains("G4") {
		t.Error("G4 should not be in the universe")
	}

	if _, err := NewUniverse([]model.Genome{"G1", "G1"}); err == nil {
		t.Error("expected error for duplicate genome")
	}
	if _, err := NewUniverse([]model.Genome{""}); err == nil {
		t.Error("expected error for empty genome")
	}
}

func TestDeriveUniverse(t *testing.T) {
	edges := []model.OrthologEdge{
		{A: ref("G3", "a"), B: ref("G1", "x")},
		{A: ref("G1", "b"), B: ref("G3", "y")},
	}
	u := DeriveUniverse(edges, []model.GeneRef{ref("G2", "z")})

	if got := u.Genomes(); !reflect.DeepEqual(got, []model.Genome{"G1", "G2", "G3"}) {
		t.Errorf("DeriveUniverse() = %v, want sorted G1 G2 G3", got)
	}
}

func TestVector(t *testing.T) {
	u := universe(t, "G1", "G2", "G3")
	c := &model.Cluster{ID: "OG0000001", Members: []model.GeneRef{ref("G1", "a"), ref("G1", "b"), ref("G3", "q")}}

	pv, err := Vector(u, c)
	if err != nil {
		t.Fatalf("Vector() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(pv.Present, []bool{true, false, true}) {
		t.Errorf("Present = %v, want [true false true]", pv.Present)
	}
	if pv.ClusterID != "OG0000001" {
		t.Errorf("ClusterID = %q", pv.ClusterID)
	}

	if _, err := Vector(u, &model.Cluster{ID: "OG0000002"}); err == nil {
		t.Error("expected error for a cluster with no members")
	}
}

func TestBuildUnknownGenome(t *testing.T) {
	u := universe(t, "G1", "G2")
	clusters := []*model.Cluster{
		{ID: "OG0000001", Members: []model.GeneRef{ref("G1", "a")}},
		{ID: "OG0000002", Members: []model.GeneRef{ref("G1", "b"), ref("G9", "x")}},
		{ID: "OG0000003", Members: []model.GeneRef{ref("G8", "y")}},
	}

	// Same error whatever the scheduling
	for _, workers := range []int{1, 2, 8} {
		_, err := Build(context.Background(), u, clusters, Options{Workers: workers})

		var unknown *model.UnknownGenomeError
		if !errors.As(err, &unknown) {
			t.Fatalf("workers=%d: error = %v, want UnknownGenomeError", workers, err)
		}
		if unknown.Genome != "G9" || unknown.ClusterID != "OG0000002" || unknown.Gene != ref("G9", "x") {
			t.Errorf("workers=%d: got %+v", workers, unknown)
		}
	}
}

func TestBuildParallelMatchesSequential(t *testing.T) {
	u := universe(t, "G1", "G2", "G3", "G4")
	genomes := u.Genomes()

	clusters := make([]*model.Cluster, 3*chunkSize+17)
	for i := range clusters {
		var members []model.GeneRef
		for g, genome := range genomes {
			if i%(g+2) == 0 || g == i%len(genomes) {
				members = append(members, ref(string(genome), fmt.Sprintf("g%d", i)))
			}
		}
		clusters[i] = &model.Cluster{ID: fmt.Sprintf("OG%07d", i+1), Members: members}
	}

	seq, err := Build(context.Background(), u, clusters, Options{Workers: 1})
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	par, err := Build(context.Background(), u, clusters, Options{Workers: 8})
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}

	if seq.Len() != len(clusters) {
		t.Fatalf("Len() = %d, want %d", seq.Len(), len(clusters))
	}
	if !reflect.DeepEqual(seq.Vectors, par.Vectors) {
		t.Error("parallel vectors differ from sequential ones")
	}
	for i, pv := range par.Vectors {
		if pv.ClusterID != clusters[i].ID {
			t.Fatalf("vector %d belongs to %s, want %s", i, pv.ClusterID, clusters[i].ID)
		}
	}
}

func TestBuildCanceled(t *testing.T) {
	u := universe(t, "G1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	clusters := []*model.Cluster{{ID: "OG0000001", Members: []model.GeneRef{ref("G1", "a")}}}
	if _, err := Build(ctx, u, clusters, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}
