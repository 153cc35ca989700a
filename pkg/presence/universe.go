package presence

import (
	"fmt"
	"slices"

	"github.com/ritzau/pangenome/pkg/model"
)

// Universe is the ordered, read-only set of genomes of one run.
// Its order is shared by every presence vector and pattern.
type Universe struct {
	genomes []model.Genome
	index   map[model.Genome]int
}

// NewUniverse declares a universe in the given order. Duplicates are rejected.
func NewUniverse(genomes []model.Genome) (*Universe, error) {
	u := &Universe{
		genomes: make([]model.Genome, 0, len(genomes)),
		index:   make(map[model.Genome]int, len(genomes)),
	}
	for _, g := range genomes {
		if g == "" {
			return nil, fmt.Errorf("empty genome name in universe")
		}
		if _, dup := u.index[g]; dup {
			return nil, fmt.Errorf("genome %q declared twice", g)
		}
		u.index[g] = len(u.genomes)
		u.genomes = append(u.genomes, g)
	}
	return u, nil
}

// DeriveUniverse collects every genome referenced by the edges and extra genes.
// Derived universes are sorted by name so that the order never depends on row order.
func DeriveUniverse(edges []model.OrthologEdge, genes []model.GeneRef) *Universe {
	seen := make(map[model.Genome]bool)
	for _, e := range edges {
		seen[e.A.Genome] = true
		seen[e.B.Genome] = true
	}
	for _, g := range genes {
		seen[g.Genome] = true
	}

	genomes := make([]model.Genome, 0, len(seen))
	for g := range seen {
		genomes = append(genomes, g)
	}
	slices.Sort(genomes)

	u, _ := NewUniverse(genomes)
	return u
}

// Genomes returns the genomes in run order
func (u *Universe) Genomes() []model.Genome {
	return slices.Clone(u.genomes)
}

// Len returns the genome count
func (u *Universe) Len() int {
	return len(u.genomes)
}

// Index returns the position of a genome and whether it is known
func (u *Universe) Index(g model.Genome) (int, bool) {
	i, ok := u.index[g]
	return i, ok
}

// At returns the genome at position i
func (u *Universe) At(i int) model.Genome {
	return u.genomes[i]
}

// Contains reports whether the genome belongs to the universe
func (u *Universe) Contains(g model.Genome) bool {
	_, ok := u.index[g]
	return ok
}
