package combinatorics

import (
	"cmp"
	"slices"

	"github.com/ritzau/pangenome/pkg/model"
	"github.com/ritzau/pangenome/pkg/presence"
)

// PatternCount is one UpSet column: a presence pattern and its cluster count
type PatternCount struct {
	Pattern model.PresencePattern `json:"pattern" yaml:"pattern"`
	Genomes []model.Genome        `json:"genomes" yaml:"genomes"` // Genomes present in the pattern
	Count   int                   `json:"count" yaml:"count"`
}

// UpSet groups clusters by exact presence pattern in a single pass.
// Results are sorted by descending count, ties broken by pattern order
// (absent sorts before present, genome by genome).
func UpSet(m *presence.Matrix) []PatternCount {
	counts := make(map[model.PresencePattern]int)
	for _, pv := range m.Vectors {
		counts[pv.Pattern()]++
	}

	genomes := m.Universe.Genomes()
	out := make([]PatternCount, 0, len(counts))
	for p, n := range counts {
		out = append(out, PatternCount{
			Pattern: p,
			Genomes: p.Genomes(genomes),
			Count:   n,
		})
	}

	slices.SortFunc(out, func(a, b PatternCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Pattern, b.Pattern))
	})
	return out
}
