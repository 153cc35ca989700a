package model

import (
	"cmp"
	"fmt"
	"strings"
)

// Genome names one input genome or assembly
type Genome string

// Label is the pangenome category assigned to a cluster
type Label string

const (
	LabelCore      Label = "Core"      // Present in every genome
	LabelAccessory Label = "Accessory" // Present in two or more, but not all, genomes
	LabelUnique    Label = "Unique"    // Present in exactly one genome
)

// Labels lists the labels in summary table order
var Labels = []Label{LabelCore, LabelAccessory, LabelUnique}

// GeneRef identifies a gene inside its genome's namespace.
// Gene IDs are only unique within one genome, so both parts are always carried together.
type GeneRef struct {
	Genome Genome `json:"genome"`
	Gene   string `json:"gene"`
}

// String renders the composite "genome|gene" form used in ortholog tables
func (g GeneRef) String() string {
	return string(g.Genome) + "|" + g.Gene
}

// Less orders gene refs by genome, then by gene ID
func (g GeneRef) Less(o GeneRef) bool {
	if g.Genome != o.Genome {
		return g.Genome < o.Genome
	}
	return g.Gene < o.Gene
}

// Compare returns -1, 0 or +1 following Less
func (g GeneRef) Compare(o GeneRef) int {
	if c := strings.Compare(string(g.Genome), string(o.Genome)); c != 0 {
		return c
	}
	return strings.Compare(g.Gene, o.Gene)
}

// ParseGeneRef splits a "genome|gene" token at the first '|'.
// Both parts must be non-empty; the gene part may itself contain '|'.
func ParseGeneRef(token string) (GeneRef, error) {
	genome, gene, ok := strings.Cut(token, "|")
	if !ok {
		return GeneRef{}, fmt.Errorf("token %q is not of the form genome|gene", token)
	}
	genome = strings.TrimSpace(genome)
	gene = strings.TrimSpace(gene)
	if genome == "" || gene == "" {
		return GeneRef{}, fmt.Errorf("token %q has an empty genome or gene part", token)
	}
	return GeneRef{Genome: Genome(genome), Gene: gene}, nil
}

// OrthologEdge is an undirected putative orthology call between two genes.
// Score is kept for provenance only; clustering depends on connectivity alone.
type OrthologEdge struct {
	A     GeneRef `json:"a"`
	B     GeneRef `json:"b"`
	Score float64 `json:"score"`
}

// Cluster is a maximal connected set of genes (a gene family)
type Cluster struct {
	ID             string    `json:"id"`             // Synthetic ID, e.g. "OG0000001"
	Representative GeneRef   `json:"representative"` // Smallest member
	Members        []GeneRef `json:"members"`        // Sorted by GeneRef.Less
}

// Size returns the number of member genes
func (c *Cluster) Size() int {
	return len(c.Members)
}

// CompareClusterIDs orders cluster IDs by rank. Zero padding has a fixed
// width, so once a rank outgrows it the longer ID is the later one.
func CompareClusterIDs(a, b string) int {
	return cmp.Or(cmp.Compare(len(a), len(b)), strings.Compare(a, b))
}

// PresenceVector records, per genome in run order, whether a cluster has a member there
type PresenceVector struct {
	ClusterID string `json:"cluster_id"`
	Present   []bool `json:"present"`
}

// Count returns the number of genomes the cluster is present in
func (p PresenceVector) Count() int {
	n := 0
	for _, v := range p.Present {
		if v {
			n++
		}
	}
	return n
}

// Pattern reduces the vector to its grouping key
func (p PresenceVector) Pattern() PresencePattern {
	return NewPresencePattern(p.Present)
}

// PresencePattern is an ordered presence tuple encoded as '0'/'1' characters.
// The string form keeps it usable as a map key and sorts lexicographically
// with absent before present.
type PresencePattern string

// NewPresencePattern encodes a presence tuple
func NewPresencePattern(present []bool) PresencePattern {
	b := make([]byte, len(present))
	for i, v := range present {
		if v {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return PresencePattern(b)
}

// Bools decodes the pattern back to a presence tuple
func (p PresencePattern) Bools() []bool {
	out := make([]bool, len(p))
	for i := 0; i < len(p); i++ {
		out[i] = p[i] == '1'
	}
	return out
}

// Genomes returns the genomes marked present, in pattern order
func (p PresencePattern) Genomes(order []Genome) []Genome {
	var out []Genome
	for i := 0; i < len(p) && i < len(order); i++ {
		if p[i] == '1' {
			out = append(out, order[i])
		}
	}
	return out
}
