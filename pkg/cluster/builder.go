package cluster

import (
	"fmt"
	"slices"

	"github.com/ritzau/pangenome/pkg/model"
)

// IDFormat renders the synthetic cluster ID from its 1-based rank
const IDFormat = "OG%07d"

// Builder groups genes into ortholog clusters by graph connectivity
type Builder struct {
	ids   map[model.GeneRef]int32
	refs  []model.GeneRef
	set   *DisjointSet
	edges int
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{
		ids: make(map[model.GeneRef]int32),
		set: NewDisjointSet(0),
	}
}

func (b *Builder) node(ref model.GeneRef) int32 {
	if id, ok := b.ids[ref]; ok {
		return id
	}
	id := b.set.Add()
	b.ids[ref] = id
	b.refs = append(b.refs, ref)
	return id
}

// AddGene registers a gene that may have no ortholog edges.
// Such a gene ends up as a singleton cluster unless an edge joins it later.
func (b *Builder) AddGene(ref model.GeneRef) {
	b.node(ref)
}

// AddEdge joins the clusters of both endpoints. Repeated edges are no-ops.
func (b *Builder) AddEdge(edge model.OrthologEdge) {
	b.set.Union(b.node(edge.A), b.node(edge.B))
	b.edges++
}

// Genes returns the number of distinct genes seen
func (b *Builder) Genes() int {
	return b.set.Len()
}

// Edges returns the number of edges added, duplicates included
func (b *Builder) Edges() int {
	return b.edges
}

// Build returns the clusters. Members are sorted, each cluster's representative
// is its smallest member and IDs are assigned in representative order, so the
// result only depends on the set of genes and connectivity, never on input order.
func (b *Builder) Build() []*model.Cluster {
	byRoot := make(map[int32]int, b.set.Sets())
	clusters := make([]*model.Cluster, 0, b.set.Sets())

	for id, ref := range b.refs {
		root := b.set.Find(int32(id))
		idx, ok := byRoot[root]
		if !ok {
			idx = len(clusters)
			byRoot[root] = idx
			clusters = append(clusters, &model.Cluster{
				Members: make([]model.GeneRef, 0, b.set.SetSize(root)),
			})
		}
		clusters[idx].Members = append(clusters[idx].Members, ref)
	}

	for _, c := range clusters {
		slices.SortFunc(c.Members, model.GeneRef.Compare)
		c.Representative = c.Members[0]
	}
	slices.SortFunc(clusters, func(x, y *model.Cluster) int {
		return x.Representative.Compare(y.Representative)
	})
	for i, c := range clusters {
		c.ID = fmt.Sprintf(IDFormat, i+1)
	}

	return clusters
}

// Build clusters the given edges plus any extra isolated genes
func Build(edges []model.OrthologEdge, genes ...model.GeneRef) []*model.Cluster {
	b := NewBuilder()
	for _, g := range genes {
		b.AddGene(g)
	}
	for _, e := range edges {
		b.AddEdge(e)
	}
	return b.Build()
}
