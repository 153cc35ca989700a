package graph

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/ritzau/pangenome/pkg/model"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// OrthologGraph is the undirected gene graph behind the clusters.
// Parallel ortholog calls collapse into one edge carrying the best score.
type OrthologGraph struct {
	graph *simple.WeightedUndirectedGraph
	ids   map[model.GeneRef]int64 // Map from gene to graph ID
	refs  []model.GeneRef         // Graph ID to gene
}

// NewOrthologGraph creates an empty ortholog graph
func NewOrthologGraph() *OrthologGraph {
	return &OrthologGraph{
		graph: simple.NewWeightedUndirectedGraph(0, 0),
		ids:   make(map[model.GeneRef]int64),
	}
}

// AddGene adds a gene node if it is not already present
func (og *OrthologGraph) AddGene(ref model.GeneRef) int64 {
	if id, exists := og.ids[ref]; exists {
		return id
	}

	id := int64(len(og.refs))
	og.ids[ref] = id
	og.refs = append(og.refs, ref)
	og.graph.AddNode(simple.Node(id))
	return id
}

// AddOrtholog adds an undirected edge between the two genes.
// Self-calls carry no connectivity and are ignored.
func (og *OrthologGraph) AddOrtholog(edge model.OrthologEdge) {
	a := og.AddGene(edge.A)
	b := og.AddGene(edge.B)
	if a == b {
		return
	}

	if existing := og.graph.WeightedEdge(a, b); existing != nil && existing.Weight() >= edge.Score {
		return
	}
	og.graph.SetWeightedEdge(og.graph.NewWeightedEdge(simple.Node(a), simple.Node(b), edge.Score))
}

// HasGene reports whether the gene is in the graph
func (og *OrthologGraph) HasGene(ref model.GeneRef) bool {
	_, exists := og.ids[ref]
	return exists
}

// GeneCount returns the number of gene nodes
func (og *OrthologGraph) GeneCount() int {
	return len(og.refs)
}

// EdgeCount returns the number of distinct gene pairs
func (og *OrthologGraph) EdgeCount() int {
	return og.graph.Edges().Len()
}

// Orthologs returns the direct ortholog partners of a gene, sorted
func (og *OrthologGraph) Orthologs(ref model.GeneRef) []model.GeneRef {
	id, exists := og.ids[ref]
	if !exists {
		return nil
	}

	var partners []model.GeneRef
	iter := og.graph.From(id)
	for iter.Next() {
		partners = append(partners, og.refs[iter.Node().ID()])
	}
	slices.SortFunc(partners, model.GeneRef.Compare)
	return partners
}

// Components returns the connected components as sorted gene sets, ordered
// by their smallest member. It is the gonum counterpart of the union-find
// clustering and yields the same partition.
func (og *OrthologGraph) Components() [][]model.GeneRef {
	ccs := topo.ConnectedComponents(og.graph)

	components := make([][]model.GeneRef, 0, len(ccs))
	for _, cc := range ccs {
		genes := make([]model.GeneRef, 0, len(cc))
		for _, n := range cc {
			genes = append(genes, og.refs[n.ID()])
		}
		slices.SortFunc(genes, model.GeneRef.Compare)
		components = append(components, genes)
	}
	slices.SortFunc(components, func(x, y []model.GeneRef) int {
		return x[0].Compare(y[0])
	})
	return components
}

// CheckClusters verifies that clusters are exactly the connected components
// of the graph, member for member and in the same order.
func (og *OrthologGraph) CheckClusters(clusters []*model.Cluster) error {
	components := og.Components()
	if len(components) != len(clusters) {
		return fmt.Errorf("graph has %d components but there are %d clusters", len(components), len(clusters))
	}
	for i, c := range clusters {
		for _, ref := range c.Members {
			if !og.HasGene(ref) {
				return fmt.Errorf("cluster %s member %s is not in the graph", c.ID, ref)
			}
		}
		if !slices.Equal(components[i], c.Members) {
			return fmt.Errorf("cluster %s has %d members, component %d has %d", c.ID, len(c.Members), i, len(components[i]))
		}
	}
	return nil
}

// Subgraph returns the node/edge view of the genes in one cluster
func (og *OrthologGraph) Subgraph(c *model.Cluster) *model.Graph {
	g := model.NewGraph()

	members := make(map[model.GeneRef]bool, len(c.Members))
	for _, ref := range c.Members {
		if !og.HasGene(ref) {
			continue
		}
		members[ref] = true
		g.AddNode(&model.Node{
			ID:     ref.String(),
			Label:  ref.Gene,
			Genome: ref.Genome,
		})
	}

	for _, ref := range c.Members {
		for _, other := range og.Orthologs(ref) {
			// Undirected: emit each pair once, from the smaller gene
			if !members[other] || other.Compare(ref) < 0 {
				continue
			}
			g.AddEdge(&model.Edge{
				Source: ref.String(),
				Target: other.String(),
				Score:  og.graph.WeightedEdge(og.ids[ref], og.ids[other]).Weight(),
			})
		}
	}

	slices.SortFunc(g.Edges, func(x, y *model.Edge) int {
		return cmp.Or(strings.Compare(x.Source, y.Source), strings.Compare(x.Target, y.Target))
	})
	return g
}

// BuildOrthologGraph builds the graph from ortholog edges and isolated genes
func BuildOrthologGraph(edges []model.OrthologEdge, genes ...model.GeneRef) *OrthologGraph {
	og := NewOrthologGraph()
	for _, g := range genes {
		og.AddGene(g)
	}
	for _, e := range edges {
		og.AddOrtholog(e)
	}
	return og
}
