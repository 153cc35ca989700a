package model

// Graph is a node/edge view of an ortholog cluster, shaped for the presentation layer
type Graph struct {
	Nodes map[string]*Node `json:"nodes"`
	Edges []*Edge          `json:"edges"`
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Edges: make([]*Edge, 0),
	}
}

// Node is one gene in the graph view
type Node struct {
	ID     string `json:"id"`     // "genome|gene"
	Label  string `json:"label"`  // Local gene ID
	Genome Genome `json:"genome"` // Used for grouping/colouring
}

// Edge is one ortholog call between two genes
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Score  float64 `json:"score"`
}

// AddNode adds a node to the graph. If a node with the same ID exists, it is replaced.
func (g *Graph) AddNode(node *Node) {
	g.Nodes[node.ID] = node
}

// AddEdge adds an edge to the graph.
func (g *Graph) AddEdge(edge *Edge) {
	g.Edges = append(g.Edges, edge)
}
