package cluster

// DisjointSet is a union-find forest over dense int32 node IDs.
// Find uses path halving and Union links by size, giving near-constant
// amortized cost per operation.
type DisjointSet struct {
	parent []int32
	size   []int32
	sets   int
}

// NewDisjointSet creates a forest with n singleton sets
func NewDisjointSet(n int) *DisjointSet {
	ds := &DisjointSet{
		parent: make([]int32, 0, n),
		size:   make([]int32, 0, n),
	}
	for i := 0; i < n; i++ {
		ds.Add()
	}
	return ds
}

// Add appends a new singleton set and returns its node ID
func (ds *DisjointSet) Add() int32 {
	id := int32(len(ds.parent))
	ds.parent = append(ds.parent, id)
	ds.size = append(ds.size, 1)
	ds.sets++
	return id
}

// Len returns the number of nodes
func (ds *DisjointSet) Len() int {
	return len(ds.parent)
}

// Sets returns the number of disjoint sets
func (ds *DisjointSet) Sets() int {
	return ds.sets
}

// Find returns the root of x's set
func (ds *DisjointSet) Find(x int32) int32 {
	for ds.parent[x] != x {
		ds.parent[x] = ds.parent[ds.parent[x]]
		x = ds.parent[x]
	}
	return x
}

// Union merges the sets of a and b and reports whether they were distinct
func (ds *DisjointSet) Union(a, b int32) bool {
	ra, rb := ds.Find(a), ds.Find(b)
	if ra == rb {
		return false
	}
	if ds.size[ra] < ds.size[rb] {
		ra, rb = rb, ra
	}
	ds.parent[rb] = ra
	ds.size[ra] += ds.size[rb]
	ds.sets--
	return true
}

// SetSize returns the size of x's set
func (ds *DisjointSet) SetSize(x int32) int {
	return int(ds.size[ds.Find(x)])
}
