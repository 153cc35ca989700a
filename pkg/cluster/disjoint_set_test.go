package cluster

import "testing"

func TestDisjointSet(t *testing.T) {
	ds := NewDisjointSet(6)
	if ds.Len() != 6 || ds.Sets() != 6 {
		t.Fatalf("new forest: Len=%d Sets=%d, want 6 6", ds.Len(), ds.Sets())
	}

	if !ds.Union(0, 1) {
		t.Error("Union(0,1) should merge distinct sets")
	}
	if !ds.Union(2, 3) {
		t.Error("Union(2,3) should merge distinct sets")
	}
	if !ds.Union(1, 3) {
		t.Error("Union(1,3) should merge distinct sets")
	}
	if ds.Union(0, 2) {
		t.Error("Union(0,2) should report already connected")
	}

	if ds.Sets() != 3 {
		t.Errorf("Sets() = %d, want 3", ds.Sets())
	}
	if ds.Find(0) != ds.Find(3) {
		t.Error("0 and 3 should be connected")
	}
	if ds.Find(0) == ds.Find(4) {
		t.Error("0 and 4 should not be connected")
	}
	if got := ds.SetSize(2); got != 4 {
		t.Errorf("SetSize(2) = %d, want 4", got)
	}
	if got := ds.SetSize(5); got != 1 {
		t.Errorf("SetSize(5) = %d, want 1", got)
	}
}

func TestDisjointSetAdd(t *testing.T) {
	ds := NewDisjointSet(0)
	a, b := ds.Add(), ds.Add()
	if a != 0 || b != 1 {
		t.Errorf("Add() ids = %d %d, want 0 1", a, b)
	}
	ds.Union(a, b)
	c := ds.Add()
	if ds.Find(a) == ds.Find(c) {
		t.Error("a node added after a union must start as a singleton")
	}
	if ds.Sets() != 2 {
		t.Errorf("Sets() = %d, want 2", ds.Sets())
	}
}

func TestDisjointSetLongChain(t *testing.T) {
	const n = 100000
	ds := NewDisjointSet(n)
	for i := int32(1); i < n; i++ {
		ds.Union(i-1, i)
	}
	if ds.Sets() != 1 {
		t.Fatalf("Sets() = %d, want 1", ds.Sets())
	}
	if ds.Find(0) != ds.Find(n-1) {
		t.Error("chain ends should be connected")
	}
	if ds.SetSize(n/2) != n {
		t.Errorf("SetSize = %d, want %d", ds.SetSize(n/2), n)
	}
}
