package classify

import (
	"fmt"

	"github.com/ritzau/pangenome/pkg/model"
	"github.com/ritzau/pangenome/pkg/presence"
)

// Label applies the presence-count thresholds:
// Core when every genome is present, Unique when exactly one is, Accessory otherwise.
// In a one-genome universe every cluster is Core.
func Label(present []bool, genomeCount int) (model.Label, error) {
	n := 0
	for _, v := range present {
		if v {
			n++
		}
	}
	if len(present) != genomeCount {
		return "", fmt.Errorf("presence vector has %d entries for %d genomes", len(present), genomeCount)
	}
	if n < 1 || n > genomeCount {
		return "", fmt.Errorf("presence count %d outside 1..%d", n, genomeCount)
	}

	switch {
	case n == genomeCount:
		return model.LabelCore, nil
	case n == 1:
		return model.LabelUnique, nil
	default:
		return model.LabelAccessory, nil
	}
}

// Entry is one classified cluster
type Entry struct {
	Cluster *model.Cluster
	Vector  model.PresenceVector
	Label   model.Label
}

// Classification labels every cluster of a presence matrix
type Classification struct {
	Universe *presence.Universe
	Entries  []Entry               // In cluster order
	ByLabel  map[model.Label][]int // Entry indexes per label, in cluster order
}

// Count returns the number of clusters carrying the label
func (c *Classification) Count(label model.Label) int {
	return len(c.ByLabel[label])
}

// Len returns the total number of clusters
func (c *Classification) Len() int {
	return len(c.Entries)
}

// Classify labels every cluster and checks that the labels partition the cluster set
func Classify(m *presence.Matrix) (*Classification, error) {
	c := &Classification{
		Universe: m.Universe,
		Entries:  make([]Entry, len(m.Vectors)),
		ByLabel:  make(map[model.Label][]int, len(model.Labels)),
	}

	for i, pv := range m.Vectors {
		label, err := Label(pv.Present, m.Universe.Len())
		if err != nil {
			return nil, fmt.Errorf("classifying cluster %s: %w", pv.ClusterID, err)
		}
		c.Entries[i] = Entry{Cluster: m.Clusters[i], Vector: pv, Label: label}
		c.ByLabel[label] = append(c.ByLabel[label], i)
	}

	total := 0
	for _, l := range model.Labels {
		total += c.Count(l)
	}
	if total != len(c.Entries) {
		return nil, fmt.Errorf("labels cover %d of %d clusters", total, len(c.Entries))
	}

	return c, nil
}
