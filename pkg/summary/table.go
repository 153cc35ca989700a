package summary

import (
	"slices"

	"github.com/ritzau/pangenome/pkg/classify"
	"github.com/ritzau/pangenome/pkg/model"
)

// Row is one cluster of the classification table
type Row struct {
	ClusterID string         `json:"cluster_id" yaml:"cluster_id"`
	Label     model.Label    `json:"label" yaml:"label"`
	Genomes   []model.Genome `json:"genomes" yaml:"genomes"` // Genomes containing the cluster, in run order
	Size      int            `json:"size" yaml:"size"`       // Member gene count
}

// Table is the canonical classification table handed to the presentation layer.
// Rows are grouped Core, Accessory, Unique and ordered by cluster ID inside each group.
type Table struct {
	Genomes []model.Genome `json:"genomes" yaml:"genomes"`
	Rows    []Row          `json:"rows" yaml:"rows"`
}

// Build derives the table from a classification
func Build(c *classify.Classification) *Table {
	genomes := c.Universe.Genomes()
	t := &Table{
		Genomes: genomes,
		Rows:    make([]Row, 0, c.Len()),
	}

	for _, label := range model.Labels {
		group := make([]Row, 0, c.Count(label))
		for _, idx := range c.ByLabel[label] {
			e := c.Entries[idx]
			group = append(group, Row{
				ClusterID: e.Cluster.ID,
				Label:     label,
				Genomes:   e.Vector.Pattern().Genomes(genomes),
				Size:      e.Cluster.Size(),
			})
		}
		slices.SortFunc(group, func(a, b Row) int {
			return model.CompareClusterIDs(a.ClusterID, b.ClusterID)
		})
		t.Rows = append(t.Rows, group...)
	}

	return t
}

// Find returns the row of a cluster
func (t *Table) Find(clusterID string) (Row, bool) {
	for _, r := range t.Rows {
		if r.ClusterID == clusterID {
			return r, true
		}
	}
	return Row{}, false
}

// Filter returns the rows carrying the label, in table order
func (t *Table) Filter(label model.Label) []Row {
	var out []Row
	for _, r := range t.Rows {
		if r.Label == label {
			out = append(out, r)
		}
	}
	return out
}
