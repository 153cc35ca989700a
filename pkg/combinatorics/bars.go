package combinatorics

import (
	"github.com/ritzau/pangenome/pkg/classify"
	"github.com/ritzau/pangenome/pkg/model"
)

// GenomeCount pairs a genome with a cluster count
type GenomeCount struct {
	Genome model.Genome `json:"genome" yaml:"genome"`
	Count  int          `json:"count" yaml:"count"`
}

// BarSummary holds the cluster counts behind the category bar chart
type BarSummary struct {
	Core            int           `json:"core" yaml:"core"`
	Accessory       int           `json:"accessory" yaml:"accessory"`
	Unique          int           `json:"unique" yaml:"unique"`
	UniquePerGenome []GenomeCount `json:"unique_per_genome" yaml:"unique_per_genome"` // In genome order
}

// Total returns the number of clusters
func (b BarSummary) Total() int {
	return b.Core + b.Accessory + b.Unique
}

// Bars counts clusters per label, with Unique also broken down per genome
func Bars(c *classify.Classification) BarSummary {
	genomes := c.Universe.Genomes()
	perGenome := make([]int, len(genomes))

	for _, idx := range c.ByLabel[model.LabelUnique] {
		for g, present := range c.Entries[idx].Vector.Present {
			if present {
				perGenome[g]++
				break
			}
		}
	}

	summary := BarSummary{
		Core:            c.Count(model.LabelCore),
		Accessory:       c.Count(model.LabelAccessory),
		Unique:          c.Count(model.LabelUnique),
		UniquePerGenome: make([]GenomeCount, len(genomes)),
	}
	for i, g := range genomes {
		summary.UniquePerGenome[i] = GenomeCount{Genome: g, Count: perGenome[i]}
	}
	return summary
}
