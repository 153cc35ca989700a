package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ritzau/pangenome/pkg/analysis"
)

// MaxPatterns caps the UpSet patterns listed in the console report
const MaxPatterns = 10

// PrintReport prints a colored pangenome report: category bars, the most
// frequent presence patterns and, for three genomes, the Venn regions
func PrintReport(w io.Writer, input string, res *analysis.Result) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	faint := color.New(color.Faint)

	bold.Fprintln(w, "Pangenome Report")
	bold.Fprintln(w, "================")
	fmt.Fprintf(w, "Input: %s\n", input)
	fmt.Fprintf(w, "Genomes (%d): %s\n", res.Universe.Len(), joinGenomes(res))
	fmt.Fprintf(w, "Ortholog edges: %d, genes: %d, clusters: %d\n", res.Edges, res.Genes, len(res.Clusters))
	fmt.Fprintln(w)

	total := res.Bars.Total()
	bold.Fprintln(w, "CATEGORIES:")
	green.Fprintf(w, "  Core:      %7d  %s\n", res.Bars.Core, percent(res.Bars.Core, total))
	yellow.Fprintf(w, "  Accessory: %7d  %s\n", res.Bars.Accessory, percent(res.Bars.Accessory, total))
	cyan.Fprintf(w, "  Unique:    %7d  %s\n", res.Bars.Unique, percent(res.Bars.Unique, total))
	for _, gc := range res.Bars.UniquePerGenome {
		faint.Fprintf(w, "    %-20s %7d\n", gc.Genome, gc.Count)
	}
	fmt.Fprintln(w)

	if len(res.UpSet) > 0 {
		bold.Fprintln(w, "PRESENCE PATTERNS:")
		for i, pc := range res.UpSet {
			if i == MaxPatterns {
				faint.Fprintf(w, "  ... %d more pattern(s)\n", len(res.UpSet)-MaxPatterns)
				break
			}
			names := make([]string, len(pc.Genomes))
			for j, g := range pc.Genomes {
				names[j] = string(g)
			}
			fmt.Fprintf(w, "  %s %7d  %s\n", pc.Pattern, pc.Count, strings.Join(names, " & "))
		}
		fmt.Fprintln(w)
	}

	if res.Venn != nil {
		bold.Fprintln(w, "VENN REGIONS:")
		labels := res.Venn.RegionLabels()
		for i, n := range res.Venn.Regions() {
			fmt.Fprintf(w, "  %-40s %7d\n", labels[i], n)
		}
		fmt.Fprintln(w)
	} else if res.VennErr != nil {
		faint.Fprintf(w, "Venn regions not available: %v\n\n", res.VennErr)
	}

	green.Fprintf(w, "Summary: %d clusters classified in %s\n", total, res.Duration.Round(time.Millisecond))
}

func joinGenomes(res *analysis.Result) string {
	genomes := res.Universe.Genomes()
	names := make([]string, len(genomes))
	for i, g := range genomes {
		names[i] = string(g)
	}
	return strings.Join(names, ", ")
}

func percent(n, total int) string {
	if total == 0 {
		return ""
	}
	return fmt.Sprintf("(%.1f%%)", float64(n)/float64(total)*100.0)
}
