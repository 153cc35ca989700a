package output

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/ritzau/pangenome/pkg/analysis"
	"github.com/ritzau/pangenome/pkg/model"
)

func ref(genome, gene string) model.GeneRef {
	return model.GeneRef{Genome: model.Genome(genome), Gene: gene}
}

func TestPrintReport(t *testing.T) {
	color.NoColor = true

	edges := []model.OrthologEdge{
		{A: ref("G1", "a"), B: ref("G2", "x")},
		{A: ref("G2", "x"), B: ref("G3", "q")},
		{A: ref("G1", "b"), B: ref("G2", "y")},
	}
	res, err := analysis.Analyze(context.Background(), edges, []model.GeneRef{ref("G3", "r")}, analysis.Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	PrintReport(&buf, "orthologs.tsv", res)
	out := buf.String()

	for _, want := range []string{
		"Genomes (3): G1, G2, G3",
		"Core:            1  (33.3%)",
		"111       1  G1 & G2 & G3",
		"G1∩G2 only",
		"Summary: 3 clusters classified",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestPrintReportCapsPatterns(t *testing.T) {
	color.NoColor = true

	// 12 genomes, each with its own singleton gives 12 distinct patterns
	var genes []model.GeneRef
	for i := 0; i < 12; i++ {
		genes = append(genes, ref(fmt.Sprintf("G%02d", i), "g"))
	}
	res, err := analysis.Analyze(context.Background(), nil, genes, analysis.Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	PrintReport(&buf, "-", res)

	if !strings.Contains(buf.String(), "... 2 more pattern(s)") {
		t.Errorf("pattern list not capped:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "Venn regions not available") {
		t.Error("expected a note about the missing Venn decomposition")
	}
}
