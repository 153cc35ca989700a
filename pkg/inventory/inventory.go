// Package inventory reads per-genome gene lists. Genes listed here but absent
// from the ortholog table become singleton clusters of their genome.
package inventory

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ritzau/pangenome/pkg/model"
)

// Spec names the gene list of one genome
type Spec struct {
	Genome model.Genome
	Path   string
}

// ParseSpec parses "genome=path"
func ParseSpec(s string) (Spec, error) {
	genome, path, ok := strings.Cut(s, "=")
	genome, path = strings.TrimSpace(genome), strings.TrimSpace(path)
	if !ok || genome == "" || path == "" {
		return Spec{}, fmt.Errorf("gene list %q is not of the form genome=path", s)
	}
	return Spec{Genome: model.Genome(genome), Path: path}, nil
}

// Options controls which annotation features contribute gene IDs
type Options struct {
	// FeatureType keeps only GFF/GTF features of this type (e.g. "gene"); empty keeps all
	FeatureType string
}

// Kind is the detected file layout
type Kind int

const (
	KindList Kind = iota // One gene ID per line
	KindGFF              // GFF3 / GFF2
	KindGTF
)

// DetectKind picks the parser from the file extension, ignoring ".gz"
func DetectKind(path string) Kind {
	name := strings.ToLower(strings.TrimSuffix(path, ".gz"))
	switch filepath.Ext(name) {
	case ".gff", ".gff3", ".gff2":
		return KindGFF
	case ".gtf":
		return KindGTF
	default:
		return KindList
	}
}

// ParseList reads one gene ID per line. Blank lines and '#' comments are
// skipped; only the first whitespace-separated field of a line is used.
func ParseList(genome model.Genome, r io.Reader) ([]model.GeneRef, error) {
	var genes []model.GeneRef

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		genes = append(genes, model.GeneRef{Genome: genome, Gene: strings.Fields(line)[0]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return genes, nil
}

// Load reads the gene list of one genome, choosing the parser by extension
func Load(spec Spec, opts Options) ([]model.GeneRef, error) {
	file, err := os.Open(spec.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var r io.Reader = file
	if strings.HasSuffix(spec.Path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream %s: %w", spec.Path, err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var genes []model.GeneRef
	switch DetectKind(spec.Path) {
	case KindGFF, KindGTF:
		genes, err = ParseAnnotation(spec.Genome, r, opts)
	default:
		genes, err = ParseList(spec.Genome, r)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Path, err)
	}
	return genes, nil
}

// LoadAll reads every gene list and returns the distinct genes, sorted
func LoadAll(specs []Spec, opts Options) ([]model.GeneRef, error) {
	seen := make(map[model.GeneRef]bool)
	var genes []model.GeneRef

	for _, spec := range specs {
		refs, err := Load(spec, opts)
		if err != nil {
			return nil, fmt.Errorf("loading genes of %s: %w", spec.Genome, err)
		}
		for _, ref := range refs {
			if !seen[ref] {
				seen[ref] = true
				genes = append(genes, ref)
			}
		}
	}

	slices.SortFunc(genes, model.GeneRef.Compare)
	return genes, nil
}
