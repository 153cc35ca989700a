package inventory

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/biogo/biogo/io/featio"
	"github.com/biogo/biogo/io/featio/gff"

	"github.com/ritzau/pangenome/pkg/model"
)

// idTags are the attribute tags that carry a gene ID, in preference order
var idTags = []string{"ID", "gene_id"}

// ParseAnnotation collects gene IDs from the attribute column of a GFF or GTF file.
// A feature contributes its ID attribute (GFF3) or gene_id attribute (GTF);
// features without either are skipped.
func ParseAnnotation(genome model.Genome, r io.Reader, opts Options) (genes []model.GeneRef, err error) {
	// The gff reader panics on some malformed numeric columns
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed annotation: %v", p)
		}
	}()

	seen := make(map[string]bool)
	sc := featio.NewScanner(gff.NewReader(&featureLines{r: bufio.NewReader(r)}))
	for sc.Next() {
		f, ok := sc.Feat().(*gff.Feature)
		if !ok {
			continue
		}
		if opts.FeatureType != "" && f.Feature != opts.FeatureType {
			continue
		}

		id := geneID(f.FeatAttributes)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		genes = append(genes, model.GeneRef{Genome: genome, Gene: id})
	}
	if err := sc.Error(); err != nil {
		return nil, err
	}
	return genes, nil
}

// geneID returns the first ID-carrying attribute: ID (GFF3) or gene_id (GTF)
func geneID(attrs gff.Attributes) string {
	for _, tag := range idTags {
		if v := unquote(attrs.Get(tag)); v != "" {
			return v
		}
	}
	return ""
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// normalizeAttributes rewrites the attribute column of a feature row into the
// GFF2 "tag value; tag value" form the gff reader accepts. GFF3 pairs
// ("ID=gene1") become "ID gene1"; GTF pairs pass through. Pairs whose tag the
// reader would reject (anything but letters and '_') are dropped.
func normalizeAttributes(line []byte) []byte {
	fields := bytes.SplitN(bytes.TrimRight(line, "\r\n"), []byte{'\t'}, 10)
	if len(fields) < 9 {
		return line
	}

	// GFF3 marks an unknown strand with '?', GFF2 only knows '.'
	if bytes.Equal(fields[6], []byte("?")) {
		fields[6] = []byte(".")
	}

	var attrs [][]byte
	for _, pair := range bytes.Split(fields[8], []byte{';'}) {
		pair = bytes.TrimSpace(pair)
		if len(pair) == 0 {
			continue
		}
		tag, value := pair, []byte(nil)
		if i := bytes.IndexAny(pair, "= "); i >= 0 {
			tag, value = pair[:i], bytes.TrimSpace(pair[i+1:])
		}
		if !validTag(tag) {
			continue
		}
		if len(value) > 0 {
			tag = append(append(append([]byte(nil), tag...), ' '), value...)
		}
		attrs = append(attrs, tag)
	}
	fields[8] = bytes.Join(attrs, []byte("; "))

	out := bytes.Join(fields, []byte{'\t'})
	return append(out, '\n')
}

func validTag(tag []byte) bool {
	if len(tag) == 0 {
		return false
	}
	for _, b := range tag {
		if b != '_' && (b < 'a' || b > 'z') && (b < 'A' || b > 'Z') {
			return false
		}
	}
	return true
}

// featureLines passes only feature rows through to the gff reader, with their
// attributes normalized. Directives and comments are dropped and a "##FASTA"
// section ends the stream.
type featureLines struct {
	r    *bufio.Reader
	buf  []byte
	done bool
}

func (fl *featureLines) Read(p []byte) (int, error) {
	for len(fl.buf) == 0 {
		if fl.done {
			return 0, io.EOF
		}
		line, err := fl.r.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			fl.done = true
			if len(line) > 0 && line[len(line)-1] != '\n' {
				line = append(line, '\n')
			}
		} else if err != nil {
			return 0, err
		}

		trimmed := bytes.TrimSpace(line)
		switch {
		case bytes.HasPrefix(trimmed, []byte("##FASTA")):
			fl.done = true
		case len(trimmed) == 0, trimmed[0] == '#', trimmed[0] == '>':
		default:
			fl.buf = normalizeAttributes(line)
		}
	}

	n := copy(p, fl.buf)
	fl.buf = fl.buf[n:]
	return n, nil
}
