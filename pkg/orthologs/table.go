package orthologs

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ritzau/pangenome/pkg/model"
)

const maxLineBytes = 1 << 20

// ParseRecord parses one ortholog table row.
// Format: "genome_a|gene_a<TAB>genome_b|gene_b<TAB>score"
func ParseRecord(line string) (model.OrthologEdge, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) != 3 {
		return model.OrthologEdge{}, &model.MalformedRecordError{
			Record: line,
			Reason: fmt.Sprintf("expected 3 tab-separated fields, got %d", len(fields)),
		}
	}

	a, err := model.ParseGeneRef(fields[0])
	if err != nil {
		return model.OrthologEdge{}, &model.MalformedRecordError{Record: line, Reason: err.Error()}
	}
	b, err := model.ParseGeneRef(fields[1])
	if err != nil {
		return model.OrthologEdge{}, &model.MalformedRecordError{Record: line, Reason: err.Error()}
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return model.OrthologEdge{}, &model.MalformedRecordError{
			Record: line,
			Reason: fmt.Sprintf("score %q is not a number", fields[2]),
		}
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return model.OrthologEdge{}, &model.MalformedRecordError{
			Record: line,
			Reason: fmt.Sprintf("score %q is not finite", fields[2]),
		}
	}

	return model.OrthologEdge{A: a, B: b, Score: score}, nil
}

// Parse reads an ortholog table in input order. Blank lines are skipped and
// duplicates are kept; the first malformed row aborts the whole parse.
func Parse(r io.Reader) ([]model.OrthologEdge, error) {
	var edges []model.OrthologEdge

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		edge, err := ParseRecord(line)
		if err != nil {
			if mre, ok := err.(*model.MalformedRecordError); ok {
				mre.Line = lineNo
			}
			return nil, err
		}
		edges = append(edges, edge)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ortholog table at line %d: %w", lineNo+1, err)
	}

	return edges, nil
}

// ParseFile parses an ortholog table from disk; ".gz" files are decompressed
func ParseFile(path string) ([]model.OrthologEdge, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var r io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream %s: %w", path, err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	edges, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return edges, nil
}
