package model

import "fmt"

// MalformedRecordError reports an ortholog table row that cannot be parsed.
// A corrupt table is never partially trusted, so this aborts the run.
type MalformedRecordError struct {
	Line   int    // 1-based line number, 0 when unknown
	Record string // Raw record text
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed ortholog record at line %d (%q): %s", e.Line, e.Record, e.Reason)
	}
	return fmt.Sprintf("malformed ortholog record %q: %s", e.Record, e.Reason)
}

// UnknownGenomeError reports a gene whose genome is outside the declared universe
type UnknownGenomeError struct {
	Genome    Genome
	Gene      GeneRef
	ClusterID string
}

func (e *UnknownGenomeError) Error() string {
	if e.ClusterID != "" {
		return fmt.Sprintf("gene %s in cluster %s references unknown genome %q", e.Gene, e.ClusterID, e.Genome)
	}
	return fmt.Sprintf("gene %s references unknown genome %q", e.Gene, e.Genome)
}

// UnsupportedGenomeCountError reports a Venn decomposition request for a universe
// that does not have exactly three genomes
type UnsupportedGenomeCountError struct {
	Count int
}

func (e *UnsupportedGenomeCountError) Error() string {
	return fmt.Sprintf("venn decomposition requires exactly 3 genomes, have %d", e.Count)
}
