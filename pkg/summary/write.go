package summary

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ritzau/pangenome/pkg/model"
	"gopkg.in/yaml.v3"
)

// Format selects the serialization of the summary table
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want csv, json or yaml)", s)
	}
}

// GenomeSeparator joins genome names inside one CSV cell
const GenomeSeparator = ";"

// Write serializes the table in the given format
func (t *Table) Write(w io.Writer, format Format) error {
	switch format {
	case FormatCSV:
		return t.WriteCSV(w)
	case FormatJSON:
		return t.WriteJSON(w)
	case FormatYAML:
		return t.WriteYAML(w)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteCSV writes "cluster_id,label,genomes,size" rows with a header
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"cluster_id", "label", "genomes", "size"}); err != nil {
		return err
	}
	for _, r := range t.Rows {
		genomes := make([]string, len(r.Genomes))
		for i, g := range r.Genomes {
			genomes[i] = string(g)
		}
		record := []string{r.ClusterID, string(r.Label), strings.Join(genomes, GenomeSeparator), strconv.Itoa(r.Size)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the table as an indented JSON document
func (t *Table) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// WriteYAML writes the table as a YAML document
func (t *Table) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return err
	}
	return enc.Close()
}

// WriteMembers writes the gene-level membership of every cluster as
// "cluster_id,genome,gene" rows, clusters in the given order
func WriteMembers(w io.Writer, clusters []*model.Cluster) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"cluster_id", "genome", "gene"}); err != nil {
		return err
	}
	for _, c := range clusters {
		for _, m := range c.Members {
			if err := cw.Write([]string{c.ID, string(m.Genome), m.Gene}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
