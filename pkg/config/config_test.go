package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("Parse(%v) unexpected error: %v", args, err)
	}
	return f
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(newFlags(t))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Output != "-" || cfg.Format != "csv" || cfg.Port != 8080 || !cfg.Report {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Web || cfg.Watch || len(cfg.Genomes) != 0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	toml := `orthologs = "from-file.tsv"
format = "json"
port = 9000
genomes = ["G3", "G1"]
genes-dir = "lists"
`
	if err := os.WriteFile(filepath.Join(dir, DefaultFile), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	// File only
	cfg, err := Load(newFlags(t))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Orthologs != "from-file.tsv" || cfg.Format != "json" || cfg.Port != 9000 || cfg.GenesDir != "lists" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Genomes, []string{"G3", "G1"}) {
		t.Errorf("Genomes = %v", cfg.Genomes)
	}

	// Env over file
	t.Setenv("PANGENOME_PORT", "9100")
	t.Setenv("PANGENOME_GENOMES", "G1, G2,G3")
	t.Setenv("PANGENOME_JSON_LOGS", "true")
	cfg, err = Load(newFlags(t))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Port != 9100 || !cfg.JSONLogs {
		t.Errorf("env values not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Genomes, []string{"G1", "G2", "G3"}) {
		t.Errorf("Genomes = %v", cfg.Genomes)
	}

	// Flags over env
	cfg, err = Load(newFlags(t, "--port", "9200", "-o", "out.csv", "-vv", "--genomes", "X,Y"))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Port != 9200 || cfg.Output != "out.csv" || cfg.VerboseCnt != 2 {
		t.Errorf("flag values not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Genomes, []string{"X", "Y"}) {
		t.Errorf("Genomes = %v", cfg.Genomes)
	}
	// Untouched flags keep the lower layers
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want json from file", cfg.Format)
	}
}

func TestLoadExplicitConfigMustExist(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := Load(newFlags(t, "--config", "missing.toml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}

	t.Setenv("PANGENOME_CONFIG", "also-missing.toml")
	if _, err := Load(newFlags(t)); err == nil {
		t.Error("expected error for a missing config file named by the environment")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid", cfg: Config{Orthologs: "o.tsv", Format: "csv"}},
		{name: "no input", cfg: Config{Format: "csv"}, wantErr: "no ortholog table"},
		{name: "bad format", cfg: Config{Orthologs: "o.tsv", Format: "xml"}, wantErr: "unknown output format"},
		{name: "bad port", cfg: Config{Orthologs: "o.tsv", Format: "csv", Web: true, Port: 70000}, wantErr: "port"},
		{name: "bad gene spec", cfg: Config{Orthologs: "o.tsv", Format: "csv", Genes: []string{"G1"}}, wantErr: "genome=path"},
		{name: "duplicate genome", cfg: Config{Orthologs: "o.tsv", Format: "csv", Genomes: []string{"G1", "G1"}}, wantErr: "listed twice"},
		{name: "negative workers", cfg: Config{Orthologs: "o.tsv", Format: "csv", Workers: -1}, wantErr: "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestGeneSpecs(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "G2.txt"), []byte("a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{Orthologs: "o.tsv", Genes: []string{"G1=g1.gff3"}, GenesDir: dir}
	specs, err := cfg.GeneSpecs()
	if err != nil {
		t.Fatalf("GeneSpecs() unexpected error: %v", err)
	}
	if len(specs) != 2 || specs[0].Genome != "G1" || specs[1].Genome != "G2" {
		t.Errorf("GeneSpecs() = %+v", specs)
	}
	if specs[1].Path != filepath.Join(dir, "G2.txt") {
		t.Errorf("GeneSpecs() dir entry path = %q", specs[1].Path)
	}
}
