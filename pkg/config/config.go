package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/pangenome/pkg/inventory"
	"github.com/ritzau/pangenome/pkg/summary"
)

// DefaultFile is read from the working directory when present
const DefaultFile = "pangenome.toml"

// EnvPrefix prefixes environment overrides, e.g. PANGENOME_PORT=9090
const EnvPrefix = "PANGENOME_"

// Config holds all configuration for one invocation
type Config struct {
	ConfigFile string   `koanf:"config"`
	Orthologs  string   `koanf:"orthologs"` // Ortholog table (TSV, optionally .gz)
	Genomes    []string `koanf:"genomes"`   // Declared genome universe, in order; derived when empty
	Genes      []string `koanf:"genes"`     // Gene lists as genome=path
	GenesDir   string   `koanf:"genes-dir"` // Directory of <genome>.<ext> gene lists
	Feature    string   `koanf:"feature"`   // GFF/GTF feature type feeding gene lists
	Output     string   `koanf:"output"`    // Summary table path, "-" for stdout
	Format     string   `koanf:"format"`    // csv, json or yaml
	Members    string   `koanf:"members"`   // Optional cluster membership table path
	Report     bool     `koanf:"report"`    // Print the colored console report
	Web        bool     `koanf:"web"`
	Port       int      `koanf:"port"`
	Watch      bool     `koanf:"watch"`
	Workers    int      `koanf:"workers"`
	Verbosity  string   `koanf:"verbosity"`
	VerboseCnt int      `koanf:"verbose"`
	JSONLogs   bool     `koanf:"json-logs"`
}

// listKeys are split on commas when they come from the environment
var listKeys = map[string]bool{"genomes": true, "genes": true}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"config":    "",
		"orthologs": "",
		"genomes":   []string{},
		"genes":     []string{},
		"genes-dir": "",
		"feature":   "",
		"output":    "-",
		"format":    "csv",
		"members":   "",
		"report":    true,
		"web":       false,
		"port":      8080,
		"watch":     false,
		"workers":   0,
		"verbosity": "",
		"verbose":   0,
		"json-logs": false,
	}
}

// RegisterFlags defines the command line flags understood by Load
func RegisterFlags(f *pflag.FlagSet) {
	f.StringP("config", "c", "", "Path to a TOML config file (default ./"+DefaultFile+" if present)")
	f.StringP("orthologs", "i", "", "Ortholog table: genome|gene<TAB>genome|gene<TAB>score")
	f.StringSliceP("genomes", "g", nil, "Genome universe in display order (default: derived from input, sorted)")
	f.StringSlice("genes", nil, "Per-genome gene list as genome=path (GFF, GTF or one ID per line)")
	f.String("genes-dir", "", "Directory of gene lists named <genome>.<ext>")
	f.String("feature", "", "Only take gene IDs from GFF/GTF features of this type")
	f.StringP("output", "o", "-", "Summary table destination, - for stdout")
	f.StringP("format", "f", "csv", "Summary table format: csv, json or yaml")
	f.String("members", "", "Also write cluster membership (cluster_id,genome,gene) to this path")
	f.Bool("report", true, "Print the console report to stderr")
	f.Bool("web", false, "Serve results over HTTP")
	f.Int("port", 8080, "Port for the web server (only used with --web)")
	f.Bool("watch", false, "Re-run when input files change")
	f.Int("workers", 0, "Parallel workers for presence vectors (0 = GOMAXPROCS)")
	f.String("verbosity", "", "Log level: trace, debug, info, warn or error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.Bool("json-logs", false, "Log as JSON")
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file; an explicitly named file must exist
	path, explicit := DefaultFile, false
	if f != nil {
		if p, err := f.GetString("config"); err == nil && p != "" {
			path, explicit = p, true
		}
	}
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" && !explicit {
		path, explicit = p, true
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// 3. Environment Variables, e.g. PANGENOME_GENES_DIR -> genes-dir
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "_", "-")
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the values that the pipeline cannot recover from
func (c *Config) Validate() error {
	var errs []error

	if c.Orthologs == "" {
		errs = append(errs, errors.New("no ortholog table given (--orthologs)"))
	}
	if _, err := summary.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if c.Web && (c.Port <= 0 || c.Port > 65535) {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	for _, g := range c.Genes {
		if _, err := inventory.ParseSpec(g); err != nil {
			errs = append(errs, err)
		}
	}
	seen := make(map[string]bool)
	for _, g := range c.Genomes {
		if seen[g] {
			errs = append(errs, fmt.Errorf("genome %q listed twice", g))
		}
		seen[g] = true
	}

	return errors.Join(errs...)
}

// GeneSpecs returns the gene lists from --genes and --genes-dir
func (c *Config) GeneSpecs() ([]inventory.Spec, error) {
	var specs []inventory.Spec
	for _, g := range c.Genes {
		spec, err := inventory.ParseSpec(g)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	if c.GenesDir != "" {
		found, err := inventory.FindInventoryFiles(c.GenesDir)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", c.GenesDir, err)
		}
		specs = append(specs, found...)
	}
	return specs, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
