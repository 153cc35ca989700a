package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritzau/pangenome/pkg/analysis"
	"github.com/ritzau/pangenome/pkg/config"
	"github.com/ritzau/pangenome/pkg/inventory"
	"github.com/ritzau/pangenome/pkg/logging"
	"github.com/ritzau/pangenome/pkg/model"
	"github.com/ritzau/pangenome/pkg/output"
	"github.com/ritzau/pangenome/pkg/summary"
	"github.com/ritzau/pangenome/pkg/watcher"
	"github.com/ritzau/pangenome/pkg/web"
)

const (
	quietPeriod = 500 * time.Millisecond
	maxWait     = 5 * time.Second
)

func main() {
	flags := pflag.NewFlagSet("pangenome", pflag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pangenome --orthologs <table.tsv> [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Groups ortholog calls into clusters and classifies each cluster as\n")
		fmt.Fprintf(os.Stderr, "Core, Accessory or Unique across the genomes.\n\n")
		flags.PrintDefaults()
	}
	config.RegisterFlags(flags)
	if err := flags.Parse(os.Args[1:]); err != nil {
		logging.Fatal("failed to parse flags", "error", err)
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		logging.Fatal("invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var server *web.Server
	var status analysis.StatusPublisher
	serverDone := make(chan struct{})
	if cfg.Web {
		server = web.NewServer()
		status = server
		go func() {
			defer close(serverDone)
			if err := server.Start(ctx, cfg.Port); err != nil {
				logging.Fatal("web server failed", "error", err)
			}
		}()
	} else {
		close(serverDone)
	}
	runner := analysis.NewRunner(status)

	res, err := runOnce(ctx, runner, cfg, server, "initial analysis")
	if err != nil && !cfg.Watch && !cfg.Web {
		logging.Fatal("analysis failed", "error", err)
	}
	if res != nil && cfg.Web {
		logging.Info("View results", "url", fmt.Sprintf("http://localhost:%d/api/summary", cfg.Port))
	}

	switch {
	case cfg.Watch:
		if err := watchInputs(ctx, flags, cfg, runner, server); err != nil {
			logging.Fatal("watch mode failed", "error", err)
		}
	case cfg.Web:
		<-ctx.Done()
	}
	<-serverDone
}

// loadConfig loads, validates and applies the logging settings
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, err
	}

	level := logging.LevelFromVerbosity(cfg.Verbosity, cfg.VerboseCnt)
	if cfg.JSONLogs {
		logging.SetJSONOutput(level)
	} else {
		logging.SetLevel(level)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runOptions(cfg *config.Config, reason string) (analysis.Options, error) {
	specs, err := cfg.GeneSpecs()
	if err != nil {
		return analysis.Options{}, err
	}

	genomes := make([]model.Genome, len(cfg.Genomes))
	for i, g := range cfg.Genomes {
		genomes[i] = model.Genome(g)
	}

	return analysis.Options{
		Orthologs: cfg.Orthologs,
		Genomes:   genomes,
		GeneLists: specs,
		Inventory: inventory.Options{FeatureType: cfg.Feature},
		Workers:   cfg.Workers,
		KeepGraph: cfg.Web,
		Reason:    reason,
	}, nil
}

// runOnce runs the pipeline from scratch and writes every configured output
func runOnce(ctx context.Context, runner *analysis.Runner, cfg *config.Config, server *web.Server, reason string) (*analysis.Result, error) {
	opts, err := runOptions(cfg, reason)
	if err != nil {
		return nil, err
	}

	res, err := runner.Run(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := writeOutputs(cfg, res); err != nil {
		logging.Error("failed to write outputs", "error", err)
		return res, err
	}
	if cfg.Report {
		output.PrintReport(os.Stderr, cfg.Orthologs, res)
	}
	if server != nil {
		server.SetResult(res)
	}
	return res, nil
}

func writeOutputs(cfg *config.Config, res *analysis.Result) error {
	format, err := summary.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	if err := writeTo(cfg.Output, func(w io.Writer) error { return res.Table.Write(w, format) }); err != nil {
		return fmt.Errorf("writing summary table: %w", err)
	}
	if cfg.Members != "" {
		if err := writeTo(cfg.Members, func(w io.Writer) error { return summary.WriteMembers(w, res.Clusters) }); err != nil {
			return fmt.Errorf("writing members: %w", err)
		}
	}
	return nil
}

// writeTo writes to stdout for "-", otherwise replaces the file at path
func writeTo(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// watchInputs re-runs the pipeline whenever an input file changes
func watchInputs(ctx context.Context, flags *pflag.FlagSet, cfg *config.Config, runner *analysis.Runner, server *web.Server) error {
	fw, err := watcher.NewFileWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := registerInputs(fw, cfg); err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)

	for event := range debouncer.Output() {
		changes := watcher.AnalyzeChanges(append([]watcher.ChangeEvent{event}, drain(debouncer.Output())...)...)
		logging.Info("inputs changed, re-running", "reason", changes.Reason(), "files", len(changes.ChangedFiles))

		if changes.NeedConfigReload {
			next, err := loadConfig(flags)
			if err != nil {
				logging.Error("keeping previous configuration", "error", err)
			} else {
				cfg = next
				if err := registerInputs(fw, cfg); err != nil {
					logging.Warn("failed to watch new inputs", "error", err)
				}
			}
		}

		if _, err := runOnce(ctx, runner, cfg, server, changes.Reason()); err != nil {
			logging.Warn("re-run failed, waiting for the next change", "error", err)
		}
	}
	return nil
}

func registerInputs(fw *watcher.FileWatcher, cfg *config.Config) error {
	if err := fw.AddFile(cfg.Orthologs, watcher.ChangeTypeOrthologs); err != nil {
		return err
	}
	for _, g := range cfg.Genes {
		spec, err := inventory.ParseSpec(g)
		if err != nil {
			return err
		}
		if err := fw.AddFile(spec.Path, watcher.ChangeTypeGeneList); err != nil {
			return err
		}
	}
	if cfg.GenesDir != "" {
		if err := fw.AddDir(cfg.GenesDir); err != nil {
			return err
		}
	}

	path := cfg.ConfigFile
	if path == "" {
		path = config.DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := fw.AddFile(path, watcher.ChangeTypeConfig); err != nil {
			return err
		}
	}
	return nil
}

// drain collects the events already queued behind the first one of a batch
func drain(ch <-chan watcher.ChangeEvent) []watcher.ChangeEvent {
	var events []watcher.ChangeEvent
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, e)
		default:
			return events
		}
	}
}
