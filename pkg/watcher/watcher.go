package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/pangenome/pkg/inventory"
	"github.com/ritzau/pangenome/pkg/logging"
)

// ChangeType represents the kind of input that changed
type ChangeType int

const (
	ChangeTypeOrthologs ChangeType = iota // The ortholog table
	ChangeTypeGeneList                    // A per-genome gene list
	ChangeTypeConfig                      // The configuration file
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeOrthologs:
		return "orthologs"
	case ChangeTypeGeneList:
		return "gene list"
	case ChangeTypeConfig:
		return "config"
	}
	return fmt.Sprintf("ChangeType(%d)", int(t))
}

// ChangeEvent represents a batch of file system changes of one type
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// batchWindow groups the bursts of events a single save produces
const batchWindow = 100 * time.Millisecond

// FileWatcher watches the input files of a run.
//
// Files are watched through their parent directories because editors and
// pipelines usually replace a file rather than write it in place, which
// drops a watch placed on the file itself.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]ChangeType // Cleaned absolute path -> type
	dirs    map[string]ChangeType // Directories whose gene lists are all watched
	events  chan ChangeEvent
	stop    sync.Once
}

// NewFileWatcher creates a watcher with nothing registered yet
func NewFileWatcher() (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		files:   make(map[string]ChangeType),
		dirs:    make(map[string]ChangeType),
		events:  make(chan ChangeEvent, 100),
	}, nil
}

// AddFile watches one input file
func (fw *FileWatcher) AddFile(path string, t ChangeType) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := fw.watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	fw.files[abs] = t
	return nil
}

// AddDir watches every gene list inside a directory, including ones created later
func (fw *FileWatcher) AddDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", dir, err)
	}
	if err := fw.watcher.Add(abs); err != nil {
		return fmt.Errorf("failed to watch %s: %w", abs, err)
	}
	fw.dirs[abs] = ChangeTypeGeneList
	return nil
}

// Start begins watching for file changes. The event channel closes when ctx ends.
func (fw *FileWatcher) Start(ctx context.Context) error {
	logging.Info("started watching inputs", "files", len(fw.files), "dirs", len(fw.dirs))
	go fw.processEvents(ctx)
	return nil
}

// classify maps a file system event to the input it concerns
func (fw *FileWatcher) classify(path string) (ChangeType, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, false
	}
	if t, ok := fw.files[abs]; ok {
		return t, true
	}
	if t, ok := fw.dirs[filepath.Dir(abs)]; ok && inventory.IsInventoryFile(abs) {
		return t, true
	}
	return 0, false
}

// processEvents batches relevant events by type
func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.Close()

	pending := make(map[ChangeType][]string)
	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()

	flush := func() {
		for _, t := range []ChangeType{ChangeTypeConfig, ChangeTypeOrthologs, ChangeTypeGeneList} {
			if paths := pending[t]; len(paths) > 0 {
				select {
				case fw.events <- ChangeEvent{Type: t, Paths: paths, Timestamp: time.Now()}:
				case <-ctx.Done():
					return
				}
			}
		}
		clear(pending)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			t, ok := fw.classify(event.Name)
			if !ok {
				continue
			}
			logging.Trace("input event", "path", event.Name, "op", event.Op.String(), "type", t.String())
			pending[t] = append(pending[t], event.Name)
			flushTimer.Reset(batchWindow)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Close releases the watcher without waiting for the context
func (fw *FileWatcher) Close() error {
	var err error
	fw.stop.Do(func() { err = fw.watcher.Close() })
	return err
}
