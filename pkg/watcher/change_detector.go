package watcher

import (
	"fmt"
	"strings"
)

// ChangeAnalysis summarizes a debounced batch of changes.
// Every change re-runs the whole pipeline; only a config change
// requires reloading the configuration first.
type ChangeAnalysis struct {
	NeedConfigReload bool
	Orthologs        bool
	GeneLists        bool
	ChangedFiles     []string
}

// Add folds one event into the analysis
func (a *ChangeAnalysis) Add(event ChangeEvent) {
	switch event.Type {
	case ChangeTypeConfig:
		a.NeedConfigReload = true
	case ChangeTypeOrthologs:
		a.Orthologs = true
	case ChangeTypeGeneList:
		a.GeneLists = true
	}
	a.ChangedFiles = append(a.ChangedFiles, event.Paths...)
}

// Reason describes the change for logs and run options
func (a *ChangeAnalysis) Reason() string {
	var parts []string
	if a.NeedConfigReload {
		parts = append(parts, "config")
	}
	if a.Orthologs {
		parts = append(parts, "orthologs")
	}
	if a.GeneLists {
		parts = append(parts, "gene lists")
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return fmt.Sprintf("%s changed", strings.Join(parts, " and "))
}

// AnalyzeChanges folds a set of events into one analysis
func AnalyzeChanges(events ...ChangeEvent) *ChangeAnalysis {
	analysis := &ChangeAnalysis{}
	for _, e := range events {
		analysis.Add(e)
	}
	return analysis
}
