package inventory

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ritzau/pangenome/pkg/model"
)

var inventoryExts = []string{".txt", ".list", ".ids", ".gff", ".gff3", ".gff2", ".gtf"}

// FindInventoryFiles lists the gene list files directly inside dir.
// The genome name is the file name without its extensions, e.g.
// "G1.gff3.gz" lists the genes of genome "G1".
func FindInventoryFiles(dir string) ([]Spec, error) {
	var specs []Spec

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if !IsInventoryFile(d.Name()) {
			return nil
		}

		name := strings.TrimSuffix(d.Name(), ".gz")
		specs = append(specs, Spec{
			Genome: model.Genome(strings.TrimSuffix(name, filepath.Ext(name))),
			Path:   path,
		})
		return nil
	})

	slices.SortFunc(specs, func(a, b Spec) int {
		return strings.Compare(a.Path, b.Path)
	})
	return specs, err
}

// IsInventoryFile reports whether a file name looks like a gene list
func IsInventoryFile(name string) bool {
	name = strings.TrimSuffix(filepath.Base(name), ".gz")
	if strings.HasPrefix(name, ".") {
		return false
	}
	return slices.Contains(inventoryExts, strings.ToLower(filepath.Ext(name)))
}
