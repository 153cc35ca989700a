package presence

import (
	"context"
	"fmt"
	"runtime"

	"github.com/ritzau/pangenome/pkg/model"
	"golang.org/x/sync/errgroup"
)

// Matrix holds one presence vector per cluster, in cluster order
type Matrix struct {
	Universe *Universe
	Clusters []*model.Cluster
	Vectors  []model.PresenceVector
}

// Len returns the number of clusters
func (m *Matrix) Len() int {
	return len(m.Vectors)
}

// Vector computes the presence vector of a single cluster
func Vector(u *Universe, c *model.Cluster) (model.PresenceVector, error) {
	present := make([]bool, u.Len())
	for _, ref := range c.Members {
		i, ok := u.Index(ref.Genome)
		if !ok {
			return model.PresenceVector{}, &model.UnknownGenomeError{
				Genome:    ref.Genome,
				Gene:      ref,
				ClusterID: c.ID,
			}
		}
		present[i] = true
	}

	pv := model.PresenceVector{ClusterID: c.ID, Present: present}
	if n := pv.Count(); n < 1 || n > u.Len() {
		return model.PresenceVector{}, fmt.Errorf("cluster %s present in %d genomes, expected 1..%d", c.ID, n, u.Len())
	}
	return pv, nil
}

// Options tunes matrix construction
type Options struct {
	// Workers bounds the parallel per-cluster scans; <= 0 means GOMAXPROCS
	Workers int
}

// chunkSize keeps goroutine overhead small relative to the per-cluster work
const chunkSize = 4096

// Build computes presence vectors for all clusters. Clusters are independent,
// so they are scanned in parallel chunks. When several clusters reference an
// unknown genome, the error of the first such cluster is returned.
func Build(ctx context.Context, u *Universe, clusters []*model.Cluster, opts Options) (*Matrix, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	vectors := make([]model.PresenceVector, len(clusters))
	errs := make([]error, len(clusters))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(clusters); start += chunkSize {
		end := min(start+chunkSize, len(clusters))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				vectors[i], errs[i] = Vector(u, clusters[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return &Matrix{
		Universe: u,
		Clusters: clusters,
		Vectors:  vectors,
	}, nil
}
