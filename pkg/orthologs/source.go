package orthologs

import (
	"context"

	"github.com/ritzau/pangenome/pkg/logging"
	"github.com/ritzau/pangenome/pkg/model"
)

// Client abstracts reading an ortholog table so the loader can be mocked
type Client interface {
	ParseFile(path string) ([]model.OrthologEdge, error)
}

type fileClient struct{}

// NewClient returns a client reading tables from the local filesystem
func NewClient() Client {
	return fileClient{}
}

func (fileClient) ParseFile(path string) ([]model.OrthologEdge, error) {
	return ParseFile(path)
}

// Source loads the ortholog edges of one run
type Source struct {
	client Client
}

// NewSource creates a source backed by the local filesystem
func NewSource() *Source {
	return &Source{client: NewClient()}
}

// Name returns the name used in logs
func (s *Source) Name() string {
	return "Orthologs"
}

// Load reads all edges from path
func (s *Source) Load(ctx context.Context, path string) ([]model.OrthologEdge, error) {
	logger := logging.New("source.orthologs")
	logger.InfoContext(ctx, "Loading ortholog table", "path", path)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	edges, err := s.client.ParseFile(path)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Ortholog table loaded", "edges", len(edges))
	return edges, nil
}
