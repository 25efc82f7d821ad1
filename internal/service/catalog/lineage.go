package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"metacat/internal/domain"
	"metacat/internal/graph"
)

// LineageService owns the directed edges between datasets and keeps the edge
// set acyclic on every write. Datasets are referenced by FQN and must already
// exist in the registry; an edge never creates a dataset.
type LineageService struct {
	datasets domain.DatasetRepository
	edges    domain.LineageRepository
	logger   *slog.Logger

	// mu makes the cycle pre-check and the edge commit one critical section.
	// Without it, two concurrent AddEdge calls could each pass the check and
	// jointly close a cycle neither would have created alone.
	mu sync.Mutex
}

// NewLineageService creates a new LineageService.
func NewLineageService(datasets domain.DatasetRepository, edges domain.LineageRepository, logger *slog.Logger) *LineageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LineageService{datasets: datasets, edges: edges, logger: logger}
}

// AddEdge validates and commits a lineage edge from upstreamFQN to
// downstreamFQN. The candidate edge is checked against the committed edge set
// only and is never inserted speculatively: a rejected edge leaves the graph
// untouched.
func (s *LineageService) AddEdge(ctx context.Context, upstreamFQN, downstreamFQN string) (*domain.LineageEdge, error) {
	upstream, err := s.resolve(ctx, "upstream", upstreamFQN)
	if err != nil {
		return nil, err
	}
	downstream, err := s.resolve(ctx, "downstream", downstreamFQN)
	if err != nil {
		return nil, err
	}

	if upstream.ID == downstream.ID {
		return nil, domain.ErrSelfLineage("cannot create lineage from %q to itself", upstreamFQN)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.loadGraph(ctx)
	if err != nil {
		return nil, err
	}

	// A path downstream -> upstream over committed edges means the new edge
	// would close a cycle.
	if g.Reachable(downstream.ID, upstream.ID) {
		return nil, domain.ErrCycleDetected("lineage %s -> %s would create a cycle", upstreamFQN, downstreamFQN)
	}

	edge, err := s.edges.InsertEdge(ctx, &domain.LineageEdge{
		UpstreamID:    upstream.ID,
		DownstreamID:  downstream.ID,
		UpstreamFQN:   upstreamFQN,
		DownstreamFQN: downstreamFQN,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("lineage edge added", "upstream", upstreamFQN, "downstream", downstreamFQN)
	return edge, nil
}

// Upstream returns every dataset the given one transitively depends on, in
// breadth-first order (nearest dependencies first). maxDepth bounds the walk
// in hops; 0 means the full transitive closure.
func (s *LineageService) Upstream(ctx context.Context, fqn string, maxDepth int) ([]domain.Dataset, error) {
	ds, err := s.datasets.GetByFQN(ctx, fqn)
	if err != nil {
		return nil, err
	}
	g, err := s.loadGraph(ctx)
	if err != nil {
		return nil, err
	}
	return s.collect(ctx, g.Upstream(ds.ID, maxDepth))
}

// Downstream returns every dataset derived from the given one, in
// breadth-first order. maxDepth bounds the walk in hops; 0 means unbounded.
func (s *LineageService) Downstream(ctx context.Context, fqn string, maxDepth int) ([]domain.Dataset, error) {
	ds, err := s.datasets.GetByFQN(ctx, fqn)
	if err != nil {
		return nil, err
	}
	g, err := s.loadGraph(ctx)
	if err != nil {
		return nil, err
	}
	return s.collect(ctx, g.Downstream(ds.ID, maxDepth))
}

// Lineage returns both directions at once for the lineage query endpoint.
func (s *LineageService) Lineage(ctx context.Context, fqn string, maxDepth int) (*domain.LineageNode, error) {
	if _, err := s.datasets.GetByFQN(ctx, fqn); err != nil {
		return nil, err
	}

	node := &domain.LineageNode{FQN: fqn}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		upstream, err := s.Upstream(egCtx, fqn, maxDepth)
		node.Upstream = upstream
		return err
	})
	eg.Go(func() error {
		downstream, err := s.Downstream(egCtx, fqn, maxDepth)
		node.Downstream = downstream
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return node, nil
}

// resolve looks up one endpoint of a candidate edge. A missing dataset is an
// UnknownDatasetError, not an implicit registration.
func (s *LineageService) resolve(ctx context.Context, role, fqn string) (*domain.Dataset, error) {
	ds, err := s.datasets.GetByFQN(ctx, fqn)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return nil, domain.ErrUnknownDataset("%s dataset %q is not registered", role, fqn)
		}
		return nil, err
	}
	return ds, nil
}

// loadGraph builds the adjacency structure from the committed edge set.
func (s *LineageService) loadGraph(ctx context.Context) (*graph.Graph, error) {
	edges, err := s.edges.ListEdges(ctx)
	if err != nil {
		return nil, err
	}
	g := graph.New()
	for _, e := range edges {
		g.AddEdge(e.UpstreamID, e.DownstreamID)
	}
	return g, nil
}

// collect maps an ordered list of dataset IDs back to full records,
// preserving the traversal order.
func (s *LineageService) collect(ctx context.Context, ids []string) ([]domain.Dataset, error) {
	datasets := make([]domain.Dataset, 0, len(ids))
	for _, id := range ids {
		ds, err := s.datasets.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, *ds)
	}
	return datasets, nil
}
