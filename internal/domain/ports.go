package domain

import "context"

// DatasetRepository persists dataset records keyed by FQN.
type DatasetRepository interface {
	// Create stores a new dataset with its columns. Returns a ConflictError
	// when the FQN is already registered.
	Create(ctx context.Context, ds *Dataset) (*Dataset, error)
	// GetByFQN returns the dataset for the given dotted FQN, or a NotFoundError.
	GetByFQN(ctx context.Context, fqn string) (*Dataset, error)
	// GetByID returns the dataset with the given ID, or a NotFoundError.
	GetByID(ctx context.Context, id string) (*Dataset, error)
	// List returns a page of datasets ordered by FQN, plus the total count.
	List(ctx context.Context, page PageRequest) ([]Dataset, int64, error)
	// ListAll returns every registered dataset ordered by FQN.
	ListAll(ctx context.Context) ([]Dataset, error)
	// Delete removes a dataset by ID.
	Delete(ctx context.Context, id string) error
}

// LineageRepository persists the edge set of the lineage graph.
type LineageRepository interface {
	// InsertEdge commits a new edge. Returns a ConflictError when the ordered
	// (upstream, downstream) pair already exists.
	InsertEdge(ctx context.Context, edge *LineageEdge) (*LineageEdge, error)
	// ListEdges returns every committed edge.
	ListEdges(ctx context.Context) ([]LineageEdge, error)
	// CountEdgesForDataset returns how many edges reference the dataset in
	// either direction.
	CountEdgesForDataset(ctx context.Context, datasetID string) (int64, error)
}
