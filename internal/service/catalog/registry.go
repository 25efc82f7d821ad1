// Package catalog provides the metadata catalog services: dataset registry,
// lineage graph, and search.
package catalog

import (
	"context"
	"log/slog"

	"metacat/internal/domain"
)

// RegistryService owns dataset identity and attributes. FQNs are globally
// unique and immutable once registered.
type RegistryService struct {
	datasets domain.DatasetRepository
	edges    domain.LineageRepository
	logger   *slog.Logger
}

// NewRegistryService creates a new RegistryService.
func NewRegistryService(datasets domain.DatasetRepository, edges domain.LineageRepository, logger *slog.Logger) *RegistryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistryService{datasets: datasets, edges: edges, logger: logger}
}

// Register validates and persists a new dataset. Rejected writes leave the
// store unchanged.
func (s *RegistryService) Register(ctx context.Context, req domain.CreateDatasetRequest) (*domain.Dataset, error) {
	fqn, err := domain.ParseFQN(req.FQN)
	if err != nil {
		return nil, err
	}

	if !domain.ValidLayer(req.Layer) {
		return nil, domain.ErrValidation("unrecognized layer %q (must be 'bronze', 'silver', or 'gold')", req.Layer)
	}

	if len(req.Columns) == 0 {
		return nil, domain.ErrValidation("dataset must have at least one column")
	}
	seen := make(map[string]bool, len(req.Columns))
	for _, col := range req.Columns {
		if col.Name == "" {
			return nil, domain.ErrValidation("column name must be non-empty")
		}
		if seen[col.Name] {
			return nil, domain.ErrValidation("duplicate column name %q", col.Name)
		}
		seen[col.Name] = true
	}

	// Duplicate pre-check; the UNIQUE constraint on datasets.fqn is the
	// backstop when two registrations race.
	if _, err := s.datasets.GetByFQN(ctx, fqn.String()); err == nil {
		return nil, domain.ErrConflict("dataset %q already exists", fqn.String())
	}

	created, err := s.datasets.Create(ctx, &domain.Dataset{
		FQN:         fqn,
		Layer:       domain.Layer(req.Layer),
		Columns:     req.Columns,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("dataset registered", "fqn", fqn.String(), "layer", req.Layer, "columns", len(req.Columns))
	return created, nil
}

// Resolve returns the dataset registered under fqn. Pure lookup.
func (s *RegistryService) Resolve(ctx context.Context, fqn string) (*domain.Dataset, error) {
	return s.datasets.GetByFQN(ctx, fqn)
}

// List returns a page of registered datasets ordered by FQN.
func (s *RegistryService) List(ctx context.Context, page domain.PageRequest) ([]domain.Dataset, int64, error) {
	return s.datasets.List(ctx, page)
}

// Delete removes a dataset. Datasets that still participate in lineage edges
// cannot be deleted; the edges must go first.
func (s *RegistryService) Delete(ctx context.Context, fqn string) error {
	ds, err := s.datasets.GetByFQN(ctx, fqn)
	if err != nil {
		return err
	}

	count, err := s.edges.CountEdgesForDataset(ctx, ds.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrConflict("dataset %q has %d lineage edge(s); remove them before deleting", fqn, count)
	}

	if err := s.datasets.Delete(ctx, ds.ID); err != nil {
		return err
	}

	s.logger.Info("dataset deleted", "fqn", fqn)
	return nil
}
